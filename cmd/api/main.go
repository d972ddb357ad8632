package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ovaphlow/pitchfork/service-registration/internal/app"
	"github.com/ovaphlow/pitchfork/service-registration/internal/config"
	"github.com/ovaphlow/pitchfork/service-registration/pkg/utilities"
)

func main() {
	// load .env (if present) and bind the environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// init logger
	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-registration")

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalf("app init: %v", err)
	}

	// run server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run()
	}()

	sugar.Info("service is running; press Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			sugar.Errorf("http server failed: %v", err)
		}
	}

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := a.Shutdown(doneCtx); err != nil {
		sugar.Warnf("shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
