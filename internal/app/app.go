package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-registration/internal/config"
	"github.com/ovaphlow/pitchfork/service-registration/internal/identity"
	"github.com/ovaphlow/pitchfork/service-registration/internal/router"
	"github.com/ovaphlow/pitchfork/service-registration/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-registration/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-registration/pkg/database"
	"github.com/ovaphlow/pitchfork/service-registration/pkg/metrics"
	"github.com/ovaphlow/pitchfork/service-registration/pkg/utilities"
)

const usersCollection = "users"

// App owns the HTTP server and everything it depends on. It is built once at startup.
type App struct {
	httpServer *http.Server
	cleanup    func() error
	logger     *zap.SugaredLogger
}

// New opens the store, builds the verifier and mounts the routes.
func New(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	repo, cleanup, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	verifier, err := identity.New(ctx, cfg.Identity)
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("identity verifier: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)

	svc := user.NewService(repo, verifier, cfg.Registration, logger)
	handler := router.RegisterRoutes(router.Deps{
		Logger:    logger,
		Users:     user.NewHandler(svc, logger),
		Gatherer:  reg,
		IDs:       utilities.NewIDGenerator(cfg.SnowflakeNode),
		RateLimit: cfg.HTTP.RateLimit,
	})

	logger.Infow("app ready",
		"driver", cfg.Database.Driver,
		"identity_provider", cfg.Identity.Provider,
		"enforce_groups", cfg.Registration.EnforceGroups,
	)

	return &App{
		httpServer: &http.Server{Addr: cfg.HTTP.Addr, Handler: handler},
		cleanup:    cleanup,
		logger:     logger,
	}, nil
}

// openStore connects the configured backend and returns the repository with its close func.
func openStore(ctx context.Context, cfg database.Config) (userrepo.Repository, func() error, error) {
	switch cfg.Driver {
	case database.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		col := client.Database(cfg.Name).Collection(usersCollection)
		return userrepo.NewMongoRepo(col), func() error { return client.Disconnect(context.Background()) }, nil
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		repo := userrepo.NewUserRepo(db)
		if err := repo.EnsureTable(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, db.Close, nil
	}
}

// Handler exposes the mounted routes, mainly for tests.
func (a *App) Handler() http.Handler { return a.httpServer.Handler }

// Run blocks serving HTTP until Shutdown is called.
func (a *App) Run() error {
	a.logger.Infow("http server listening", "addr", a.httpServer.Addr)
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.httpServer.Shutdown(ctx)
	if a.cleanup != nil {
		if cerr := a.cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
