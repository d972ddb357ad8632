package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongodb"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know; it takes ? placeholders.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

type Config struct {
	Driver   string        `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DSN      string        `env:"DATABASE_URL" envDefault:"users.db"`
	Name     string        `env:"DATABASE_NAME" envDefault:"registration"`
	MaxConns int           `env:"DATABASE_MAX_CONNS" envDefault:"5"`
	Timeout  time.Duration `env:"DATABASE_TIMEOUT" envDefault:"5s"`
}

// Connect opens a SQL database for the configured driver and verifies connectivity with a ping.
func Connect(cfg Config) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		db, err := connectPostgres(cfg)
		if err != nil {
			return nil, err
		}
		return sqlx.NewDb(db, DriverPostgres), nil
	case DriverSQLite:
		db, err := connectSQLite(cfg)
		if err != nil {
			return nil, err
		}
		return sqlx.NewDb(db, DriverSQLite), nil
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
}

func connectPostgres(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func connectSQLite(cfg Config) (*sql.DB, error) {
	path := strings.TrimSpace(cfg.DSN)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// single writer; concurrent inserts queue instead of failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

// sqliteDSN appends the connection pragmas to a plain path or a file: URI.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
