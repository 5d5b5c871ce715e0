package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mdviewer/config"
	"mdviewer/pkg/kv"
	"mdviewer/pkg/logger"

	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/redis/go-redis/v9"
)

const (
	pingAttempts = 5
	pingBackoff  = 2 * time.Second
)

// Connect opens driverName ("postgres" or "sqlite3") and pings it with a few
// retries to ride out temporary DNS or network blips.
func Connect(driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", driverName, err)
	}

	for i := 0; i < pingAttempts; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Infof("Successfully connected to the %s database", driverName)
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", pingBackoff, err)
		time.Sleep(pingBackoff)
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to %s after %d attempts: %w", driverName, pingAttempts, err)
}

func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}
	return client, nil
}

// OpenStorage builds the key-value backend named by cfg.Driver. The returned
// closer releases its connection and is never nil.
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (kv.Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverMemory:
		logger.Sugar.Warn("Using in-memory storage, documents will not survive a restart")
		return kv.NewMemory(), noop, nil

	case config.DriverPostgres, config.DriverSQLite:
		driverName, dialect := "postgres", kv.Postgres
		if cfg.Driver == config.DriverSQLite {
			driverName, dialect = "sqlite3", kv.SQLite
		}
		db, err := Connect(driverName, cfg.DSN)
		if err != nil {
			return nil, noop, err
		}
		if cfg.Driver == config.DriverSQLite {
			// A single writer keeps SQLite from returning SQLITE_BUSY.
			db.SetMaxOpenConns(1)
		}
		storage := kv.NewSQL(db, dialect)
		if err := storage.Migrate(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		return storage, db.Close, nil

	case config.DriverRedis:
		client, err := ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, noop, err
		}
		return kv.NewRedis(client, cfg.RedisPrefix), client.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
