package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"naskahweb/pkg/logger"

	_ "github.com/lib/pq"
)

const (
	pingAttempts = 5
	pingDelay    = 2 * time.Second
)

// Connect opens the Postgres database at dsn and waits until it answers.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres profile store")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := waitForPing(ctx, db, pingAttempts, pingDelay); err != nil {
		db.Close()
		return nil, err
	}
	logger.Sugar.Info("Successfully connected to the database")
	return db, nil
}

// waitForPing retries a few times in case of temporary DNS/network blips.
func waitForPing(ctx context.Context, db *sql.DB, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", delay, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("could not connect to database after %d attempts: %w", attempts, err)
}
