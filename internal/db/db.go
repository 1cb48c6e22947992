package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"fizibilite/internal/logger"
)

// Connect opens and pings a pgx-backed pool. The caller owns the returned
// handle and closes it on shutdown.
func Connect(ctx context.Context, databaseURL string) (*sql.DB, error) {
	return Open(ctx, "pgx", databaseURL)
}

// Open is Connect for an explicit database/sql driver name.
func Open(ctx context.Context, driver, databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(20)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.WithModule("db").WithField("driver", driver).Info("Database connection established")
	return conn, nil
}
