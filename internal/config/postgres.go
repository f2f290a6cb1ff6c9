package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func ConnectPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("Postgres DSN not provided")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	logger.Info("connected to Postgres")
	return db, nil
}
