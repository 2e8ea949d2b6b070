package config

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"taskhub/internal/logger"
)

// NewPostgresDB opens the pool used by every repository and transaction.
func NewPostgresDB(cfg *Config) (*sqlx.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	logger.Log.WithFields(logger.Fields{
		"max_open": cfg.DBMaxOpenConns,
		"max_idle": cfg.DBMaxIdleConns,
	}).Info("Connected to Postgres")
	return db, nil
}
