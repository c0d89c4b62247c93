package db

import (
	"database/sql"
	"fmt"
	"time"

	"monetadirect/internal/config"
	"monetadirect/internal/logger"

	_ "github.com/lib/pq"
)

// InitDB opens and pings the Postgres connection pool.
func InitDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.L().Info("Database connection established")
	return db, nil
}
