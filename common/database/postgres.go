package database

import (
	"database/sql"
	"fmt"

	"github.com/micaelgg/buutech/common/config"

	_ "github.com/lib/pq"
)

// Open creates the connection pool without contacting the server.
// Readiness is checked separately so startup can retry on its own schedule.
func Open(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	return db, nil
}

// Close closes the pool, tolerating nil
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
