package database

import (
	"fmt"
	"food_delivery/internal/pkg/config"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// InitSQLX opens a read-mostly sqlx handle on the pgx stdlib driver for reporting queries
// that are clearer as hand-written SQL than as gorm chains.
func InitSQLX(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("connect reporting database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
