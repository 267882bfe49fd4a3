package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/nineaccord/salesboard/internal/config"
)

// DB is the shared sqlx handle. Write transactions are limited by a weighted
// semaphore.
type DB struct {
	*sqlx.DB
	writers *semaphore.Weighted
}

// DSN renders the key/value connection string understood by both lib/pq and
// the pgx stdlib driver.
func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// driverName maps DB_DRIVER to a registered database/sql driver.
func driverName(driver string) (string, error) {
	switch driver {
	case "", "postgres", "pq":
		return "postgres", nil
	case "pgx":
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open connects with the configured driver, sizes the pool and pings the
// server before returning.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	driver, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.ConnectContext(ctx, driver, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect %s@%s/%s: %w", driver, cfg.Host, cfg.DBName, err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Info().Str("driver", driver).Str("host", cfg.Host).Str("db", cfg.DBName).Msg("database connected")
	return Wrap(conn, cfg.MaxConcurrentTx), nil
}

// Wrap adapts an existing sqlx handle; maxTx bounds concurrent write transactions.
func Wrap(conn *sqlx.DB, maxTx int64) *DB {
	if maxTx <= 0 {
		maxTx = 1
	}
	return &DB{DB: conn, writers: semaphore.NewWeighted(maxTx)}
}

// InTx runs fn inside a transaction, holding one writer slot for its whole
// duration. fn's error rolls the transaction back and is returned unchanged.
func (db *DB) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	if err := db.writers.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for writer slot: %w", err)
	}
	defer db.writers.Release(1)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Msg("transaction rollback failed")
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
