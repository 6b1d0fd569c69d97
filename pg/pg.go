// Package pg opens the connection to the target PostgreSQL database.
package pg

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	// Registers the postgres driver.
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Store wraps the single database connection a run uses.
type Store struct {
	DB  *sqlx.DB
	log *zap.Logger
}

// NewStore connects to the database described by dsn and verifies the
// connection with a ping. An empty dsn falls back to the libpq
// environment (PGHOST, PGDATABASE, PGUSER, PGPASSWORD, PGSSLMODE and
// friends), so credentials never have to appear on the command line.
func NewStore(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	// One run is one connection and one transaction.
	db.SetMaxOpenConns(1)

	log.Debug("Connected to postgres")
	return &Store{DB: db, log: log}, nil
}

// Close releases the connection.
func (s *Store) Close() error {
	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
