package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PratikDhanave/doorbell-event-service/internal/models"
)

// schemaSQL is embedded so the service can self-bootstrap its table.
// %[1]s is the table identifier, %[2]s the index identifier.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore writes doorbell events into a single Postgres table.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(dbURL, table string) (*PostgresStore, error) {
	const op = "store.postgres.New"

	if table == "" {
		return nil, fmt.Errorf("%s: table name required", op)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &PostgresStore{pool: pool, table: table}, nil
}

// EnsureSchema creates the events table and its index. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, renderSchema(p.table)); err != nil {
		return fmt.Errorf("store.postgres.EnsureSchema: %w", err)
	}
	return nil
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// PutEvent inserts one record. A duplicate EventID is reported as an error;
// ids are freshly generated per request so this only happens on a broken generator.
func (p *PostgresStore) PutEvent(ctx context.Context, ev models.DoorbellEvent) error {
	const op = "store.postgres.PutEvent"

	if ev.EventID == "" || ev.HouseID == "" {
		return fmt.Errorf("%s: %w", op, errors.New("EventID/HouseID required"))
	}

	tag, err := p.pool.Exec(ctx,
		`INSERT INTO `+pgx.Identifier{p.table}.Sanitize()+` ("EventID", "Timestamp", "HouseID", source)
		 VALUES ($1, $2, $3, $4)`,
		ev.EventID, ev.Timestamp, ev.HouseID, ev.Source,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%s: expected 1 row, got %d", op, tag.RowsAffected())
	}
	return nil
}

func renderSchema(table string) string {
	return fmt.Sprintf(schemaSQL,
		pgx.Identifier{table}.Sanitize(),
		pgx.Identifier{table + "_house_ts_idx"}.Sanitize(),
	)
}
