package sessionstore

import (
	"context"
	"errors"
	"fmt"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The state column is TEXT, not JSONB, so the canonical encoding is stored byte for byte.
const createSessionsTable = `CREATE TABLE IF NOT EXISTS sgr_sessions (
	session_id TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres stores states in the sgr_sessions table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and creates the sessions table if needed.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createSessionsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Save implements Store.
func (p *Postgres) Save(ctx context.Context, state sgr.State) error {
	data, err := sgr.EncodeState(state)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO sgr_sessions (session_id, state, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (session_id) DO UPDATE SET state = $2, updated_at = now()`,
		state.Base().SessionID, string(data))
	if err != nil {
		return fmt.Errorf("postgres save: %w", err)
	}
	return nil
}

// Load implements Store.
func (p *Postgres) Load(ctx context.Context, sessionID string, into sgr.State) error {
	var data string
	err := p.pool.QueryRow(ctx,
		`SELECT state FROM sgr_sessions WHERE session_id = $1`,
		sessionID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
		}
		return fmt.Errorf("postgres load: %w", err)
	}
	return sgr.DecodeState([]byte(data), into)
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

var _ Store = (*Postgres)(nil)
