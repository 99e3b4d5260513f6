/**
 * @description
 * This file handles the PostgreSQL connection lifecycle: building the pgx pool,
 * waiting for the database to become reachable with a bounded retry loop, and
 * applying the idempotent schema migration once connected.
 *
 * Only startup connectivity failure is fatal to the process; once the pool is
 * handed out, individual query errors fail the request they belong to.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver's connection pool.
 */

package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectOptions bound the startup wait for the database.
type ConnectOptions struct {
	Attempts int
	Delay    time.Duration
}

// Connect builds a pgx pool and pings it until the database answers or the
// attempt budget is spent. The schema migration runs after the first
// successful ping.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*pgxpool.Pool, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 10
	}
	if opts.Delay <= 0 {
		opts.Delay = 5 * time.Second
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	var pingErr error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, opts.Delay)
		pingErr = pool.Ping(pingCtx)
		cancel()
		if pingErr == nil {
			if err := Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate schema: %w", err)
			}
			log.Printf("level=info component=store msg=\"database connected and schema ensured\" attempt=%d", attempt)
			return pool, nil
		}
		log.Printf("level=warn component=store msg=\"database not reachable yet\" attempt=%d/%d err=%v", attempt, opts.Attempts, pingErr)
		if attempt < opts.Attempts {
			select {
			case <-time.After(opts.Delay):
			case <-ctx.Done():
				pool.Close()
				return nil, ctx.Err()
			}
		}
	}

	pool.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", opts.Attempts, pingErr)
}

// Migrate applies the schema idempotently. Foreign keys carry ON DELETE CASCADE
// as a second line of defense; deletes are still issued explicitly, children
// first, inside one transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id            BIGSERIAL PRIMARY KEY,
			name          VARCHAR(100) NOT NULL,
			email         VARCHAR(120) NOT NULL UNIQUE,
			password_hash VARCHAR(200) NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id             BIGSERIAL PRIMARY KEY,
			account_number VARCHAR(20) NOT NULL UNIQUE,
			balance        BIGINT NOT NULL DEFAULT 0,
			customer_id    BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id         BIGSERIAL PRIMARY KEY,
			type       VARCHAR(20) NOT NULL,
			amount     BIGINT NOT NULL,
			account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_customer_id ON accounts(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account_id ON transactions(account_id)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
