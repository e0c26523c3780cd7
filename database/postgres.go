package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN string

	// Connection pool settings
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
	HealthCheck time.Duration
}

// DefaultPostgresConfig returns pool defaults for the given DSN
func DefaultPostgresConfig(dsn string) *PostgresConfig {
	return &PostgresConfig{
		DSN:         dsn,
		MaxConns:    4,
		MinConns:    0,
		MaxConnLife: time.Hour,
		MaxConnIdle: 30 * time.Minute,
		HealthCheck: time.Minute,
	}
}

// PostgresService provides PostgreSQL database operations
type PostgresService struct {
	pool *pgxpool.Pool
}

// NewPostgresService creates a new PostgreSQL service with connection pooling
func NewPostgresService(ctx context.Context, cfg *PostgresConfig) (*PostgresService, error) {
	if cfg == nil || cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLife
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdle
	if cfg.HealthCheck > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheck
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresService{pool: pool}, nil
}

// Close closes the connection pool
func (s *PostgresService) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks database connectivity
func (s *PostgresService) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Query executes a query that returns rows
func (s *PostgresService) Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error) {
	return s.pool.Query(ctx, query, args...)
}

// Exec executes a query without returning rows
func (s *PostgresService) Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error) {
	return s.pool.Exec(ctx, query, args...)
}

// SendBatch sends queued statements in one round trip
func (s *PostgresService) SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults {
	return s.pool.SendBatch(ctx, batch)
}
