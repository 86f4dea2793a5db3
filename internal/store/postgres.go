package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS options (
	name       TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type pgOptions struct {
	pool *pgxpool.Pool
}

// OpenPostgres conecta con pgxpool y crea la tabla options si no existe.
func OpenPostgres(ctx context.Context, dsn string, maxConns int, connMaxLifetime time.Duration) (Options, error) {
	pool, err := openPGPool(ctx, dsn, maxConns, connMaxLifetime)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ensure schema: %w", err)
	}
	return &pgOptions{pool: pool}, nil
}

// openPGPool crea un *pgxpool.Pool aplicando parámetros básicos.
func openPGPool(ctx context.Context, dsn string, maxConns int, lifetime time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgxpool config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	if lifetime > 0 {
		cfg.MaxConnLifetime = lifetime
		cfg.MaxConnIdleTime = lifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pgxpool: %w", err)
	}
	// Conectar para fallar rápido si hay problema
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgxpool ping: %w", err)
	}
	return pool, nil
}

func (s *pgOptions) Get(ctx context.Context, name string) ([]byte, error) {
	var v []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM options WHERE name = $1`, name).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get %s: %w", name, err)
	}
	return v, nil
}

func (s *pgOptions) Set(ctx context.Context, name string, value []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO options (name, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		name, value)
	if err != nil {
		return fmt.Errorf("pg: set %s: %w", name, err)
	}
	return nil
}

func (s *pgOptions) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *pgOptions) Close() error {
	s.pool.Close()
	return nil
}
