// Package store implementa la persistencia de opciones clave/valor del host.
//
// Cada opción es un blob opaco identificado por nombre. Los drivers
// disponibles son fs (default), postgres, redis y memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Options es la API de persistencia de settings del host.
type Options interface {
	// Get devuelve el valor guardado. ErrNotFound si nunca se guardó.
	Get(ctx context.Context, name string) ([]byte, error)
	// Set crea o sobrescribe el valor.
	Set(ctx context.Context, name string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	ErrNotFound    = errors.New("store: option not found")
	ErrInvalidName = errors.New("store: invalid option name")
)

// IsNotFound reporta si err es ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Config selecciona y configura el driver.
type Config struct {
	Driver string // fs | postgres | redis | memory
	DSN    string
	FSRoot string

	Postgres struct {
		MaxConns        int
		ConnMaxLifetime time.Duration
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
}

// Open crea el driver configurado.
func Open(ctx context.Context, cfg Config) (Options, error) {
	switch cfg.Driver {
	case "", "fs":
		return OpenFS(cfg.FSRoot)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN, cfg.Postgres.MaxConns, cfg.Postgres.ConnMaxLifetime)
	case "redis":
		return OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,128}$`)

// validName evita path traversal en fs y keys raras en redis.
func validName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
