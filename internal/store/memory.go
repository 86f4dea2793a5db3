package store

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

type memoryOptions struct {
	c *gocache.Cache
}

// NewMemory crea un store en memoria (tests/dev). Se pierde al reiniciar.
func NewMemory() Options {
	return &memoryOptions{c: gocache.New(gocache.NoExpiration, 0)}
}

func (s *memoryOptions) Get(_ context.Context, name string) ([]byte, error) {
	v, ok := s.c.Get(name)
	if !ok {
		return nil, ErrNotFound
	}
	b, _ := v.([]byte)
	// copia: el caller no debe poder mutar lo guardado
	return append([]byte(nil), b...), nil
}

func (s *memoryOptions) Set(_ context.Context, name string, value []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	s.c.Set(name, append([]byte(nil), value...), gocache.NoExpiration)
	return nil
}

func (s *memoryOptions) Ping(context.Context) error { return nil }
func (s *memoryOptions) Close() error               { return nil }
