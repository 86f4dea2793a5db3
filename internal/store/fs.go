package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/mailrelay/internal/util/atomicwrite"
)

// fsOptions guarda una opción por archivo YAML bajo root.
type fsOptions struct {
	root string
	mu   sync.RWMutex
}

type fsDoc struct {
	Name      string    `yaml:"name"`
	Value     string    `yaml:"value"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// OpenFS abre (y crea si falta) el directorio raíz.
func OpenFS(root string) (Options, error) {
	if root == "" {
		root = "data"
	}
	info, err := os.Stat(root)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("fs: root path error: %w", err)
		}
		if mkErr := os.MkdirAll(root, 0o755); mkErr != nil {
			return nil, fmt.Errorf("fs: failed to create root path %s: %w", root, mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("fs: root path is not a directory: %s", root)
	}
	return &fsOptions{root: root}, nil
}

func (s *fsOptions) path(name string) string {
	return filepath.Join(s.root, "options", name+".yaml")
}

func (s *fsOptions) Get(_ context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fs: read %s: %w", name, err)
	}
	var doc fsDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("fs: parse %s: %w", name, err)
	}
	return []byte(doc.Value), nil
}

func (s *fsOptions) Set(_ context.Context, name string, value []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	b, err := yaml.Marshal(fsDoc{Name: name, Value: string(value), UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// 0600: el valor puede contener credenciales
	return atomicwrite.WriteFile(s.path(name), b, 0o600)
}

func (s *fsOptions) Ping(context.Context) error {
	_, err := os.Stat(s.root)
	return err
}

func (s *fsOptions) Close() error { return nil }
