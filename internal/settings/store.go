package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/mailrelay/internal/cache"
	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
	"github.com/dropDatabas3/mailrelay/internal/security/secretbox"
	"github.com/dropDatabas3/mailrelay/internal/store"
)

const cacheKey = "settings:" + OptionName

// Deps son las dependencias del Store. Cache y Box son opcionales.
type Deps struct {
	Options  store.Options
	Identity Identity
	Cache    cache.Client
	CacheTTL time.Duration
	// Box cifra el password en reposo. Sin Box se guarda en claro.
	Box *secretbox.Box
}

// Store lee y escribe el registro de configuración.
type Store struct {
	opts     store.Options
	identity Identity
	cache    cache.Client
	ttl      time.Duration
	box      *secretbox.Box
	sf       singleflight.Group

	// mu serializa los Save y el llenado del cache; gen cambia en cada Save.
	mu  sync.Mutex
	gen uint64
}

// NewStore crea el Store.
func NewStore(d Deps) *Store {
	return &Store{
		opts:     d.Options,
		identity: d.Identity,
		cache:    d.Cache,
		ttl:      d.CacheTTL,
		box:      d.Box,
	}
}

// persisted es la forma en disco. El password va en PasswordEnc cuando hay Box.
type persisted struct {
	Record
	PasswordEnc string `json:"password_enc,omitempty"`
}

// Load devuelve el registro guardado o los defaults si nunca se guardó.
// El resultado es una copia: mutarla no afecta al Store.
func (s *Store) Load(ctx context.Context) (Record, error) {
	raw, err := s.loadRaw(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return Defaults(s.identity), nil
	}
	if err != nil {
		return Record{}, err
	}
	return s.decode(raw)
}

func (s *Store) loadRaw(ctx context.Context) ([]byte, error) {
	if s.cache != nil {
		if v, err := s.cache.Get(ctx, cacheKey); err == nil {
			return []byte(v), nil
		}
	}

	// Varias lecturas concurrentes con cache frío hacen un solo Get al store.
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		s.mu.Lock()
		gen := s.gen
		s.mu.Unlock()

		b, err := s.opts.Get(ctx, OptionName)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.mu.Lock()
			// Un Save en el medio ya dejó el valor nuevo en el cache.
			if gen == s.gen {
				s.fillCache(ctx, b)
			}
			s.mu.Unlock()
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Save sanitiza in y sobrescribe el registro. Con *ValidationError no toca
// lo persistido.
func (s *Store) Save(ctx context.Context, in Input) (Record, error) {
	log := logger.From(ctx).With(logger.Component("settings"), logger.Op("Save"))

	rec, err := sanitize(in)
	if err != nil {
		return Record{}, err
	}
	if in.KeepPassword {
		cur, err := s.Load(ctx)
		if err != nil {
			return Record{}, err
		}
		rec.Password = cur.Password
	}

	raw, err := s.encode(rec)
	if err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	if err := s.opts.Set(ctx, OptionName, raw); err != nil {
		s.mu.Unlock()
		return Record{}, fmt.Errorf("settings: persist: %w", err)
	}
	s.gen++
	if s.cache != nil && !s.fillCache(ctx, raw) {
		if err := s.cache.Delete(ctx, cacheKey); err != nil {
			log.Warn("settings cache invalidate failed", logger.Err(err))
		}
	}
	s.sf.Forget(cacheKey)
	s.mu.Unlock()

	log.Info("smtp settings saved",
		logger.String("host", rec.Host),
		logger.Int("port", rec.Port),
		logger.String("encryption", string(rec.Encryption)),
		logger.Bool("debug", rec.Debug),
	)
	return rec, nil
}

// fillCache guarda raw en el cache. Llamar con mu tomado.
func (s *Store) fillCache(ctx context.Context, raw []byte) bool {
	if err := s.cache.Set(ctx, cacheKey, string(raw), s.ttl); err != nil {
		logger.From(ctx).Warn("settings cache set failed",
			logger.Component("settings"), logger.Err(err))
		return false
	}
	return true
}

func (s *Store) encode(rec Record) ([]byte, error) {
	p := persisted{Record: rec}
	if s.box != nil && rec.Password != "" {
		enc, err := s.box.Encrypt(rec.Password)
		if err != nil {
			return nil, fmt.Errorf("settings: seal password: %w", err)
		}
		p.PasswordEnc = enc
		p.Password = ""
	}
	return json.Marshal(p)
}

func (s *Store) decode(raw []byte) (Record, error) {
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return Record{}, fmt.Errorf("settings: decode: %w", err)
	}
	rec := p.Record
	if p.PasswordEnc != "" {
		if s.box == nil {
			return Record{}, errors.New("settings: password is sealed but no master key is configured")
		}
		pw, err := s.box.Decrypt(p.PasswordEnc)
		if err != nil {
			return Record{}, fmt.Errorf("settings: open password: %w", err)
		}
		rec.Password = pw
	}
	return rec, nil
}
