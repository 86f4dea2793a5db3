package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr         string `yaml:"addr"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`

	// Site es la identidad del host: de acá salen los defaults de from_email/from_name.
	Site struct {
		Name       string `yaml:"name"`
		AdminEmail string `yaml:"admin_email"`
	} `yaml:"site"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		Driver   string `yaml:"driver"` // fs | postgres | redis | memory
		DSN      string `yaml:"dsn"`
		FSRoot   string `yaml:"fs_root"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	Cache struct {
		Kind     string `yaml:"kind"` // memory | redis
		Settings struct {
			TTL string `yaml:"ttl"`
		} `yaml:"settings"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	SMTP struct {
		Timeout            string `yaml:"timeout"`
		LocalName          string `yaml:"local_name"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	JWT struct {
		Issuer    string `yaml:"issuer"`
		Secret    string `yaml:"secret"`
		AccessTTL string `yaml:"access_ttl"`
	} `yaml:"jwt"`

	Security struct {
		SecretBoxMasterKey string `yaml:"secretbox_master_key"` // base64(32 bytes), cifra el password SMTP en reposo
		CSRFTTL            string `yaml:"csrf_ttl"`
	} `yaml:"security"`

	Admins []Admin `yaml:"admins"`
}

// Admin es una cuenta de administrador declarada en config.
// PasswordHash es un PHC string argon2id (ver `mailrelay hash-password`).
type Admin struct {
	ID           string   `yaml:"id"`
	Email        string   `yaml:"email"`
	PasswordHash string   `yaml:"password_hash"`
	Roles        []string `yaml:"roles"`
}

// Load lee el YAML en path, aplica defaults y overrides por env, y valida.
// Si path está vacío se arranca solo con defaults + env.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	// Normalizar fs_root relativo respecto al directorio del YAML
	if p := strings.TrimSpace(c.Storage.FSRoot); p != "" && path != "" && !filepath.IsAbs(p) {
		c.Storage.FSRoot = filepath.Clean(filepath.Join(filepath.Dir(path), p))
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "60s"
	}
	if c.Site.Name == "" {
		c.Site.Name = "MailRelay"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "fs"
	}
	if c.Storage.FSRoot == "" {
		c.Storage.FSRoot = "./data/mailrelay"
	}
	if c.Storage.Redis.Prefix == "" {
		c.Storage.Redis.Prefix = "mailrelay:options"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Settings.TTL == "" {
		c.Cache.Settings.TTL = "5m"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "mailrelay:cache"
	}
	if c.SMTP.Timeout == "" {
		c.SMTP.Timeout = "10s"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "mailrelay"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "1h"
	}
	if c.Security.CSRFTTL == "" {
		c.Security.CSRFTTL = "30m"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// SITE
	if v, ok := getEnvStr("SITE_NAME"); ok {
		c.Site.Name = v
	}
	if v, ok := getEnvStr("SITE_ADMIN_EMAIL"); ok {
		c.Site.AdminEmail = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("STORAGE_FS_ROOT"); ok {
		c.Storage.FSRoot = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}

	// CACHE / REDIS (el mismo REDIS_ADDR sirve a ambos si no se separan)
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
		c.Storage.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
		c.Storage.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
		c.Storage.Redis.DB = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_TIMEOUT"); ok {
		c.SMTP.Timeout = v
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.SMTP.InsecureSkipVerify = v
	}

	// SECURITY
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("SECRETBOX_MASTER_KEY"); ok {
		c.Security.SecretBoxMasterKey = v
	}

	// Guardia dura: en prod nunca saltamos verificación TLS.
	if strings.EqualFold(c.App.Env, "prod") {
		c.SMTP.InsecureSkipVerify = false
	}
}

// Validate chequea valores que no tienen default razonable.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "fs", "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required for driver postgres"))
		}
	case "redis":
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			errs = append(errs, errors.New("storage.redis.addr is required for driver redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver))
	}

	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			errs = append(errs, errors.New("cache.redis.addr is required for kind redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind %q is not supported", c.Cache.Kind))
	}

	for name, v := range map[string]string{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"cache.settings.ttl":   c.Cache.Settings.TTL,
		"smtp.timeout":         c.SMTP.Timeout,
		"jwt.access_ttl":       c.JWT.AccessTTL,
		"security.csrf_ttl":    c.Security.CSRFTTL,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			errs = append(errs, fmt.Errorf("storage.postgres.conn_max_lifetime: %w", err))
		}
	}

	if len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("jwt.secret must be at least 32 characters (env JWT_SECRET)"))
	}

	for i, a := range c.Admins {
		if strings.TrimSpace(a.Email) == "" || strings.TrimSpace(a.PasswordHash) == "" {
			errs = append(errs, fmt.Errorf("admins[%d]: email and password_hash are required", i))
		}
	}

	return errors.Join(errs...)
}

// Duration parsea un campo ya validado. Devuelve 0 si está vacío.
func Duration(v string) time.Duration {
	d, _ := time.ParseDuration(strings.TrimSpace(v))
	return d
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "prod")
}
