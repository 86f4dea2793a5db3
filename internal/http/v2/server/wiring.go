// Package server construye el handler HTTP con todas las dependencias ya
// conectadas a partir de la config.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/mailrelay/internal/cache"
	"github.com/dropDatabas3/mailrelay/internal/config"
	"github.com/dropDatabas3/mailrelay/internal/email"
	adminctrl "github.com/dropDatabas3/mailrelay/internal/http/v2/controllers/admin"
	healthctrl "github.com/dropDatabas3/mailrelay/internal/http/v2/controllers/health"
	"github.com/dropDatabas3/mailrelay/internal/http/v2/router"
	adminsvc "github.com/dropDatabas3/mailrelay/internal/http/v2/services/admin"
	healthsvc "github.com/dropDatabas3/mailrelay/internal/http/v2/services/health"
	jwtx "github.com/dropDatabas3/mailrelay/internal/jwt"
	"github.com/dropDatabas3/mailrelay/internal/metrics"
	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
	"github.com/dropDatabas3/mailrelay/internal/security/csrf"
	"github.com/dropDatabas3/mailrelay/internal/security/secretbox"
	"github.com/dropDatabas3/mailrelay/internal/settings"
	"github.com/dropDatabas3/mailrelay/internal/store"
)

// App agrupa lo construido por Build. Mailer queda expuesto para que el
// host lo use en sus propios envíos.
type App struct {
	Handler  http.Handler
	Mailer   *email.Mailer
	Settings *settings.Store
	Issuer   *jwtx.Issuer

	cleanup []func() error
}

// Close libera store y cache en orden inverso.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options permite inyectar dependencias en tests.
type Options struct {
	// Registerer para métricas. nil = prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
	// Deliverer reemplaza al SMTPDeliverer.
	Deliverer email.Deliverer
}

// Build arma store, cache, mailer, servicios y router.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.From(ctx).With(logger.Layer("server"), logger.Op("Build"))
	app := &App{}
	fail := func(err error) (*App, error) {
		_ = app.Close()
		return nil, err
	}

	// 1. Options store
	scfg := store.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		FSRoot: cfg.Storage.FSRoot,
	}
	scfg.Postgres.MaxConns = cfg.Storage.Postgres.MaxConns
	scfg.Postgres.ConnMaxLifetime = config.Duration(cfg.Storage.Postgres.ConnMaxLifetime)
	scfg.Redis.Addr = cfg.Storage.Redis.Addr
	scfg.Redis.Password = cfg.Storage.Redis.Password
	scfg.Redis.DB = cfg.Storage.Redis.DB
	scfg.Redis.Prefix = cfg.Storage.Redis.Prefix

	opt, err := store.Open(ctx, scfg)
	if err != nil {
		return fail(fmt.Errorf("open options store: %w", err))
	}
	app.cleanup = append(app.cleanup, opt.Close)

	// 2. Cache
	cc, err := cache.New(ctx, cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return fail(fmt.Errorf("open cache: %w", err))
	}
	app.cleanup = append(app.cleanup, cc.Close)

	// 3. Secretbox (opcional)
	var box *secretbox.Box
	if k := strings.TrimSpace(cfg.Security.SecretBoxMasterKey); k != "" {
		if box, err = secretbox.New(k); err != nil {
			return fail(fmt.Errorf("secretbox: %w", err))
		}
	} else {
		log.Warn("secretbox_master_key not set: smtp password stored without encryption")
	}

	// 4. Settings store
	app.Settings = settings.NewStore(settings.Deps{
		Options:  opt,
		Identity: settings.Identity{AdminEmail: cfg.Site.AdminEmail, SiteName: cfg.Site.Name},
		Cache:    cc,
		CacheTTL: config.Duration(cfg.Cache.Settings.TTL),
		Box:      box,
	})

	// 5. Mailer: applicator + observers
	deliverer := opts.Deliverer
	if deliverer == nil {
		deliverer = &email.SMTPDeliverer{
			Timeout:            config.Duration(cfg.SMTP.Timeout),
			LocalName:          cfg.SMTP.LocalName,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		}
	}
	app.Mailer = email.NewMailer(deliverer)
	app.Mailer.AddHook(email.NewApplicator(app.Settings))
	app.Mailer.AddObserver(email.NewDebugObserver(app.Settings, logger.Named("mail")))
	app.Mailer.AddObserver(metrics.MailObserver{})

	// 6. Auth
	app.Issuer = jwtx.NewIssuer(cfg.JWT.Issuer, cfg.JWT.Secret, config.Duration(cfg.JWT.AccessTTL))
	csrfTTL := config.Duration(cfg.Security.CSRFTTL)
	csrfManager := csrf.NewManager(cc, csrfTTL)

	// 7. Services + controllers
	settingsSvc := adminsvc.NewSettingsService(app.Settings)
	mailingSvc := adminsvc.NewMailingService(adminsvc.MailingDeps{
		CSRF:     csrfManager,
		Mailer:   app.Mailer,
		Settings: app.Settings,
		SiteName: cfg.Site.Name,
	})
	authSvc := adminsvc.NewAuthService(cfg.Admins, app.Issuer, csrfManager, csrfTTL)
	healthSvc := healthsvc.NewHealthService(healthsvc.Deps{
		Components: map[string]healthsvc.Pinger{
			"options_store": opt,
			"cache":         cc,
		},
	})

	metricsHandler, err := metrics.Register(opts.Registerer)
	if err != nil {
		return fail(fmt.Errorf("register metrics: %w", err))
	}

	app.Handler = router.New(router.Deps{
		Issuer:         app.Issuer,
		CSRF:           csrfManager,
		Auth:           adminctrl.NewAuthController(authSvc),
		Settings:       adminctrl.NewSettingsController(settingsSvc),
		Mailing:        adminctrl.NewMailingController(mailingSvc),
		Health:         healthctrl.NewHealthController(healthSvc),
		MetricsHandler: metricsHandler,
	})

	if len(cfg.Admins) == 0 {
		log.Warn("no admins configured: admin endpoints will reject every login")
	}
	log.Info("http handler built",
		logger.String("storage_driver", cfg.Storage.Driver),
		logger.String("cache_kind", cfg.Cache.Kind),
	)
	return app, nil
}

// NewHTTPServer crea el *http.Server con los timeouts de config.
func NewHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h,
		ReadTimeout:       config.Duration(cfg.Server.ReadTimeout),
		ReadHeaderTimeout: config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout:      config.Duration(cfg.Server.WriteTimeout),
	}
}
