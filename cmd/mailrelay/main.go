package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/mailrelay/internal/config"
	v2server "github.com/dropDatabas3/mailrelay/internal/http/v2/server"
	jwtx "github.com/dropDatabas3/mailrelay/internal/jwt"
	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
	"github.com/dropDatabas3/mailrelay/internal/security/password"
)

var version = "dev"

func main() {
	// .env es opcional
	_ = godotenv.Load()

	var cfgPath string
	root := &cobra.Command{
		Use:           "mailrelay",
		Short:         "Relay SMTP configurable con superficie de admin",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", envOr("MAILRELAY_CONFIG", ""), "Ruta al config YAML (env MAILRELAY_CONFIG)")

	root.AddCommand(serveCmd(&cfgPath), hashPasswordCmd(), tokenCmd(&cfgPath))

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP de admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "mailrelay", Version: version})
			defer func() { _ = logger.Sync() }()
			log := logger.L()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := v2server.Build(ctx, cfg, v2server.Options{})
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					log.Warn("cleanup error", logger.Err(err))
				}
			}()

			srv := v2server.NewHTTPServer(cfg, app.Handler)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.S().Infof("listening on %s", cfg.Server.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				log.Info("shutting down")
				return srv.Shutdown(shCtx)
			})
			return g.Wait()
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	var plain string
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Genera un hash argon2id para admins[].password_hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			if plain == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return err
				}
				plain = strings.TrimRight(line, "\r\n")
			}
			h, err := password.Hash(password.Default, plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().StringVar(&plain, "password", "", "Password en claro (si falta se lee de stdin)")
	return cmd
}

// tokenCmd emite un access token de admin firmado con jwt.secret (scripts, CI).
func tokenCmd(cfgPath *string) *cobra.Command {
	var email string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un access token para un admin configurado",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			var found *config.Admin
			for i := range cfg.Admins {
				if strings.EqualFold(cfg.Admins[i].Email, strings.TrimSpace(email)) {
					found = &cfg.Admins[i]
					break
				}
			}
			if found == nil {
				return fmt.Errorf("admin %q no está en config", email)
			}
			if ttl <= 0 {
				ttl = config.Duration(cfg.JWT.AccessTTL)
			}
			roles := found.Roles
			if len(roles) == 0 {
				roles = []string{"admin"}
			}
			sub := found.ID
			if sub == "" {
				sub = strings.ToLower(found.Email)
			}
			iss := jwtx.NewIssuer(cfg.JWT.Issuer, cfg.JWT.Secret, ttl)
			tok, exp, err := iss.IssueAdminAccess(jwtx.AdminAccessClaims{AdminID: sub, Email: found.Email, Roles: roles})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			fmt.Fprintln(cmd.ErrOrStderr(), "expires:", exp.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email del admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Vigencia (default jwt.access_ttl)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
