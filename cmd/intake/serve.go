package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"recruit-intake/internal/config"
	"recruit-intake/internal/events"
	"recruit-intake/internal/httpapi"
	"recruit-intake/internal/metrics"
	"recruit-intake/internal/scheduler"
	"recruit-intake/internal/secrets"
	"recruit-intake/internal/session"
	"recruit-intake/internal/store"
	"recruit-intake/internal/submit"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *globalOpts) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the campaign form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts.log, opts.resolveDataDir(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides app.addr)")
	return cmd
}

func runServe(ctx context.Context, log zerolog.Logger, dataDir, addrOverride string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// one server per data dir; the ledger and config file are not shared
	lock := flock.New(filepath.Join(dataDir, "intake.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	if !locked {
		return fmt.Errorf("another intake server is using %s", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	userCfgPath, err := config.EnsureUserConfig(dataDir)
	if err != nil {
		return fmt.Errorf("config bootstrap failed: %w", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		config.ApplyEnv(&cfg)
		if addrOverride != "" {
			cfg.App.Addr = addrOverride
		}
		cfg, vr := config.NormalizeAndValidate(cfg)
		for _, w := range vr.Warnings {
			log.Warn().Str("path", userCfgPath).Msg(w)
		}
		if !vr.OK() {
			return cfg, fmt.Errorf("invalid config: %s", strings.Join(vr.Errors, "; "))
		}
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "intake.db")
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer db.Close()

	client := &submit.Client{
		HTTP:    &http.Client{},
		Limiter: submit.NewHostLimiter(cfg.Webhook.RatePerSecond, cfg.Webhook.Burst),
		Resolve: func() submit.Endpoint {
			cur := cfgVal.Load().(config.Config)
			ep := submit.Endpoint{
				URL:     cur.Webhook.URL,
				Timeout: time.Duration(cur.Webhook.TimeoutSeconds) * time.Second,
			}
			tok, err := secrets.GetWebhookToken(cur.Webhook.KeyringAccount)
			switch {
			case err == nil:
				ep.Token = tok
			case !errors.Is(err, secrets.ErrNoToken):
				log.Warn().Err(err).Msg("webhook token lookup failed; sending without Authorization")
			}
			return ep
		},
	}

	hub := events.NewHub()
	var sessions *session.Store
	m := metrics.New(func() float64 { return float64(sessions.Len()) })
	wiring := httpapi.Wiring{
		Fields:  func() []config.Field { return cfgVal.Load().(config.Config).Form.Fields },
		Sender:  client,
		Hub:     hub,
		DB:      db,
		Metrics: m,
		Log:     log,
	}
	sessions = session.New(cfg.Sessions.MaxForms, time.Duration(cfg.Sessions.TTLMinutes)*time.Minute, wiring.Factory())
	defer sessions.Stop()

	handler := httpapi.NewRouter(httpapi.Deps{
		DB:          db,
		Hub:         hub,
		Sessions:    sessions,
		Metrics:     m,
		Log:         log,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
	})

	ln, err := net.Listen("tcp", cfg.App.Addr)
	if err != nil {
		return err
	}
	log.Info().
		Str("addr", "http://"+ln.Addr().String()).
		Str("db", dbPath).
		Str("config", userCfgPath).
		Msg("intake listening")

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})
	if cfg.Ledger.RetentionDays > 0 {
		g.Go(func() error {
			scheduler.Every(gctx, log, time.Duration(cfg.Ledger.PruneMinutes)*time.Minute, "ledger_prune", pruneLedger(db, &cfgVal, log))
			return nil
		})
	}
	return g.Wait()
}

func pruneLedger(db *store.DB, cfgVal *atomic.Value, log zerolog.Logger) scheduler.Task {
	return func(ctx context.Context) error {
		days := cfgVal.Load().(config.Config).Ledger.RetentionDays
		if days <= 0 {
			return nil
		}
		n, err := db.PruneBefore(ctx, time.Now().AddDate(0, 0, -days))
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info().Int64("deleted", n).Int("retention_days", days).Msg("ledger pruned")
		}
		return nil
	}
}
