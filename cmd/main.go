// Command bloom-agent is a headless consumer of the sync layer: it signs in
// (or restores a persisted session), keeps the activity and metrics caches
// fresh on an interval, and exports the user's wellness metrics plus the
// client's operational counters on a Prometheus endpoint.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	app "github.com/bloomwell/bloom/internal/app"
	"github.com/bloomwell/bloom/internal/config"
	"github.com/bloomwell/bloom/internal/domain/scoring"
	"github.com/bloomwell/bloom/pkg/logger"
	"github.com/bloomwell/bloom/pkg/metrics"
)

// errNoCredentials means neither a persisted session nor configured
// credentials are available.
var errNoCredentials = errors.New("no persisted session and no email/password configured")

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	// Local overrides for development; a missing .env is fine.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithBaseURL(cfg.BaseURL),
		app.WithAPIKey(cfg.APIKey),
		app.WithSessionPath(cfg.SessionPath),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	if err := signIn(ctx, svc, cfg); err != nil {
		log.Error(ctx, "sign-in failed", logger.Error(err))
		return
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, log, cfg.MetricsAddr)
	}

	runSyncLoop(ctx, svc, log, time.Duration(cfg.SyncIntervalS)*time.Second)

	log.Info(ctx, "agent stopped")
}

// signIn authenticates with configured credentials unless a restored
// session already covers us.
func signIn(ctx context.Context, svc *app.Service, cfg *config.Config) error {
	if _, ok := svc.Auth().User(); ok {
		return nil
	}
	if cfg.Email == "" || cfg.Password == "" {
		return errNoCredentials
	}
	return svc.Auth().SignIn(ctx, cfg.Email, cfg.Password)
}

// runSyncLoop refreshes the caches on the interval until ctx is done. An
// immediate first sync runs before the first tick.
func runSyncLoop(ctx context.Context, svc *app.Service, log logger.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	syncOnce(ctx, svc, log)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncOnce(ctx, svc, log)
		}
	}
}

// syncOnce refreshes both caches and exports the wellness gauges. Failures
// are logged and left for the next tick; there is no retry.
func syncOnce(ctx context.Context, svc *app.Service, log logger.Logger) {
	if err := svc.Metrics().Refresh(ctx); err != nil {
		log.Warn(ctx, "metrics refresh failed", logger.Error(err))
	} else if m, ok := svc.Metrics().Metrics(); ok {
		metrics.UpdateWellness(m.StressLevel, m.FocusScore, m.ActivityScore, m.HeartRate)
		cat := scoring.Categorize(m.StressLevel)
		log.Info(ctx, "metrics synced",
			logger.Int("stressLevel", m.StressLevel),
			logger.String("stressCategory", cat.Label),
			logger.Int("focusScore", m.FocusScore),
		)
	}

	if err := svc.Activities().Refresh(ctx); err != nil {
		log.Warn(ctx, "activities refresh failed", logger.Error(err))
		return
	}
	log.Info(ctx, "activities synced", logger.Int("count", len(svc.Activities().Activities())))
}

// serveMetrics exposes the Prometheus registry until ctx is done.
func serveMetrics(ctx context.Context, log logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "metrics exporter listening", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error(ctx, "metrics exporter failed", logger.Error(err))
	}
}
