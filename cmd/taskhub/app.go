package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskhub/internal/api"
	"github.com/p-blackswan/taskhub/internal/chat"
	"github.com/p-blackswan/taskhub/internal/config"
	"github.com/p-blackswan/taskhub/internal/health"
	"github.com/p-blackswan/taskhub/internal/httpclient"
	"github.com/p-blackswan/taskhub/internal/metrics"
	"github.com/p-blackswan/taskhub/internal/notify"
	"github.com/p-blackswan/taskhub/internal/resource"
	"github.com/p-blackswan/taskhub/internal/session"
	"github.com/p-blackswan/taskhub/internal/store"
)

// errRedirected means the route guard sent the user elsewhere.
var errRedirected = errors.New("redirected")

// App is the wiring shared by every command. It is built lazily on the first
// command so flags and environment are in place.
type App struct {
	cfg    *config.Config
	logger zerolog.Logger
	out    io.Writer
	errOut io.Writer

	JSON bool

	ready     bool
	metrics   *metrics.Metrics
	store     *store.Store
	session   *session.Session
	client    *httpclient.Client
	services  *api.Services
	notifier  notify.Notifier
	chat      *chat.Manager
	checker   *health.Checker
	metricSrv *http.Server
}

// NewApp creates an App. A nil cfg is loaded from the environment on first use.
func NewApp(cfg *config.Config, logger zerolog.Logger, out, errOut io.Writer) *App {
	return &App{cfg: cfg, logger: logger, out: out, errOut: errOut}
}

func (a *App) init(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if a.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if a.cfg.IsDevelopment() && a.errOut == os.Stderr {
		a.logger = a.logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if level, err := zerolog.ParseLevel(a.cfg.LogLevel); err == nil {
		a.logger = a.logger.Level(level)
	}

	a.metrics = metrics.New()

	st, err := store.New(a.cfg.StatePath, a.logger)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	a.store = st

	nav := session.NavigatorFunc(func(route string) {
		fmt.Fprintf(a.errOut, "→ %s\n", route)
	})
	a.session = session.New(st, nav, a.cfg.LoginRoute, a.logger)
	if err := a.session.Restore(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("could not restore session")
	}

	a.notifier = notify.WithMetrics(notify.Multi{
		notify.NewConsole(a.errOut, a.session.Theme()),
		notify.NewLog(a.logger),
	}, a.metrics)

	a.client = httpclient.New(a.cfg.APIBaseURL, a.session, a.cfg.RequestTimeout, a.metrics, a.logger)
	a.services = api.NewServices(a.client, a.session, a.logger)

	a.chat = chat.NewManager(chat.Config{
		URL:               a.cfg.WSURL,
		Topic:             a.cfg.ChatTopic,
		Destination:       a.cfg.ChatDestination,
		Heartbeat:         a.cfg.ChatHeartbeat,
		ReconnectDelay:    a.cfg.ChatReconnectDelay,
		MaxReconnectDelay: a.cfg.ChatMaxReconnectDelay,
	}, a.session, a.metrics, a.logger)

	a.checker = health.NewChecker(a.logger)
	a.checker.Register("api", health.APICheck(a.cfg.APIBaseURL, &http.Client{Timeout: 5 * time.Second}))
	a.checker.Register("chat", health.ChatCheck(a.chat))

	if a.cfg.MetricsAddr != "" {
		a.serveMetrics()
	}

	a.logger.Debug().
		Str("environment", a.cfg.Environment).
		Str("api", a.cfg.APIBaseURL).
		Str("ws", a.cfg.WSURL).
		Bool("authenticated", a.session.Authenticated()).
		Msg("taskhub client ready")
	a.ready = true
	return nil
}

func (a *App) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/health", health.LivenessHandler())
	mux.HandleFunc("/ready", a.checker.ReadinessHandler())

	a.metricSrv = &http.Server{
		Addr:         a.cfg.MetricsAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		a.logger.Info().Str("addr", a.cfg.MetricsAddr).Msg("metrics server starting")
		if err := a.metricSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}

// Close releases everything init acquired. Safe to call more than once.
func (a *App) Close() {
	if !a.ready {
		return
	}
	a.ready = false
	a.chat.Close()
	if a.metricSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.metricSrv.Shutdown(ctx)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("closing state store")
	}
}

// enter applies the route guard. Anything but the requested route is a redirect.
func (a *App) enter(route string) error {
	target := a.session.Guard(route)
	if target == route {
		return nil
	}
	a.session.Navigate(target)
	return fmt.Errorf("%w to %s", errRedirected, target)
}

func (a *App) deps() resource.Deps {
	return resource.Deps{Notifier: a.notifier, Logger: a.logger, Metrics: a.metrics}
}
