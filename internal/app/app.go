// Package app wires the configured services together for the HTTP server
// and the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yukikurage/workload-dashboard/internal/actionlog"
	"github.com/yukikurage/workload-dashboard/internal/cache"
	"github.com/yukikurage/workload-dashboard/internal/config"
	"github.com/yukikurage/workload-dashboard/internal/credentials"
	"github.com/yukikurage/workload-dashboard/internal/services"
	"github.com/yukikurage/workload-dashboard/internal/teams"
	"github.com/yukikurage/workload-dashboard/internal/workload"
	"github.com/yukikurage/workload-dashboard/internal/wrike"
)

type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Tokens    *wrike.TokenManager
	Client    *wrike.Client
	ActionLog *actionlog.Log
	Workload  *services.WorkloadService
	Actions   *services.ActionService

	now     func() time.Time
	closers []func() error
}

// Option customizes an App, mainly for tests.
type Option func(*App)

// WithClock replaces the wall clock used for default dates.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// New builds every component from cfg. Optional backends (Redis, AMQP) are
// only dialled when configured; a failing optional backend is an error.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	cacheStore, err := a.cacheStore(ctx)
	if err != nil {
		return nil, a.closeWith(err)
	}

	roster, err := teams.Load(cfg.TeamsFile)
	if err != nil {
		return nil, a.closeWith(err)
	}

	credStore := credentials.NewEnvFileStore(cfg.CredentialsFile)
	a.Tokens = wrike.NewTokenManager(wrike.TokenConfig{
		ClientID:     cfg.WrikeClientID,
		ClientSecret: cfg.WrikeClientSecret,
		TokenURL:     cfg.WrikeTokenURL,
		Initial:      cfg.InitialCredentials(),
		HTTPClient:   &http.Client{Timeout: cfg.HTTPTimeout},
	}, credStore, logger.With("component", "tokens"))
	if err := a.Tokens.Sync(ctx); err != nil {
		logger.Warn("could not read credentials file", "path", credStore.Path(), "error", err)
	}

	clientOpts := []wrike.Option{
		wrike.WithLogger(logger.With("component", "wrike")),
		wrike.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	}
	if cfg.WrikeBaseURL != "" {
		clientOpts = append(clientOpts, wrike.WithBaseURL(cfg.WrikeBaseURL))
	}
	if cfg.BreakerEnabled {
		clientOpts = append(clientOpts, wrike.WithBreaker(wrike.BreakerSettings{
			FailureThreshold: uint32(cfg.BreakerFailureThreshold),
			OpenTimeout:      cfg.BreakerOpenTimeout,
		}))
	}
	a.Client = wrike.NewClient(a.Tokens, clientOpts...)

	logOpts := []actionlog.Option{actionlog.WithLogger(logger.With("component", "actionlog"))}
	if cfg.AMQPURL != "" {
		sink, err := actionlog.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return nil, a.closeWith(err)
		}
		a.closers = append(a.closers, sink.Close)
		logOpts = append(logOpts, actionlog.WithSink(sink))
	}
	a.ActionLog = actionlog.New(logOpts...)

	statuses := services.NewStatusCatalog(a.Client, cacheStore, cfg.CacheTTL, logger)
	mentions := services.NewMentionResolver(a.Client, cacheStore, cfg.CacheTTL, cfg.PlanningContactID, cfg.PlanningMentionLabel, logger)

	a.Workload = services.NewWorkloadService(a.Client, statuses, roster, services.WorkloadConfig{
		FetchConcurrency: cfg.FetchConcurrency,
		Thresholds: workload.Thresholds{
			CleanupMaxHours:         cfg.CleanupMaxHours,
			StaleCleanupMaxHours:    cfg.StaleCleanupMaxHours,
			StaleAfterDays:          cfg.StaleAfterDays,
			RescheduleCapacityRatio: cfg.RescheduleCapacityRatio,
		},
	}, logger.With("component", "workload"))
	a.Actions = services.NewActionService(a.Client, a.ActionLog, mentions, cfg.CancelStatuses, logger.With("component", "actions"))

	return a, nil
}

func (a *App) cacheStore(ctx context.Context) (cache.Store, error) {
	if a.Config.RedisURL == "" {
		return cache.NewMemoryStore(), nil
	}
	store, err := cache.NewRedisStoreFromURL(ctx, a.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	a.Logger.Info("using redis cache")
	return store, nil
}

// Close releases optional backends.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) closeWith(err error) error {
	if cerr := a.Close(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}
