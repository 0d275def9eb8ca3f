package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/motherlink"
	"github.com/aretw0/motherlink/internal/config"
	"github.com/aretw0/motherlink/internal/metrics"
	"github.com/aretw0/motherlink/pkg/adapters/backend"
	"github.com/aretw0/motherlink/pkg/adapters/memory"
	"github.com/aretw0/motherlink/pkg/adapters/openai"
	"github.com/aretw0/motherlink/pkg/adapters/redis"
	"github.com/aretw0/motherlink/pkg/adapters/sms"
	"github.com/aretw0/motherlink/pkg/adapters/sqlite"
	"github.com/aretw0/motherlink/pkg/persistence/middleware"
	"github.com/aretw0/motherlink/pkg/ports"
)

// app is a wired service plus everything that must be released with it.
type app struct {
	service *motherlink.Service
	metrics *metrics.Metrics
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// buildOptions tweak the wiring for commands that must not reach shared
// infrastructure.
type buildOptions struct {
	inMemory bool
	logSMS   bool
}

// buildApp wires the service from configuration.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, bo buildOptions) (*app, error) {
	a := &app{metrics: metrics.New(metrics.WithRuntimeCollectors(), metrics.WithLogger(logger))}

	locale, err := cfg.Locale()
	if err != nil {
		return nil, err
	}

	opts := []motherlink.Option{
		motherlink.WithLogger(logger),
		motherlink.WithDefaultLocale(locale),
		motherlink.WithHandlerTimeout(cfg.HandlerTimeout),
		motherlink.WithIdleTimeout(cfg.SessionIdleTimeout),
		motherlink.WithRescueTeam(cfg.RescueTeam...),
		motherlink.WithLifecycleHooks(a.metrics.Hooks()),
		motherlink.WithEvictionCallback(a.metrics.OnEvict),
	}

	var sessionMW []middleware.Middleware
	if cfg.SessionEncryptionKey != "" {
		keys, err := middleware.ParseKeys(cfg.SessionEncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("session encryption: %w", err)
		}
		sessionMW = append(sessionMW, middleware.NewEncryptionMiddleware(keys))
		logger.Info("Session encryption enabled", "fallback_keys", len(keys.FallbackKeys))
	}

	switch {
	case cfg.Redis.Addr != "" && !bo.inMemory:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithTTL(cfg.SessionIdleTimeout))
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		a.closers = append(a.closers, store.Close)
		opts = append(opts,
			motherlink.WithStore(middleware.Chain(store, sessionMW...)),
			motherlink.WithLocker(redis.NewLocker(store.Client(), "motherlink:lock:")),
		)
		logger.Info("Using Redis session store", "addr", cfg.Redis.Addr)
	default:
		opts = append(opts, motherlink.WithStore(middleware.Chain(memory.NewStore(), sessionMW...)))
	}

	api := backend.New(cfg.BackendURL, backend.WithTimeout(cfg.BackendTimeout), backend.WithLogger(logger))
	var users ports.UserRegistry = api
	if cfg.UserStore == config.UserStoreSQLite {
		db, err := sqlite.Open(cfg.DatabasePath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		users = db
		logger.Info("Using SQLite user store", "path", cfg.DatabasePath)
	}
	opts = append(opts, motherlink.WithUsers(users), motherlink.WithEmergencies(api))

	var notifier ports.Notifier
	if cfg.SMS.APIKey == "" || bo.logSMS {
		notifier = sms.NewLogNotifier(logger)
	} else {
		notifier = sms.New(sms.Config{
			URL:      cfg.SMS.URL,
			APIKey:   cfg.SMS.APIKey,
			Username: cfg.SMS.Username,
			SenderID: cfg.SMS.SenderID,
		}, sms.WithLogger(logger))
	}
	opts = append(opts, motherlink.WithNotifier(notifier))

	guidance := openai.New(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
	}, openai.WithLogger(logger))
	if !guidance.Configured() {
		logger.Warn("OPENAI_API_KEY not set, guidance falls back to default tips")
	}
	opts = append(opts, motherlink.WithGuidance(guidance))

	svc, err := motherlink.New(opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = svc
	return a, nil
}
