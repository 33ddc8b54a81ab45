// Package app wires configuration into the running front door: token store
// and cache, sinks, admission pipelines and the HTTP server.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/akave-ai/logwatch/internal/admission"
	"github.com/akave-ai/logwatch/internal/config"
	"github.com/akave-ai/logwatch/internal/database"
	"github.com/akave-ai/logwatch/internal/handler"
	"github.com/akave-ai/logwatch/internal/infrastructure/sinks"
	_ "github.com/akave-ai/logwatch/internal/infrastructure/sinks/kafkasink"
	_ "github.com/akave-ai/logwatch/internal/infrastructure/sinks/lambdasink"
	_ "github.com/akave-ai/logwatch/internal/infrastructure/sinks/natssink"
	_ "github.com/akave-ai/logwatch/internal/infrastructure/sinks/objectsink"
	_ "github.com/akave-ai/logwatch/internal/infrastructure/sinks/searchsink"
	"github.com/akave-ai/logwatch/internal/repository"
	"github.com/akave-ai/logwatch/internal/schema"
	"github.com/akave-ai/logwatch/internal/server"
	"github.com/akave-ai/logwatch/internal/token"
)

const newRelicShutdownTimeout = 5 * time.Second

type closer struct {
	name string
	fn   func() error
}

// App owns every process-wide resource. Resources are created once in New
// and released in reverse order by Close.
type App struct {
	Config *config.Config
	Server *server.Server

	logger   zerolog.Logger
	registry *sinks.Registry
	closers  []closer
}

// New builds the application from cfg. On error everything opened so far is
// closed again.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	return newWithRegistry(ctx, cfg, logger, sinks.GlobalRegistry)
}

func newWithRegistry(ctx context.Context, cfg *config.Config, logger zerolog.Logger, registry *sinks.Registry) (*App, error) {
	a := &App{Config: cfg, logger: logger, registry: registry}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config
	health := map[string]handler.HealthCheck{}

	nrApp, err := a.newRelic()
	if err != nil {
		return err
	}

	resolver, err := a.tokenResolver(ctx, nrApp != nil, health)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Logger:      a.logger,
		Registry:    a.registry,
		ActiveSinks: map[string]string{},
		Health:      health,
		NewRelic:    nrApp,
	}
	if resolver != nil {
		deps.Revoker = resolver
	}

	a.logger.Debug().Strs("sink_types", a.registry.ListRegistered()).Msg("sink types registered")

	validator := schema.New()
	if cfg.Ingest.Enabled {
		p, err := a.pipeline(ctx, "ingest", sinks.Durable, cfg.Ingest, validator, resolver)
		if err != nil {
			return err
		}
		deps.Ingest = p
		deps.ActiveSinks["ingest"] = cfg.Ingest.Sink
	}
	if cfg.Entrypoint.Enabled {
		p, err := a.pipeline(ctx, "entrypoint", sinks.Dispatch, cfg.Entrypoint, validator, resolver)
		if err != nil {
			return err
		}
		deps.Entrypoint = p
		deps.ActiveSinks["entrypoint"] = cfg.Entrypoint.Sink
	}

	a.Server = server.New(cfg, deps)
	return nil
}

func (a *App) newRelic() (*newrelic.Application, error) {
	obs := a.Config.Observability
	if !obs.NewRelicEnabled() {
		return nil, nil
	}
	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(obs.ServiceName),
		newrelic.ConfigLicense(obs.NewRelic.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(obs.NewRelic.DistributedTracingEnabled),
		newrelic.ConfigAppLogForwardingEnabled(obs.NewRelic.AppLogForwardingEnabled),
	)
	if err != nil {
		return nil, fmt.Errorf("new relic: %w", err)
	}
	a.onClose("newrelic", func() error {
		nrApp.Shutdown(newRelicShutdownTimeout)
		return nil
	})
	a.logger.Info().Msg("new relic agent started")
	return nrApp, nil
}

// tokenResolver opens the credential store and cache. It returns nil when no
// store is configured.
func (a *App) tokenResolver(ctx context.Context, newRelic bool, health map[string]handler.HealthCheck) (*token.Resolver, error) {
	cfg := a.Config
	var store token.Store

	switch cfg.Token.Store {
	case "":
		if cfg.RequiresTokens() {
			return nil, fmt.Errorf("token store is required")
		}
		return nil, nil
	case "postgres":
		if cfg.Database.Migrate {
			if err := database.RunMigrations(ctx, cfg.Database); err != nil {
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		pool, err := database.NewPool(ctx, cfg.Database, database.PoolOptions{
			Logger:   a.logger.With().Str("component", "postgres").Logger(),
			NewRelic: newRelic,
		})
		if err != nil {
			return nil, fmt.Errorf("database pool: %w", err)
		}
		a.onClose("postgres", func() error { pool.Close(); return nil })
		health["postgres"] = pool.Ping
		store = repository.NewTokenRepository(pool)
	case "mysql":
		db, err := database.OpenMySQL(ctx, cfg.MySQL)
		if err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		a.onClose("mysql", db.Close)
		health["mysql"] = db.PingContext
		store = repository.NewMySQLTokenRepository(db)
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.Token.Store)
	}

	cache, err := token.NewCache(ctx, token.CacheConfig{
		Backend: cfg.Token.Cache,
		Size:    cfg.Token.CacheSize,
		TTL:     cfg.Token.CacheTTL,
		Dir:     cfg.Token.CacheDir,
		Redis: token.RedisConfig{
			URL:    cfg.Redis.URL,
			Prefix: cfg.Redis.Prefix,
			TTL:    cfg.Token.CacheTTL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("token cache: %w", err)
	}
	if cache != nil {
		a.onClose("token cache", cache.Close)
	}

	a.logger.Info().
		Str("store", cfg.Token.Store).
		Str("cache", cfg.Token.Cache).
		Dur("cache_ttl", cfg.Token.CacheTTL).
		Msg("token resolver ready")
	return token.NewResolver(store, cache,
		token.WithTimeout(cfg.Token.Timeout),
		token.WithLogger(a.logger.With().Str("component", "token").Logger()),
	), nil
}

func (a *App) pipeline(
	ctx context.Context,
	variant string,
	mode sinks.Mode,
	vc config.VariantConfig,
	validator *schema.Validator,
	resolver *token.Resolver,
) (*admission.Pipeline, error) {
	// Each route validates against the schema profile of the same name.
	profile, err := schema.ParseProfile(variant)
	if err != nil {
		return nil, err
	}
	if _, ok := a.registry.GetTypeInfo(vc.Sink); !ok {
		return nil, fmt.Errorf("%s sink: unknown sink type %q (available: %s)",
			variant, vc.Sink, strings.Join(a.registry.ListRegistered(), ", "))
	}
	sink, err := a.registry.Create(ctx, vc.Sink, sinks.Config(a.Config.SinkConfig(vc.Sink)))
	if err != nil {
		return nil, fmt.Errorf("%s sink: %w", variant, err)
	}
	a.onClose(variant+" sink", sink.Close)
	if sink.Mode() != mode {
		return nil, fmt.Errorf("%s sink: %q is a %s sink, %s requires %s", variant, vc.Sink, sink.Mode(), variant, mode)
	}

	opts := admission.Options{
		Variant:      variant,
		Profile:      profile,
		Validator:    validator,
		Sink:         sink,
		Timeout:      vc.Timeout,
		MaxBodyBytes: a.Config.Server.MaxBodyBytes,
		Logger:       a.logger.With().Str("component", "admission").Logger(),
	}
	if vc.RequireToken {
		if resolver == nil {
			return nil, fmt.Errorf("%s requires a token store", variant)
		}
		opts.Resolver = resolver
	}

	a.logger.Info().
		Str("variant", variant).
		Str("sink", vc.Sink).
		Bool("require_token", vc.RequireToken).
		Msg("admission route enabled")
	return admission.New(opts)
}

func (a *App) onClose(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.Server.Start(ctx)
}

// Close releases resources in reverse creation order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.logger.Error().Err(err).Str("resource", c.name).Msg("close failed")
		}
	}
	a.closers = nil
}
