// Package app assembles the service from configuration: sources, cache,
// reconciliation, synthesis, and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/tcastillov/futbol-data/internal/config"
	"github.com/tcastillov/futbol-data/internal/domain/snapshot"
	"github.com/tcastillov/futbol-data/internal/infrastructure/repository/postgres"
	"github.com/tcastillov/futbol-data/internal/interfaces/httpapi"
	"github.com/tcastillov/futbol-data/internal/platform/cache"
	"github.com/tcastillov/futbol-data/internal/platform/logging"
	"github.com/tcastillov/futbol-data/internal/platform/ratelimit"
	"github.com/tcastillov/futbol-data/internal/platform/resilience"
	"github.com/tcastillov/futbol-data/internal/reconcile"
	"github.com/tcastillov/futbol-data/internal/source"
	"github.com/tcastillov/futbol-data/internal/source/espn"
	"github.com/tcastillov/futbol-data/internal/source/footballdata"
	"github.com/tcastillov/futbol-data/internal/source/openfootball"
	"github.com/tcastillov/futbol-data/internal/source/worldfootball"
	"github.com/tcastillov/futbol-data/internal/usecase"
)

// NewHTTPServer wires the full dependency graph and returns the server
// plus a cleanup func releasing everything the wiring opened.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	limiters := ratelimit.NewRegistry(ratelimit.BucketConfig{
		RefillPerSecond: cfg.RateLimitPerSecond,
		Burst:           cfg.RateLimitBurst,
	}, cfg.RateLimitMaxWait)

	adapters, err := buildAdapters(cfg, limiters, logger)
	if err != nil {
		return nil, nil, err
	}

	var disk *cache.DiskTier
	if cfg.CacheEnabled {
		disk, err = cache.NewDiskTier(cfg.CacheDir, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open disk cache: %w", err)
		}
	}
	store := cache.NewStore(disk, cfg.CacheTTLs, logger)

	synth := usecase.NewSynthesizer(usecase.SynthConfig{
		Enabled:   cfg.SynthEnabled,
		MaxGoals:  cfg.SynthMaxGoals,
		SquadSize: cfg.SynthSquadSize,
		TeamCount: cfg.SynthTeamCount,
	})

	var (
		snapshots snapshot.Repository
		db        *sqlx.DB
	)
	if cfg.SnapshotEnabled {
		// Instrumented open so snapshot queries show up in the traces.
		db, err = otelsqlx.Connect("postgres", cfg.DBURL, otelsql.WithDBSystem("postgresql"))
		if err != nil {
			return nil, nil, fmt.Errorf("connect snapshot store: %w", err)
		}
		snapshots = postgres.NewSnapshotRepository(db)
	}

	policy, err := reconcile.ParsePolicy(cfg.ConflictPolicy)
	if err != nil {
		return nil, nil, err
	}

	unified := usecase.NewUnifiedDataService(adapters, store, synth, snapshots, logger, usecase.UnifiedDataConfig{
		AdapterTimeout: cfg.AdapterTimeout,
		Exhaustive:     cfg.FetchExhaustive,
		Reconcile: reconcile.Config{
			Policy:   policy,
			Priority: cfg.AdapterPriority,
		},
	})
	refresher := usecase.NewRefreshService(unified, logger, cfg.RefreshLeagues, cfg.DefaultSeason)

	handler := httpapi.NewHandler(unified, refresher, logger)
	router := httpapi.NewRouter(handler, logger, cfg.InternalToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      http.TimeoutHandler(router, cfg.RequestTimeout, "request timed out"),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	cleanup := func(context.Context) error {
		if db != nil {
			return db.Close()
		}
		return nil
	}
	return server, cleanup, nil
}

// buildAdapters instantiates every enabled source in configured priority
// order. Order matters when FETCH_EXHAUSTIVE=false: the pipeline stops at
// the first source that answers.
func buildAdapters(cfg config.Config, limiters *ratelimit.Registry, logger *logging.Logger) ([]source.Adapter, error) {
	byName := make(map[string]source.Adapter)

	if cfg.FootballDataEnabled {
		byName[footballdata.Name] = footballdata.New(footballdata.ClientConfig{
			BaseURL:    cfg.FootballDataBaseURL,
			Token:      cfg.FootballDataAPIKey,
			Timeout:    cfg.FootballDataTimeout,
			MaxRetries: cfg.FootballDataMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.FootballDataCircuitEnabled,
				FailureThreshold: cfg.FootballDataCircuitFailures,
				OpenTimeout:      cfg.FootballDataCircuitOpen,
				HalfOpenMaxReq:   cfg.FootballDataCircuitHalfOpen,
			},
		}, limiters)
	}
	if cfg.OpenFootballEnabled {
		byName[openfootball.Name] = openfootball.New(openfootball.Config{
			BaseURL:       cfg.OpenFootballBaseURL,
			DefaultSeason: cfg.DefaultSeason,
			Timeout:       cfg.OpenFootballTimeout,
			Logger:        logger,
		}, limiters)
	}
	if cfg.ESPNEnabled {
		byName[espn.Name] = espn.New(espn.Config{
			BaseURL: cfg.ESPNBaseURL,
			Timeout: cfg.ESPNTimeout,
			Logger:  logger,
		}, limiters)
	}
	if cfg.WorldFootballEnabled {
		byName[worldfootball.Name] = worldfootball.New(worldfootball.Config{
			Dir:    cfg.WorldFootballDir,
			Logger: logger,
		}, limiters)
	}

	adapters := make([]source.Adapter, 0, len(byName))
	for _, name := range cfg.AdapterPriority {
		if a, ok := byName[name]; ok {
			adapters = append(adapters, a)
			delete(byName, name)
		}
	}
	// Enabled sources missing from ADAPTER_PRIORITY still participate,
	// after the prioritized ones.
	rest := make([]string, 0, len(byName))
	for name := range byName {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		adapters = append(adapters, byName[name])
	}

	if len(adapters) == 0 && !cfg.SynthEnabled {
		return nil, fmt.Errorf("no data source is enabled and synthesis is off")
	}
	return adapters, nil
}
