package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/edgeboard/internal/cache"
	"github.com/yourusername/edgeboard/internal/config"
	"github.com/yourusername/edgeboard/internal/consensus"
	"github.com/yourusername/edgeboard/internal/database"
	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/health"
	applogger "github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/repository"
	"github.com/yourusername/edgeboard/internal/service"
	"github.com/yourusername/edgeboard/internal/source"
	"github.com/yourusername/edgeboard/internal/stream"
)

// app holds the wired dependencies shared by the subcommands
type app struct {
	sports    []models.Sport
	db        *database.DB
	http      *source.RateLimitedHTTPClient
	redis     *cache.RedisRowStore
	cache     *cache.IndexCache
	hub       *stream.Hub
	repos     *repository.Repositories
	indexes   *service.IndexService
	boards    *service.BoardService
	consensus *service.ConsensusService
}

func buildApp(ctx context.Context, withHub bool) (*app, error) {
	a := &app{}

	for _, name := range cfg.Sports.Enabled {
		sport, err := edge.ParseSport(name)
		if err != nil {
			return nil, err
		}
		a.sports = append(a.sports, sport)
	}

	tables := func(sport models.Sport) repository.Tables {
		t := cfg.TablesFor(string(sport))
		return repository.Tables{Games: t.Games, Predictions: t.Predictions, Accuracy: t.Accuracy}
	}

	switch cfg.Source.Kind {
	case config.SourceREST:
		a.http = source.NewRateLimitedHTTPClient(source.HTTPClientConfig{
			Timeout:           cfg.SourceTimeout(),
			MaxRetries:        cfg.Source.RetryAttempts,
			RetryWaitMin:      source.DefaultHTTPClientConfig().RetryWaitMin,
			RetryWaitMax:      source.DefaultHTTPClientConfig().RetryWaitMax,
			RateLimit:         cfg.Source.RequestsPerSecond,
			Burst:             cfg.Source.Burst,
			CircuitBreakerMax: cfg.Source.BreakerThreshold,
			BreakerCooldown:   cfg.BreakerCooldown(),
		}, applogger.NewSourceLogger(logger))

		client, err := source.NewClient(cfg.Source.URL, cfg.Source.APIKey, a.http, tables, applogger.NewSourceLogger(logger))
		if err != nil {
			return nil, err
		}
		a.repos = client.Repositories()
	default:
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
		repos, err := repository.NewRepositories(db, tables)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.repos = repos
	}

	var rows cache.RowStore
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.redis = cache.NewRedisRowStore(client, cfg.Redis.KeyPrefix, cfg.SnapshotTTL())
		if err := a.redis.Ping(ctx); err != nil {
			logger.WithError(err).Warn("Redis unavailable, indexes will be read from the backend")
		}
		rows = a.redis
	}

	var publisher service.RefreshPublisher
	if withHub {
		a.hub = stream.NewHub(logger, cfg.API.CORSOrigins)
		publisher = a.hub
	}

	a.cache = cache.NewIndexCache(cfg.CacheTTL())
	edgeLogger := applogger.NewEdgeLogger(logger)

	indexes, err := service.NewIndexService(service.IndexServiceConfig{
		Accuracy:  a.repos.Accuracy,
		Rows:      rows,
		Cache:     a.cache,
		Publisher: publisher,
		Logger:    edgeLogger,
		Origin:    cfg.Source.Kind,
		Sports:    a.sports,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.indexes = indexes
	a.boards = service.NewBoardService(a.repos.Games, a.repos.Predictions, indexes, edgeLogger)

	weighting, err := consensus.ParseWeighting(cfg.Consensus.Weighting)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.consensus = service.NewConsensusService(weighting, applogger.NewConsensusLogger(logger))

	return a, nil
}

// healthChecks returns a pinger per configured dependency
func (a *app) healthChecks() map[string]health.Pinger {
	checks := make(map[string]health.Pinger)
	if a.db != nil {
		checks["database"] = a.db
	}
	if a.redis != nil {
		checks["redis"] = a.redis
	}
	if a.http != nil {
		checks["source"] = health.PingFunc(func(context.Context) error {
			if a.http.IsOpen() {
				return source.ErrSourceUnavailable
			}
			return nil
		})
	}
	return checks
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.http != nil {
		a.http.Close()
	}
}

func sportNames(sports []models.Sport) string {
	names := make([]string, len(sports))
	for i, s := range sports {
		names[i] = string(s)
	}
	return strings.Join(names, ",")
}
