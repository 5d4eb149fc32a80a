package main

import (
	"context"
	"log"
	"os"

	"campusjobs/common/cache"
	"campusjobs/common/cache/memory"
	rediscache "campusjobs/common/cache/redis"
	"campusjobs/common/telemetry"
	"campusjobs/services/jobboard/internal/api"
	"campusjobs/services/jobboard/internal/batch"
	"campusjobs/services/jobboard/internal/config"
	"campusjobs/services/jobboard/internal/console"
	"campusjobs/services/jobboard/internal/errors"
	"campusjobs/services/jobboard/internal/messaging"
	"campusjobs/services/jobboard/internal/query"
	"campusjobs/services/jobboard/internal/savedfilters"
	"campusjobs/services/jobboard/internal/store"
	"campusjobs/services/jobboard/internal/view"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const (
	serviceName    = "jobboard"
	serviceVersion = "0.1.0"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogDevelopment {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newRedisClient returns nil when neither the cache nor saved filters live in
// Redis.
func newRedisClient(lc fx.Lifecycle, cfg *config.Config) *redis.Client {
	if cfg.CacheBackend != cache.BackendRedis && cfg.SavedFiltersBackend != "redis" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

func newCache(lc fx.Lifecycle, cfg *config.Config, client *redis.Client) cache.Cache {
	var c cache.Cache
	if cfg.CacheBackend == cache.BackendRedis {
		c = rediscache.NewWithClient(client, cfg.CacheTTL)
	} else {
		c = memory.New(cache.Options{
			Backend:         cache.BackendMemory,
			DefaultTTL:      cfg.CacheTTL,
			CleanupInterval: cfg.CacheCleanupInterval,
		})
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return c.Close() },
	})
	return c
}

func newSavedFilterRepository(cfg *config.Config, client *redis.Client, logger *zap.Logger) store.SavedFilterRepository {
	var backend savedfilters.Backend
	if cfg.SavedFiltersBackend == "redis" {
		backend = savedfilters.NewRedisBackend(client)
	} else {
		backend = savedfilters.NewFileBackend(cfg.SavedFiltersDir)
	}
	return savedfilters.NewRepository(backend, logger)
}

func newPublisher(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (messaging.Publisher, error) {
	publisher, err := messaging.NewPublisher(logger, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			publisher.Close()
			return nil
		},
	})
	return publisher, nil
}

func newConsole(controller *view.Controller, s *store.Store, adapter *query.Adapter, dispatcher *batch.Dispatcher, logger *zap.Logger) *console.Console {
	return console.New(os.Stdin, os.Stdout, controller, s, adapter, dispatcher, logger)
}

func registerTracing(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) {
	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.InitTracer(ctx, serviceName, serviceVersion, cfg.OTELCollectorURL)
			if err != nil {
				return err
			}
			if cfg.OTELCollectorURL != "" {
				logger.Info("tracing enabled", zap.String("collector", cfg.OTELCollectorURL))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}

func registerConsole(lc fx.Lifecycle, shutdowner fx.Shutdowner, con *console.Console, s *store.Store, controller *view.Controller, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			if err := s.LoadSavedFilters(startCtx); err != nil {
				logger.Warn("saved filters unavailable", zap.Error(err))
				controller.Notify(errors.UserMessage(err))
			}
			go func() {
				if err := con.Run(ctx); err != nil {
					logger.Error("console stopped", zap.Error(err))
				}
				if err := shutdowner.Shutdown(); err != nil {
					logger.Error("failed to request shutdown", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			controller.Stop()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newRedisClient,
			newCache,
			newSavedFilterRepository,
			newPublisher,
			api.NewJobsClient,
			store.New,
			query.NewAdapter,
			batch.NewDispatcher,
			view.NewController,
			newConsole,
		),
		fx.Invoke(
			registerTracing,
			registerConsole,
		),
	)

	startCtx := context.Background()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	<-app.Done()

	stopCtx := context.Background()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
