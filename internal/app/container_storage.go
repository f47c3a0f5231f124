package app

import (
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"tracknow/internal/cache"
	"tracknow/internal/config"
	"tracknow/internal/repository"
)

func registerStorage(container *dig.Container) error {
	return provideAll(container,
		repository.NewOrderRepo,
		repository.NewUserRepo,
		repository.NewLocationRepo,
		repository.NewRatingRepo,
		repository.NewNotificationRepo,
		repository.NewReportRepo,
		newRedisClient,
		newCacheStore,
	)
}

// newRedisClient returns nil when Redis is disabled; consumers fall back to
// in-process delivery and an uncached report.
func newRedisClient(cfg *config.Config) *goredis.Client {
	if !cfg.Redis.Enabled || cfg.Redis.Addr == "" {
		return nil
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func newCacheStore(cfg *config.Config, client *goredis.Client) cache.Store {
	if client == nil {
		return cache.Noop{}
	}
	return cache.NewRedis(client, cfg.Report.CacheTTL)
}
