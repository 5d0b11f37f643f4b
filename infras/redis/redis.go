package redis

import (
	"context"
	"fmt"
	"time"

	"lodge/config"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// New connects to the primary redis, which backs sessions, list caches and
// the rate limiter. Startup fails after MaxRetry unsuccessful pings.
func New(config *config.Config) *goRedis.Client {
	primary := config.Cache.Redis.Primary

	client := goRedis.NewClient(&goRedis.Options{
		Addr:     fmt.Sprintf("%s:%s", primary.Host, primary.Port),
		Password: primary.Password,
		DB:       primary.DB,
	})

	attempts := max(1, config.Cache.Redis.MaxRetry)
	wait := time.Duration(config.Cache.Redis.RetryWaitTime) * time.Second

	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err = client.Ping(context.Background()).Err(); err == nil {
			break
		}

		log.Warn().Err(err).Int("attempt", attempt).Msg("Redis not reachable yet")
		time.Sleep(wait)
	}

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	log.Info().
		Int("db", primary.DB).
		Str("host", primary.Host).
		Str("port", primary.Port).
		Msg("Connected to Redis")

	return client
}
