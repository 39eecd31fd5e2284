package bootstrap

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/config"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/events"
	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
)

const redisPingTimeout = 5 * time.Second

// SetupEventPublisher creates an optional event publisher if Redis is enabled.
// Returns nil if Redis is disabled or unavailable. The returned func drains pending
// async events and then closes the client.
func SetupEventPublisher(ctx context.Context, cfg *config.Config, log infralogger.Logger) (*events.Publisher, func()) {
	noop := func() {}
	if !cfg.Redis.Enabled {
		return nil, noop
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis not available, events disabled",
			infralogger.String("redis_address", cfg.Redis.Address),
			infralogger.Error(err),
		)
		_ = client.Close()
		return nil, noop
	}

	log.Info("Event publisher initialized",
		infralogger.String("redis_address", cfg.Redis.Address),
		infralogger.String("stream", events.StreamName),
	)
	publisher := events.NewPublisher(client, log)
	return publisher, func() {
		if err := publisher.Close(context.Background()); err != nil {
			log.Warn("Pending events not flushed", infralogger.Error(err))
		}
		if err := client.Close(); err != nil {
			log.Warn("Failed to close Redis client", infralogger.Error(err))
		}
	}
}
