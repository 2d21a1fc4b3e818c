package cmd

import (
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/auth"
)

// TokenCache wires the process-wide IAM token source. A redis URL shares
// minted tokens between processes; an empty URL keeps the in-process
// memory cache.
func TokenCache(redisURL string, logger *slog.Logger) error {
	if redisURL == "" {
		auth.SetDefaultTokenSource(auth.NewTokenMinter(logger, nil))

		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}

	cache := auth.NewRedisCache(redis.NewClient(opts), logger)
	auth.SetDefaultTokenSource(auth.NewTokenMinter(logger, cache))

	return nil
}
