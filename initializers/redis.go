package initializers

import (
	"context"
	"fmt"
	"time"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/go-redis/redis/v8"
)

// ConnectToRedis parses url and checks the server answers. An empty url means
// Redis is not configured and yields a nil client.
func ConnectToRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, configError("invalid redis URL: "+err.Error(), models.ErrInvalidConfiguration)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
