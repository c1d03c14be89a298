// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"santai/config"

	"github.com/go-redis/redis/v8"
)

var (
	// EventClient publishes domain events for external consumers.
	EventClient *redis.Client
)

// InitEventClient initializes the Redis client used by the event bus publisher.
func InitEventClient() {
	EventClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisEventDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := EventClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Events): %v", err)
	}
}

// GetEventClient returns the Redis client for event publishing.
func GetEventClient() *redis.Client {
	if EventClient == nil {
		InitEventClient()
	}
	return EventClient
}
