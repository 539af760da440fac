package redis

import (
	"log"
	"structured-docs/internal/config"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func InitRedis() {
	client := redis.NewClient(&redis.Options{
		Addr: config.AppConfig.RedisAddress,
	})
	_, err := client.Ping(ctx()).Result()
	if err != nil {
		log.Println("Redis not available. Running without Redis.")
		redisClient = nil
		return
	}

	redisClient = client
	log.Println("Redis connected successfully.")
}

// Client returns the shared redis client, nil when redis is unavailable
func Client() *redis.Client {
	return redisClient
}
