package db

import (
	"context"
	"fmt"
	"time"

	"Vibe/config"
	"Vibe/logger"

	"github.com/go-redis/redis/v8"
)

// RedisClient backs the liked-id cache.
var RedisClient *redis.Client

func redisOptions(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
}

// ConnectRedis creates the client and pings it.
func ConnectRedis(cfg *config.Config) error {
	client := redis.NewClient(redisOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("ping redis %s: %w", cfg.RedisAddr(), err)
	}

	RedisClient = client
	logger.Info("Connected to Redis", logger.String("addr", cfg.RedisAddr()), logger.Int("db", cfg.RedisDB))
	return nil
}

func CloseRedis() error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Close()
}

// TestRedis writes, reads back and deletes a short-lived health-check key.
func TestRedis(ctx context.Context) error {
	if RedisClient == nil {
		return fmt.Errorf("redis not connected")
	}

	key := fmt.Sprintf("vibe:healthcheck:%d", time.Now().UnixNano())
	const want = "ok"

	pipe := RedisClient.TxPipeline()
	pipe.Set(ctx, key, want, time.Minute)
	get := pipe.Get(ctx, key)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis health check: %w", err)
	}
	if got := get.Val(); got != want {
		return fmt.Errorf("redis health check read %q, want %q", got, want)
	}
	return nil
}
