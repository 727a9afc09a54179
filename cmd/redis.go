package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"Vibe/config"
	"Vibe/db"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check the Redis connection",
	Long:  `Connect to Redis with the configured credentials and run a set/get/del round trip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Redis: %s, DB: %d\n", cfg.RedisAddr(), cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("cannot connect to Redis: %v", err)
		}
		defer db.CloseRedis()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.TestRedis(ctx); err != nil {
			log.Fatalf("Redis round trip failed: %v", err)
		}
		fmt.Println("Redis OK")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
