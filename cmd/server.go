package cmd

import (
	"fmt"
	"time"

	"Vibe/cache"
	"Vibe/config"
	"Vibe/core/agent"
	"Vibe/core/auth"
	"Vibe/core/player"
	"Vibe/core/session"
	"Vibe/db"
	"Vibe/logger"
	"Vibe/repository"
	"Vibe/server"
	"Vibe/storage"

	"github.com/spf13/cobra"
)

const likeCacheTTL = 10 * time.Minute

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Vibe HTTP server",
	Long:  `Start the HTTP API and the player WebSocket. Required credentials are checked before anything is opened.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func initLogger(cfg *config.Config) {
	logger.InitLogger(logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   true,
	})
}

func runServer() error {
	cfg := config.Load()
	initLogger(cfg)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Refusing to start", logger.ErrorField(err))
	}

	uploader, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("init media storage: %w", err)
	}

	if err := db.ConnectDB(cfg); err != nil {
		return err
	}
	defer db.CloseDB()
	if err := db.InitDB(); err != nil {
		return err
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		return err
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrateModels(repository.Models()...); err != nil {
		return err
	}

	if err := db.ConnectRedis(cfg); err != nil {
		return err
	}
	defer db.CloseRedis()

	stateDB, err := player.OpenStateDB(cfg.StateDBPath)
	if err != nil {
		return fmt.Errorf("open state db: %w", err)
	}
	defer stateDB.Close()

	tracks := repository.NewMySQLTrackRepository(db.DB)
	likes := repository.NewCachedLikeRepository(
		repository.NewGormLikeRepository(db.GormDB),
		cache.NewLikeCache(db.RedisClient, likeCacheTTL),
	)

	hub := session.NewHub()
	go hub.Run()
	defer hub.Stop()

	sessions := session.NewManager(session.Deps{
		Likes:     likes,
		Playlists: repository.NewGormPlaylistRepository(db.GormDB),
		Tracks:    tracks,
		StateDB:   stateDB,
		Hub:       hub,
	})
	defer sessions.Close()

	h := server.NewAPIHandler(server.Deps{
		Tracks:    tracks,
		Users:     repository.NewMySQLUserRepository(db.DB),
		Uploader:  uploader,
		Assistant: agent.NewMusicAgent(agent.ConfigFrom(cfg)),
		Tokens:    auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHour)*time.Hour),
		Sessions:  sessions,

		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	return server.Serve(cfg.Addr(), server.NewRouter(h))
}
