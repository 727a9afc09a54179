package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"Vibe/config"
	"Vibe/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// DB backs the songs and users repositories and, when shared, GORM.
var DB *sql.DB

func tunePool(pool *sql.DB) {
	pool.SetMaxIdleConns(10)
	pool.SetMaxOpenConns(100)
	pool.SetConnMaxLifetime(time.Hour)
}

// ConnectDB opens and pings the MySQL pool.
func ConnectDB(cfg *config.Config) error {
	pool, err := sql.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	tunePool(pool)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping mysql %s:%s: %w", cfg.DBHost, cfg.DBPort, err)
	}

	DB = pool
	logger.Info("Connected to MySQL",
		logger.String("host", cfg.DBHost),
		logger.String("database", cfg.DBName))
	return nil
}

// CloseDB closes the database/sql pool if it was opened.
func CloseDB() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}

// InitDB creates the tables owned by the database/sql repositories.
// Playlists and liked relations are migrated through GORM.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createSongsTable(); err != nil {
		return err
	}
	logger.Info("Database initialization completed")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func createSongsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS songs (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		artist_name VARCHAR(255) NOT NULL DEFAULT '',
		artist_id VARCHAR(64) NOT NULL DEFAULT '',
		album_name VARCHAR(255) NOT NULL DEFAULT '',
		album_id VARCHAR(64) NOT NULL DEFAULT '',
		album_image VARCHAR(1024) NOT NULL DEFAULT '',
		audio_url VARCHAR(1024) NOT NULL,
		duration DOUBLE NOT NULL DEFAULT 0,
		user_id VARCHAR(36),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_songs_user (user_id)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create songs table: %w", err)
	}
	return nil
}
