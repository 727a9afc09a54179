package db

import (
	"fmt"

	"Vibe/config"
	"Vibe/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormDB serves playlists and liked_songs; songs and users stay on DB.
var GormDB *gorm.DB

// gormShared is set when GormDB runs on the DB pool and must not close it.
var gormShared bool

func gormConfig(cfg *config.Config) *gorm.Config {
	level := gormlogger.Warn
	if logger.ParseLevel(cfg.LogLevel) == logger.DebugLevel {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(level),
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// ConnectGormDB opens GORM. After ConnectDB it reuses that pool, otherwise
// it dials the DSN itself.
func ConnectGormDB(cfg *config.Config) error {
	dialector := mysql.Open(cfg.MySQLDSN())
	gormShared = DB != nil
	if gormShared {
		dialector = mysql.New(mysql.Config{Conn: DB})
	}

	g, err := gorm.Open(dialector, gormConfig(cfg))
	if err != nil {
		return fmt.Errorf("open gorm: %w", err)
	}
	if !gormShared {
		sqlDB, err := g.DB()
		if err != nil {
			return fmt.Errorf("gorm pool: %w", err)
		}
		tunePool(sqlDB)
	}

	GormDB = g
	logger.Info("GORM ready", logger.Bool("sharedPool", gormShared))
	return nil
}

// CloseGormDB closes the GORM pool unless it belongs to DB.
func CloseGormDB() error {
	if GormDB == nil || gormShared {
		return nil
	}
	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrateModels creates or alters the tables of the given GORM models.
func AutoMigrateModels(models ...interface{}) error {
	if GormDB == nil {
		return fmt.Errorf("gorm not connected")
	}
	if err := GormDB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("GORM models migrated", logger.Int("count", len(models)))
	return nil
}
