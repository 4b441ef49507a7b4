package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/greathunt/game-engine/internal/config"
	"github.com/greathunt/game-engine/internal/repository/dao"
)

func OpenPostgres(conf *config.PostgresConfig, environment string) (*gorm.DB, error) {
	return open(conf.DSN(), conf.MaxOpenConns, conf.MaxIdleConns, environment)
}

// OpenPostgresWithURL is used when the platform hands out a DATABASE_URL.
func OpenPostgresWithURL(url string, conf *config.PostgresConfig, environment string) (*gorm.DB, error) {
	return open(url, conf.MaxOpenConns, conf.MaxIdleConns, environment)
}

func open(dsn string, maxOpen, maxIdle int, environment string) (*gorm.DB, error) {
	level := gormlogger.Error
	if environment == "development" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open -> %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB -> %w", err)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err = dao.InitTables(db); err != nil {
		return nil, fmt.Errorf("dao.InitTables -> %w", err)
	}

	zap.L().Info("connected to postgres")

	return db, nil
}
