package database

import (
	"fmt"
	"talentedge_backend/internal/config"
	"talentedge_backend/internal/model"
	"talentedge_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models 评分服务的全部数据表，按迁移顺序排列
func Models() []interface{} {
	return []interface{}{
		&model.Test{},
		&model.TestQuestion{},
		&model.TestAttempt{},
		&model.TestResponse{},
	}
}

func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)
}

// InitDB 初始化 MySQL 连接。debug 模式或指定 -migrate / -migrate-only 时执行迁移
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.Server.Mode == "debug" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(DSN(&cfg.Database)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Log.Info("Database connection established", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	if cfg.Server.Mode == "debug" || cfg.ForceMigrate {
		if err := db.AutoMigrate(Models()...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		logger.Log.Info("Database migration completed")
	}

	return db, nil
}
