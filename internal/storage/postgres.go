package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SpraxDev/NAS-Web/internal/config"
)

// ErrDisabled 表示配置中未启用数据库。
var ErrDisabled = errors.New("postgresql disabled")

// InitPostgres 打开到 PostgreSQL 的 GORM 连接并验证可用；未启用时返回 (nil, nil)。
func InitPostgres(cfg config.Config) (*gorm.DB, error) {
	if !cfg.PostgreSQL.Enabled {
		return nil, nil
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	db, err := gorm.Open(postgres.Open(cfg.PostgreSQL.DSN()), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open postgresql: %w", err)
	}
	if err := Ping(context.Background(), db); err != nil {
		ClosePostgres(db)
		return nil, err
	}
	return db, nil
}

// Ping 检查底层连接；db 为 nil 时返回 ErrDisabled。
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return ErrDisabled
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgresql: %w", err)
	}
	return nil
}

// ClosePostgres 关闭底层 sql.DB 连接。
func ClosePostgres(db *gorm.DB) {
	if db == nil {
		return
	}
	var s *sql.DB
	var err error
	s, err = db.DB()
	if err == nil && s != nil {
		_ = s.Close()
	}
}
