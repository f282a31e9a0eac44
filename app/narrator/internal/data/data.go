package data

import (
	"database/sql"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	_ "github.com/lib/pq"

	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/config"
)

// Data 数据资源，db 为 nil 表示未配置数据库
type Data struct {
	db *sql.DB
}

// NewData 连接叙事日志数据库。未配置 DSN 时返回空 Data，日志功能关闭。
func NewData(cfg *config.Config, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	if cfg.DB.Source == "" {
		helper.Info("未配置数据库，叙事日志已禁用")
		return &Data{}, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DB.Source)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS narrative_beats (
			id UUID PRIMARY KEY,
			token TEXT NOT NULL,
			narrative TEXT NOT NULL,
			era TEXT NOT NULL,
			market_cap DOUBLE PRECISION NOT NULL,
			momentum TEXT NOT NULL,
			beat_count INTEGER NOT NULL,
			has_audio BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to init narrative_beats table: %w", err)
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		db.Close()
	}
	return &Data{db: db}, cleanup, nil
}
