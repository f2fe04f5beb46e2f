package migrate

import (
	"context"
	"database/sql"

	"diocese-atlas/internal/logger"
)

// 背景：首次运行自动创建记录表与索引，保障导入与加载
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS diocese_records (
            record_key TEXT NOT NULL,
            year TEXT NOT NULL,
            ext_id TEXT NOT NULL DEFAULT '',
            diocese TEXT NOT NULL DEFAULT '',
            name TEXT NOT NULL DEFAULT '',
            country TEXT NOT NULL DEFAULT '',
            jurisdiction TEXT NOT NULL DEFAULT '',
            latitude DOUBLE PRECISION,
            longitude DOUBLE PRECISION,
            stats JSONB NOT NULL DEFAULT '{}'::jsonb,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY (record_key, year)
        )`,
	`CREATE INDEX IF NOT EXISTS idx_diocese_records_country ON diocese_records (lower(country))`,
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
