package main

import (
	"context"
	"os"
	"time"

	"diocese-atlas/internal/logger"
	"diocese-atlas/internal/migrate"
	"diocese-atlas/internal/record"
	"diocese-atlas/internal/store"
	"diocese-atlas/internal/utils"

	"github.com/joho/godotenv"
)

// 文档注释：将教区 CSV 导入 diocese_records
// 背景：服务以 RECORD_SOURCE=postgres 运行时从数据库读取记录；本工具负责首次导入与增量覆盖。
// 约束：按 (教区标识, 年份) 覆盖写入，单事务；无教区标识的行跳过。
func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	path := os.Getenv("RECORDS_CSV")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		l.Error("records_csv_missing")
		os.Exit(1)
	}
	recs, err := record.LoadCSV(path)
	if err != nil {
		l.Error("csv_read_error", "path", path, "err", err)
		os.Exit(1)
	}
	l.Info("csv_read_ok", "path", path, "rows", len(recs))
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	n, err := store.AttachDB(db).UpsertRecords(ctx, recs)
	if err != nil {
		l.Error("import_error", "err", err)
		os.Exit(1)
	}
	l.Info("import_done", "written", n, "skipped", len(recs)-n)
}
