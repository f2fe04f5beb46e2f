package atlas

import (
	"context"

	"diocese-atlas/internal/record"
)

// RecordLoader 记录来源（CSV 文件或数据库）
type RecordLoader interface {
	LoadRecords(ctx context.Context) ([]*record.Record, error)
}

// CSVLoader 从本地 CSV 读取记录
type CSVLoader struct {
	Path string
}

func (l CSVLoader) LoadRecords(ctx context.Context) ([]*record.Record, error) {
	return record.LoadCSV(l.Path)
}

// StaticLoader 内存记录，便于测试与预置数据
type StaticLoader []*record.Record

func (l StaticLoader) LoadRecords(ctx context.Context) ([]*record.Record, error) { return l, nil }
