// 包 store：PostgreSQL 记录源，读取与写入教区年度记录
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"diocese-atlas/internal/logger"
	"diocese-atlas/internal/record"

	"github.com/lib/pq"
)

// Store：数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open：使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const selectCols = `SELECT ext_id, diocese, name, country, jurisdiction, latitude, longitude, year, stats FROM diocese_records`

// LoadRecords 读取全部记录
func (s *Store) LoadRecords(ctx context.Context) ([]*record.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectCols+` ORDER BY record_key, year`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return scanRecords(rows)
}

// LoadCountries 只读取指定国家（大小写无关）的记录
func (s *Store) LoadCountries(ctx context.Context, countries []string) ([]*record.Record, error) {
	lc := make([]string, 0, len(countries))
	for _, c := range countries {
		lc = append(lc, strings.ToLower(strings.TrimSpace(c)))
	}
	rows, err := s.db.QueryContext(ctx, selectCols+` WHERE lower(trim(country)) = ANY($1) ORDER BY record_key, year`, pq.Array(lc))
	if err != nil {
		return nil, fmt.Errorf("query records by country: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*record.Record, error) {
	defer rows.Close()
	var out []*record.Record
	for rows.Next() {
		var (
			r        record.Record
			lat, lon sql.NullFloat64
			raw      []byte
		)
		if err := rows.Scan(&r.ID, &r.Diocese, &r.Name, &r.Country, &r.Jurisdiction, &lat, &lon, &r.Year, &raw); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Values = make(map[string]string)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &r.Values); err != nil {
				return nil, fmt.Errorf("decode stats for %s/%s: %w", r.Identity(), r.Year, err)
			}
		}
		if lat.Valid && lon.Valid {
			r.Latitude, r.Longitude, r.Located = lat.Float64, lon.Float64, true
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("db_records_loaded", "count", len(out))
	return out, nil
}

const upsertSQL = `INSERT INTO diocese_records(record_key, year, ext_id, diocese, name, country, jurisdiction, latitude, longitude, stats)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (record_key, year) DO UPDATE SET ext_id=EXCLUDED.ext_id, diocese=EXCLUDED.diocese, name=EXCLUDED.name,
        country=EXCLUDED.country, jurisdiction=EXCLUDED.jurisdiction, latitude=EXCLUDED.latitude, longitude=EXCLUDED.longitude,
        stats=EXCLUDED.stats, updated_at=now()`

// 文档注释：批量写入记录（单事务）
// 约束：无教区标识的记录跳过；不可定位的记录坐标写为 NULL；任一写入失败整体回滚。
// 返回：实际写入条数。
func (s *Store) UpsertRecords(ctx context.Context, recs []*record.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()
	n := 0
	for _, r := range recs {
		id := r.Identity()
		if id == "" {
			continue
		}
		vals, err := json.Marshal(r.Values)
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		var lat, lon sql.NullFloat64
		if r.Located {
			lat = sql.NullFloat64{Float64: r.Latitude, Valid: true}
			lon = sql.NullFloat64{Float64: r.Longitude, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, r.Year, r.ID, r.Diocese, r.Name, r.Country, r.Jurisdiction, lat, lon, vals); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("upsert %s/%s: %w", id, r.Year, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logger.L().Debug("db_records_upserted", "count", n)
	return n, nil
}
