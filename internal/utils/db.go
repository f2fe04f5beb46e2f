package utils

import (
	"database/sql"
	"net/url"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

// BuildPostgresDSNFromEnv 由 PG_* 环境变量拼接 DSN
func BuildPostgresDSNFromEnv() string {
	host := envOr("PG_HOST", "localhost")
	port := envOr("PG_PORT", "5432")
	user := envOr("PG_USER", "postgres")
	pass := os.Getenv("PG_PASSWORD")
	db := envOr("PG_DB", "atlas")
	ssl := envOr("PG_SSLMODE", "disable")
	u := url.URL{Scheme: "postgres", Host: host + ":" + port, Path: "/" + db}
	if pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	u.RawQuery = "sslmode=" + url.QueryEscape(ssl)
	return u.String()
}

// OpenPostgresFromEnv 打开连接池；PG_MAX_OPEN_CONNS/PG_MAX_IDLE_CONNS 解析失败时使用默认值
func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(envInt("PG_MAX_OPEN_CONNS", 20))
	db.SetMaxIdleConns(envInt("PG_MAX_IDLE_CONNS", 10))
	return db, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			return n
		}
	}
	return def
}
