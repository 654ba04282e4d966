package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPool is the pool the server has always run with.
var DefaultPool = PoolConfig{MaxOpenConns: 25, MaxIdleConns: 25, ConnMaxLifetime: 5 * time.Minute}

// OpenDB creates and configures the Read/Write connection pool for dsn and
// verifies it with a ping. The DSN must carry parseTime=true.
func OpenDB(ctx context.Context, dsn string, pool PoolConfig, logger *slog.Logger) (*sql.DB, error) {
	// 1. Open a new connection pool.
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// 2. Configure the connection pool settings.
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	// 3. Ping the database to verify the connection.
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		db.Close()
		return nil, err
	}

	logger.Info("database connection pool established",
		"max_open", pool.MaxOpenConns, "max_idle", pool.MaxIdleConns)
	return db, nil
}
