// Package db открывает подключение к PostgreSQL для журнала алертов.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// RetryIntervals задаёт паузы между повторными попытками подключения.
var RetryIntervals = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

var open = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// ConnectDB открывает пул соединений и проверяет его доступность.
// При неудачной проверке выполняется до len(RetryIntervals) повторов.
func ConnectDB(ctx context.Context, dsn string, sugar *zap.SugaredLogger) (*sql.DB, error) {
	conn, err := open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = conn.PingContext(ctx)
	for i := 0; err != nil && i < len(RetryIntervals); i++ {
		sugar.Warnw("Database unavailable, retrying", "attempt", i+1, "in", RetryIntervals[i], "error", err)

		select {
		case <-time.After(RetryIntervals[i]):
		case <-ctx.Done():
			conn.Close()
			return nil, fmt.Errorf("connect database: %w", ctx.Err())
		}

		err = conn.PingContext(ctx)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	sugar.Infow("Connected to database")
	return conn, nil
}

// Ping проверяет соединение с ограничением по времени.
func Ping(ctx context.Context, conn *sql.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return conn.PingContext(ctx)
}
