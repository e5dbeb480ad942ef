package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresHealthRepo はヘルスチェック用にDBの疎通と時刻を返す。
type PostgresHealthRepo struct {
	db *sql.DB
}

// NewPostgresHealthRepo はPostgresHealthRepoを生成する。
func NewPostgresHealthRepo(db *sql.DB) *PostgresHealthRepo {
	return &PostgresHealthRepo{db: db}
}

// Ping はDBへの疎通を確認する。
func (r *PostgresHealthRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Now はDBサーバーの現在時刻を返す。
func (r *PostgresHealthRepo) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := r.db.QueryRowContext(ctx, `SELECT now()`).Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("failed to query db time: %w", err)
	}
	return now, nil
}
