// Package postgres は PostgreSQL (pgx + sqlc + pgvector) によるリポジトリとベクトルインデックスを提供する。
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jinford/polidex/internal/infra/postgres/sqlc"
)

// DB はクエリ実行とトランザクション開始ができる接続（*pgxpool.Pool など）
type DB interface {
	sqlc.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Transact はトランザクションを開始し、トランザクションに束縛した Queries を fn に渡す
// fn がエラーを返した場合はロールバックする
func Transact[T any](ctx context.Context, db DB, fn func(*sqlc.Queries) (T, error)) (T, error) {
	var zero T
	tx, err := db.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := fn(sqlc.New(tx))
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return zero, fmt.Errorf("tx rollback failed: %v (original err: %w)", rbErr, err)
		}
		return zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}
