package postgres

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jinford/polidex/internal/core/ingestion"
)

// GenerateLockID は文字列からアドバイザリロックIDを生成する
func GenerateLockID(parts ...string) int64 {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
	}
	hash := h.Sum(nil)

	// ハッシュの最初の8バイトをint64として使用
	var id int64
	for i := range 8 {
		id = (id << 8) | int64(hash[i])
	}

	return id
}

// AdvisoryLocker はセッションスコープのアドバイザリロックで文書単位の排他を行う
// 取得した接続はロック解放までプールへ返さない
type AdvisoryLocker struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAdvisoryLocker は新しい AdvisoryLocker を返す
func NewAdvisoryLocker(pool *pgxpool.Pool, logger *slog.Logger) *AdvisoryLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdvisoryLocker{pool: pool, logger: logger}
}

var _ ingestion.Locker = (*AdvisoryLocker)(nil)

// LockDocument は文書のロックを取得し、解放関数を返す
func (l *AdvisoryLocker) LockDocument(ctx context.Context, documentID uuid.UUID) (func(), error) {
	return l.Lock(ctx, GenerateLockID("document", documentID.String()))
}

// Lock は任意のロックIDでロックを取得する
func (l *AdvisoryLocker) Lock(ctx context.Context, lockID int64) (func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	return func() {
		if _, err := conn.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", lockID); err != nil {
			l.logger.Warn("アドバイザリロックの解放に失敗", "lockID", lockID, "error", err)
			// 解放できなかった接続は破棄してセッションごとロックを手放す
			_ = conn.Conn().Close(context.WithoutCancel(ctx))
		}
		conn.Release()
	}, nil
}
