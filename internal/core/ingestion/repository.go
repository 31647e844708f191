package ingestion

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Repository はインデックス化に必要な文書・チャンクのデータアクセスインターフェース
// テスト時のモック用に消費者側で定義
type Repository interface {
	// GetDocument は文書を取得する
	GetDocument(ctx context.Context, id uuid.UUID) (mo.Option[*Document], error)

	// ListDocumentSpaceIDs は文書が所属するスペースIDを返す
	ListDocumentSpaceIDs(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error)

	// SaveChunks はチャンクを保存し、文書のチャンク数を同一トランザクションで更新する
	SaveChunks(ctx context.Context, documentID uuid.UUID, chunks []*ChunkRecord) error

	// DeleteChunks は文書のチャンクを削除し、チャンク数を0に戻す
	DeleteChunks(ctx context.Context, documentID uuid.UUID) error
}
