// Package document はアップロード文書のライフサイクル（登録・再処理・所属変更・削除）を提供する。
package document

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/jinford/polidex/internal/core/ingestion"
)

// Document はアップロードされた文書
type Document struct {
	ID          uuid.UUID
	Filename    string
	ContentType string
	Size        int64
	StoragePath string
	ContentHash string
	ChunkCount  int
	SpaceIDs    []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UploadParams は Upload のパラメータ
type UploadParams struct {
	Filename string
	Data     []byte
	SpaceIDs []uuid.UUID
}

// Repository は文書のデータアクセスインターフェース
type Repository interface {
	// CreateDocument は文書と所属スペースを同一トランザクションで登録する
	// content_hash が重複した場合は apperr.ErrConflict を返す
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (mo.Option[*Document], error)
	ContentHashExists(ctx context.Context, contentHash string) (bool, error)
	ListDocuments(ctx context.Context, spaceID mo.Option[uuid.UUID]) ([]*Document, error)
	// DeleteDocument はチャンクと所属関係を連鎖削除する。対象が存在した場合 true
	DeleteDocument(ctx context.Context, id uuid.UUID) (bool, error)
	// ReplaceDocumentSpaces は所属スペースを差し替える（不要な行の削除と不足行の追加）
	ReplaceDocumentSpaces(ctx context.Context, documentID uuid.UUID, spaceIDs []uuid.UUID) error
	// MissingSpaces は存在しないスペースIDを返す
	MissingSpaces(ctx context.Context, spaceIDs []uuid.UUID) ([]uuid.UUID, error)
}

// FileStore はアップロードファイルの保存先
type FileStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Remove(ctx context.Context, path string) error
}

// Extractor はファイルから本文テキストを抽出する
type Extractor interface {
	Supported(filename string) bool
	ContentType(filename string) string
	Extract(ctx context.Context, data []byte, filename string) (string, error)
}

// Indexer は文書のインデックス操作
type Indexer interface {
	Ingest(ctx context.Context, params ingestion.IngestParams) (int, error)
	Reindex(ctx context.Context, documentID uuid.UUID) (int, error)
	Purge(ctx context.Context, documentID uuid.UUID) error
}
