package ingestion

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Document はインデックス化対象の文書を表す
type Document struct {
	ID          uuid.UUID
	Filename    string
	StoragePath string
	ContentType string
	ChunkCount  int
	CreatedAt   time.Time
}

// ChunkRecord は永続化するチャンクを表す
type ChunkRecord struct {
	ID          uuid.UUID
	DocumentID  uuid.UUID
	ChunkIndex  int
	Content     string
	StartOffset int
	EndOffset   int
	TokenCount  int
	ContentHash string
	ExternalID  string
}

// IngestParams は Ingest のパラメータ
type IngestParams struct {
	DocumentID uuid.UUID
	Filename   string
	Text       string
	SpaceIDs   []uuid.UUID
}

// Metadata は Embedding モデルの情報
type Metadata struct {
	ModelName string
	Dimension int
}

// Embedder はテキストのEmbedding生成インターフェース
type Embedder interface {
	// Embed は単一テキストのEmbeddingを生成する
	Embed(ctx context.Context, text string) ([]float32, error)
	// BatchEmbed は複数テキストのEmbeddingを入力順に生成する
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
	// MaxBatchSize は1回の BatchEmbed に渡せる最大件数
	MaxBatchSize() int
	// Metadata はモデル情報を返す
	Metadata() Metadata
}
