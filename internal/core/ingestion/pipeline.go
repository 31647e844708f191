package ingestion

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"

	"github.com/jinford/polidex/internal/core/chunk"
	"github.com/jinford/polidex/internal/core/vectorindex"
)

const (
	// DefaultEmbeddingBatchSize はEmbedding APIのデフォルトバッチサイズ
	DefaultEmbeddingBatchSize = 100
	// MinBatchSize は最小バッチサイズ（MaxBatchSize()が0を返した場合のフォールバック）
	MinBatchSize = 1
)

// embedAll はチャンク本文をバッチに分けて Embedding し、入力と同じ順序でベクトルを返す
func (s *Service) embedAll(ctx context.Context, chunks []chunk.Chunk) ([][]float32, error) {
	batchSize := s.embeddingBatchSize
	if maxSize := s.embedder.MaxBatchSize(); maxSize > 0 && maxSize < batchSize {
		batchSize = maxSize
	}
	if batchSize < MinBatchSize {
		batchSize = MinBatchSize
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}

		batch, err := s.callEmbedder(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(batch))
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (s *Service) callEmbedder(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := s.withCallTimeout(ctx)
	defer cancel()
	return s.embedder.BatchEmbed(ctx, texts)
}

// buildRecords はチャンクとベクトルから永続化レコードとインデックス項目を組み立てる
// ExternalID はチャンクごとに新規採番する
func buildRecords(params IngestParams, chunks []chunk.Chunk, vectors [][]float32) ([]*ChunkRecord, []vectorindex.Item) {
	records := make([]*ChunkRecord, 0, len(chunks))
	items := make([]vectorindex.Item, 0, len(chunks))

	for i, c := range chunks {
		externalID := uuid.NewString()
		records = append(records, &ChunkRecord{
			ID:          uuid.New(),
			DocumentID:  params.DocumentID,
			ChunkIndex:  c.Index,
			Content:     c.Content,
			StartOffset: c.StartOffset,
			EndOffset:   c.EndOffset,
			TokenCount:  c.Tokens,
			ContentHash: computeContentHash(c.Content),
			ExternalID:  externalID,
		})
		items = append(items, vectorindex.Item{
			ExternalID: externalID,
			Embedding:  vectors[i],
			Content:    c.Content,
			Metadata: vectorindex.Metadata{
				DocumentID: params.DocumentID,
				Filename:   params.Filename,
				ChunkIndex: c.Index,
				SpaceIDs:   params.SpaceIDs,
			},
		})
	}

	return records, items
}

// computeContentHash はコンテンツのSHA256ハッシュを計算する
func computeContentHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}
