package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/jinford/polidex/internal/core/vectorindex"
)

// VectorIndex は pgvector を使用した vectorindex.Index 実装
// テナント属性は uuid[] 列に保持し、包含演算子で絞り込む
type VectorIndex struct {
	db        DB
	dimension int
}

// NewVectorIndex は新しい VectorIndex を返す
func NewVectorIndex(db DB, dimension int) *VectorIndex {
	return &VectorIndex{db: db, dimension: dimension}
}

var _ vectorindex.Index = (*VectorIndex)(nil)

const insertVector = `
INSERT INTO vectors (external_id, document_id, filename, chunk_index, space_ids, content, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (external_id) DO UPDATE
SET document_id = EXCLUDED.document_id,
    filename    = EXCLUDED.filename,
    chunk_index = EXCLUDED.chunk_index,
    space_ids   = EXCLUDED.space_ids,
    content     = EXCLUDED.content,
    embedding   = EXCLUDED.embedding`

// Add はベクトルを1トランザクションでまとめて登録する
func (v *VectorIndex) Add(ctx context.Context, items []vectorindex.Item) error {
	if len(items) == 0 {
		return nil
	}
	for _, it := range items {
		if len(it.Embedding) != v.dimension {
			return fmt.Errorf("embedding dimension mismatch for %s: got %d, want %d", it.ExternalID, len(it.Embedding), v.dimension)
		}
	}

	tx, err := v.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(insertVector,
			it.ExternalID,
			UUIDToPgtype(it.Metadata.DocumentID),
			it.Metadata.Filename,
			int32(it.Metadata.ChunkIndex),
			UUIDsToPgtype(it.Metadata.SpaceIDs),
			it.Content,
			pgvector.NewVector(it.Embedding),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert vectors: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit vectors: %w", err)
	}
	return nil
}

// Query はコサイン距離の昇順で最大 k 件を返す
func (v *VectorIndex) Query(ctx context.Context, embedding []float32, k int, filter vectorindex.Filter) ([]vectorindex.Neighbor, error) {
	if k <= 0 {
		return []vectorindex.Neighbor{}, nil
	}
	if len(embedding) != v.dimension {
		return nil, fmt.Errorf("query vector dimension mismatch: got %d, want %d", len(embedding), v.dimension)
	}

	where, args := filterClause(filter, 2)
	query := `
SELECT external_id, document_id, filename, chunk_index, space_ids, content, (embedding <=> $1)::float8 AS distance
FROM vectors` + where + fmt.Sprintf(`
ORDER BY embedding <=> $1
LIMIT $%d`, len(args)+2)

	params := append([]any{pgvector.NewVector(embedding)}, args...)
	params = append(params, k)

	rows, err := v.db.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	neighbors := make([]vectorindex.Neighbor, 0, k)
	for rows.Next() {
		var (
			n          vectorindex.Neighbor
			documentID pgtype.UUID
			chunkIndex int32
			spaceIDs   []pgtype.UUID
		)
		if err := rows.Scan(&n.ExternalID, &documentID, &n.Metadata.Filename, &chunkIndex, &spaceIDs, &n.Content, &n.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}
		n.Metadata.DocumentID = PgtypeToUUID(documentID)
		n.Metadata.ChunkIndex = int(chunkIndex)
		n.Metadata.SpaceIDs = PgtypeToUUIDs(spaceIDs)
		neighbors = append(neighbors, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vector rows: %w", err)
	}
	return neighbors, nil
}

// Delete はフィルタに合致するベクトルを削除する
func (v *VectorIndex) Delete(ctx context.Context, filter vectorindex.Filter) error {
	if filter.IsEmpty() {
		return vectorindex.ErrEmptyFilter
	}
	where, args := filterClause(filter, 1)
	if _, err := v.db.Exec(ctx, `DELETE FROM vectors`+where, args...); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	return nil
}

// Metric はコサイン距離を返す
func (v *VectorIndex) Metric() vectorindex.Metric {
	return vectorindex.MetricCosine
}

// filterClause は WHERE 句と引数を組み立てる（プレースホルダは start から採番）
func filterClause(filter vectorindex.Filter, start int) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.SpaceID != nil {
		args = append(args, UUIDToPgtype(*filter.SpaceID))
		conds = append(conds, fmt.Sprintf("space_ids @> ARRAY[$%d::uuid]", start+len(args)-1))
	}
	if filter.DocumentID != nil {
		args = append(args, UUIDToPgtype(*filter.DocumentID))
		conds = append(conds, fmt.Sprintf("document_id = $%d", start+len(args)-1))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}
