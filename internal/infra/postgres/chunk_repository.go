package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/mo"

	"github.com/jinford/polidex/internal/core/ingestion"
	"github.com/jinford/polidex/internal/infra/postgres/sqlc"
)

// ChunkRepository は ingestion.Repository を実装する PostgreSQL リポジトリ
type ChunkRepository struct {
	db DB
	q  *sqlc.Queries
}

// NewChunkRepository は新しい ChunkRepository を返す
func NewChunkRepository(db DB) *ChunkRepository {
	return &ChunkRepository{db: db, q: sqlc.New(db)}
}

var _ ingestion.Repository = (*ChunkRepository)(nil)

func (r *ChunkRepository) GetDocument(ctx context.Context, id uuid.UUID) (mo.Option[*ingestion.Document], error) {
	row, err := r.q.GetDocument(ctx, UUIDToPgtype(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[*ingestion.Document](), nil
		}
		return mo.None[*ingestion.Document](), fmt.Errorf("failed to get document: %w", err)
	}
	return mo.Some(&ingestion.Document{
		ID:          PgtypeToUUID(row.ID),
		Filename:    row.Filename,
		StoragePath: row.StoragePath,
		ContentType: row.ContentType,
		ChunkCount:  int(row.ChunkCount),
		CreatedAt:   PgtypeToTime(row.CreatedAt),
	}), nil
}

func (r *ChunkRepository) ListDocumentSpaceIDs(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := r.q.ListDocumentSpaceIDs(ctx, UUIDToPgtype(documentID))
	if err != nil {
		return nil, fmt.Errorf("failed to list document spaces: %w", err)
	}
	return PgtypeToUUIDs(ids), nil
}

func (r *ChunkRepository) SaveChunks(ctx context.Context, documentID uuid.UUID, chunks []*ingestion.ChunkRecord) error {
	_, err := Transact(ctx, r.db, func(q *sqlc.Queries) (struct{}, error) {
		for _, c := range chunks {
			if err := q.InsertChunk(ctx, sqlc.InsertChunkParams{
				ID:          UUIDToPgtype(c.ID),
				DocumentID:  UUIDToPgtype(documentID),
				ChunkIndex:  int32(c.ChunkIndex),
				Content:     c.Content,
				StartOffset: int32(c.StartOffset),
				EndOffset:   int32(c.EndOffset),
				TokenCount:  int32(c.TokenCount),
				ContentHash: c.ContentHash,
				ExternalID:  c.ExternalID,
			}); err != nil {
				return struct{}{}, fmt.Errorf("failed to insert chunk %d: %w", c.ChunkIndex, err)
			}
		}
		if err := q.UpdateDocumentChunkCount(ctx, sqlc.UpdateDocumentChunkCountParams{
			ID:         UUIDToPgtype(documentID),
			ChunkCount: int32(len(chunks)),
		}); err != nil {
			return struct{}{}, fmt.Errorf("failed to update chunk count: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

func (r *ChunkRepository) DeleteChunks(ctx context.Context, documentID uuid.UUID) error {
	_, err := Transact(ctx, r.db, func(q *sqlc.Queries) (struct{}, error) {
		if _, err := q.DeleteChunksByDocument(ctx, UUIDToPgtype(documentID)); err != nil {
			return struct{}{}, fmt.Errorf("failed to delete chunks: %w", err)
		}
		if err := q.UpdateDocumentChunkCount(ctx, sqlc.UpdateDocumentChunkCountParams{
			ID:         UUIDToPgtype(documentID),
			ChunkCount: 0,
		}); err != nil {
			return struct{}{}, fmt.Errorf("failed to reset chunk count: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}
