package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/mo"

	"github.com/jinford/polidex/internal/core/apperr"
	"github.com/jinford/polidex/internal/core/document"
	"github.com/jinford/polidex/internal/infra/postgres/sqlc"
)

// DocumentRepository は document.Repository を実装する PostgreSQL リポジトリ
type DocumentRepository struct {
	db DB
	q  *sqlc.Queries
}

// NewDocumentRepository は新しい DocumentRepository を返す
func NewDocumentRepository(db DB) *DocumentRepository {
	return &DocumentRepository{db: db, q: sqlc.New(db)}
}

var _ document.Repository = (*DocumentRepository)(nil)

func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *document.Document) error {
	row, err := Transact(ctx, r.db, func(q *sqlc.Queries) (sqlc.Document, error) {
		row, err := q.CreateDocument(ctx, sqlc.CreateDocumentParams{
			ID:          UUIDToPgtype(doc.ID),
			Filename:    doc.Filename,
			ContentType: doc.ContentType,
			Size:        doc.Size,
			StoragePath: doc.StoragePath,
			ContentHash: doc.ContentHash,
		})
		if err != nil {
			return sqlc.Document{}, err
		}
		for _, spaceID := range doc.SpaceIDs {
			if err := q.AddDocumentSpace(ctx, sqlc.AddDocumentSpaceParams{
				DocumentID: row.ID,
				SpaceID:    UUIDToPgtype(spaceID),
			}); err != nil {
				return sqlc.Document{}, fmt.Errorf("failed to add document space: %w", err)
			}
		}
		return row, nil
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return apperr.Conflict("document with the same content already exists")
		}
		return fmt.Errorf("failed to create document: %w", err)
	}

	doc.CreatedAt = PgtypeToTime(row.CreatedAt)
	doc.UpdatedAt = PgtypeToTime(row.UpdatedAt)
	return nil
}

func (r *DocumentRepository) GetDocument(ctx context.Context, id uuid.UUID) (mo.Option[*document.Document], error) {
	row, err := r.q.GetDocument(ctx, UUIDToPgtype(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[*document.Document](), nil
		}
		return mo.None[*document.Document](), fmt.Errorf("failed to get document: %w", err)
	}
	return mo.Some(toDocument(sqlc.ListDocumentsRow(row))), nil
}

func (r *DocumentRepository) ContentHashExists(ctx context.Context, contentHash string) (bool, error) {
	exists, err := r.q.ContentHashExists(ctx, contentHash)
	if err != nil {
		return false, fmt.Errorf("failed to check content hash: %w", err)
	}
	return exists, nil
}

func (r *DocumentRepository) ListDocuments(ctx context.Context, spaceID mo.Option[uuid.UUID]) ([]*document.Document, error) {
	var rows []sqlc.ListDocumentsRow
	if id, ok := spaceID.Get(); ok {
		bySpace, err := r.q.ListDocumentsBySpace(ctx, UUIDToPgtype(id))
		if err != nil {
			return nil, fmt.Errorf("failed to list documents by space: %w", err)
		}
		for _, row := range bySpace {
			rows = append(rows, sqlc.ListDocumentsRow(row))
		}
	} else {
		all, err := r.q.ListDocuments(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		rows = all
	}

	result := make([]*document.Document, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDocument(row))
	}
	return result, nil
}

func (r *DocumentRepository) DeleteDocument(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.q.DeleteDocument(ctx, UUIDToPgtype(id))
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	return n > 0, nil
}

func (r *DocumentRepository) ReplaceDocumentSpaces(ctx context.Context, documentID uuid.UUID, spaceIDs []uuid.UUID) error {
	_, err := Transact(ctx, r.db, func(q *sqlc.Queries) (struct{}, error) {
		if err := q.RemoveDocumentSpacesExcept(ctx, sqlc.RemoveDocumentSpacesExceptParams{
			DocumentID: UUIDToPgtype(documentID),
			SpaceIds:   UUIDsToPgtype(spaceIDs),
		}); err != nil {
			return struct{}{}, err
		}
		for _, spaceID := range spaceIDs {
			if err := q.AddDocumentSpace(ctx, sqlc.AddDocumentSpaceParams{
				DocumentID: UUIDToPgtype(documentID),
				SpaceID:    UUIDToPgtype(spaceID),
			}); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace document spaces: %w", err)
	}
	return nil
}

func (r *DocumentRepository) MissingSpaces(ctx context.Context, spaceIDs []uuid.UUID) ([]uuid.UUID, error) {
	existing, err := r.q.ListExistingSpaceIDs(ctx, UUIDsToPgtype(spaceIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}

	found := make(map[uuid.UUID]struct{}, len(existing))
	for _, id := range PgtypeToUUIDs(existing) {
		found[id] = struct{}{}
	}

	var missing []uuid.UUID
	for _, id := range spaceIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func toDocument(row sqlc.ListDocumentsRow) *document.Document {
	return &document.Document{
		ID:          PgtypeToUUID(row.ID),
		Filename:    row.Filename,
		ContentType: row.ContentType,
		Size:        row.Size,
		StoragePath: row.StoragePath,
		ContentHash: row.ContentHash,
		ChunkCount:  int(row.ChunkCount),
		SpaceIDs:    PgtypeToUUIDs(row.SpaceIds),
		CreatedAt:   PgtypeToTime(row.CreatedAt),
		UpdatedAt:   PgtypeToTime(row.UpdatedAt),
	}
}
