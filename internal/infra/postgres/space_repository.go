package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/mo"

	"github.com/jinford/polidex/internal/core/apperr"
	"github.com/jinford/polidex/internal/core/space"
	"github.com/jinford/polidex/internal/infra/postgres/sqlc"
)

// SpaceRepository は space.Repository を実装する PostgreSQL リポジトリ
type SpaceRepository struct {
	q sqlc.Querier
}

// NewSpaceRepository は新しい SpaceRepository を返す
func NewSpaceRepository(q sqlc.Querier) *SpaceRepository {
	return &SpaceRepository{q: q}
}

var _ space.Repository = (*SpaceRepository)(nil)

func (r *SpaceRepository) CreateSpace(ctx context.Context, s *space.Space) error {
	row, err := r.q.CreateSpace(ctx, sqlc.CreateSpaceParams{
		ID:          UUIDToPgtype(s.ID),
		Name:        s.Name,
		Description: StringPtrToPgtext(s.Description),
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return apperr.Conflict("space %q already exists", s.Name)
		}
		return fmt.Errorf("failed to create space: %w", err)
	}
	s.CreatedAt = PgtypeToTime(row.CreatedAt)
	s.UpdatedAt = PgtypeToTime(row.UpdatedAt)
	return nil
}

func (r *SpaceRepository) GetSpace(ctx context.Context, id uuid.UUID) (mo.Option[*space.SpaceWithStats], error) {
	row, err := r.q.GetSpaceWithStats(ctx, UUIDToPgtype(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[*space.SpaceWithStats](), nil
		}
		return mo.None[*space.SpaceWithStats](), fmt.Errorf("failed to get space: %w", err)
	}
	return mo.Some(&space.SpaceWithStats{
		Space: space.Space{
			ID:          PgtypeToUUID(row.ID),
			Name:        row.Name,
			Description: PgtextToStringPtr(row.Description),
			CreatedAt:   PgtypeToTime(row.CreatedAt),
			UpdatedAt:   PgtypeToTime(row.UpdatedAt),
		},
		DocumentCount:   int(row.DocumentCount),
		CredentialCount: int(row.CredentialCount),
	}), nil
}

func (r *SpaceRepository) GetSpaceByName(ctx context.Context, name string) (mo.Option[*space.Space], error) {
	row, err := r.q.GetSpaceByName(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[*space.Space](), nil
		}
		return mo.None[*space.Space](), fmt.Errorf("failed to get space: %w", err)
	}
	return mo.Some(&space.Space{
		ID:          PgtypeToUUID(row.ID),
		Name:        row.Name,
		Description: PgtextToStringPtr(row.Description),
		CreatedAt:   PgtypeToTime(row.CreatedAt),
		UpdatedAt:   PgtypeToTime(row.UpdatedAt),
	}), nil
}

func (r *SpaceRepository) ListSpaces(ctx context.Context) ([]*space.SpaceWithStats, error) {
	rows, err := r.q.ListSpacesWithStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}

	result := make([]*space.SpaceWithStats, 0, len(rows))
	for _, row := range rows {
		result = append(result, &space.SpaceWithStats{
			Space: space.Space{
				ID:          PgtypeToUUID(row.ID),
				Name:        row.Name,
				Description: PgtextToStringPtr(row.Description),
				CreatedAt:   PgtypeToTime(row.CreatedAt),
				UpdatedAt:   PgtypeToTime(row.UpdatedAt),
			},
			DocumentCount:   int(row.DocumentCount),
			CredentialCount: int(row.CredentialCount),
		})
	}
	return result, nil
}

func (r *SpaceRepository) DeleteSpace(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.q.DeleteSpace(ctx, UUIDToPgtype(id))
	if err != nil {
		return false, fmt.Errorf("failed to delete space: %w", err)
	}
	return n > 0, nil
}
