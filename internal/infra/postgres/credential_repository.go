package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/mo"

	"github.com/jinford/polidex/internal/core/apperr"
	"github.com/jinford/polidex/internal/core/credential"
	"github.com/jinford/polidex/internal/infra/postgres/sqlc"
)

// CredentialRepository は credential.Repository を実装する PostgreSQL リポジトリ
type CredentialRepository struct {
	q sqlc.Querier
}

// NewCredentialRepository は新しい CredentialRepository を返す
func NewCredentialRepository(q sqlc.Querier) *CredentialRepository {
	return &CredentialRepository{q: q}
}

var _ credential.Repository = (*CredentialRepository)(nil)

func (r *CredentialRepository) SpaceExists(ctx context.Context, spaceID uuid.UUID) (bool, error) {
	exists, err := r.q.SpaceExists(ctx, UUIDToPgtype(spaceID))
	if err != nil {
		return false, fmt.Errorf("failed to check space: %w", err)
	}
	return exists, nil
}

func (r *CredentialRepository) CreateCredential(ctx context.Context, c *credential.Credential) error {
	row, err := r.q.CreateAPIKey(ctx, sqlc.CreateAPIKeyParams{
		ID:        UUIDToPgtype(c.ID),
		Name:      c.Name,
		SpaceID:   UUIDToPgtype(c.SpaceID),
		KeyHash:   c.Digest,
		KeyPrefix: c.Fingerprint,
		CreatedAt: TimeToPgtype(c.CreatedAt),
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return apperr.Conflict("credential digest collision")
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}
	c.Active = row.IsActive
	c.CreatedAt = PgtypeToTime(row.CreatedAt)
	return nil
}

func (r *CredentialRepository) FindActiveByDigest(ctx context.Context, digest string) (mo.Option[*credential.Credential], error) {
	row, err := r.q.GetActiveAPIKeyByHash(ctx, digest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[*credential.Credential](), nil
		}
		return mo.None[*credential.Credential](), fmt.Errorf("failed to find credential: %w", err)
	}
	return mo.Some(toCredential(row)), nil
}

func (r *CredentialRepository) IncrementUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	if err := r.q.IncrementAPIKeyUsage(ctx, sqlc.IncrementAPIKeyUsageParams{
		ID:         UUIDToPgtype(id),
		LastUsedAt: TimeToPgtype(usedAt),
	}); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

func (r *CredentialRepository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.q.DeactivateAPIKey(ctx, UUIDToPgtype(id))
	if err != nil {
		return false, fmt.Errorf("failed to deactivate credential: %w", err)
	}
	return n > 0, nil
}

func (r *CredentialRepository) DeleteCredential(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.q.DeleteAPIKey(ctx, UUIDToPgtype(id))
	if err != nil {
		return false, fmt.Errorf("failed to delete credential: %w", err)
	}
	return n > 0, nil
}

func (r *CredentialRepository) ListCredentials(ctx context.Context, spaceID mo.Option[uuid.UUID]) ([]*credential.Credential, error) {
	var (
		rows []sqlc.ApiKey
		err  error
	)
	if id, ok := spaceID.Get(); ok {
		rows, err = r.q.ListAPIKeysBySpace(ctx, UUIDToPgtype(id))
	} else {
		rows, err = r.q.ListAPIKeys(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	result := make([]*credential.Credential, 0, len(rows))
	for _, row := range rows {
		result = append(result, toCredential(row))
	}
	return result, nil
}

func toCredential(row sqlc.ApiKey) *credential.Credential {
	return &credential.Credential{
		ID:          PgtypeToUUID(row.ID),
		Name:        row.Name,
		SpaceID:     PgtypeToUUID(row.SpaceID),
		Digest:      row.KeyHash,
		Fingerprint: row.KeyPrefix,
		Active:      row.IsActive,
		UsageCount:  row.UsageCount,
		LastUsedAt:  PgtypeToTimePtr(row.LastUsedAt),
		CreatedAt:   PgtypeToTime(row.CreatedAt),
	}
}
