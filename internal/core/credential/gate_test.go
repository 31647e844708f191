package credential

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/polidex/internal/core/apperr"
)

type memoryRepo struct {
	spaces   map[uuid.UUID]bool
	creds    map[uuid.UUID]*Credential
	findErr  error
	usageErr error
}

func newMemoryRepo(spaces ...uuid.UUID) *memoryRepo {
	r := &memoryRepo{spaces: map[uuid.UUID]bool{}, creds: map[uuid.UUID]*Credential{}}
	for _, s := range spaces {
		r.spaces[s] = true
	}
	return r
}

func (r *memoryRepo) SpaceExists(ctx context.Context, spaceID uuid.UUID) (bool, error) {
	return r.spaces[spaceID], nil
}

func (r *memoryRepo) CreateCredential(ctx context.Context, c *Credential) error {
	cp := *c
	r.creds[c.ID] = &cp
	return nil
}

func (r *memoryRepo) FindActiveByDigest(ctx context.Context, digest string) (mo.Option[*Credential], error) {
	if r.findErr != nil {
		return mo.None[*Credential](), r.findErr
	}
	for _, c := range r.creds {
		if c.Digest == digest && c.Active {
			return mo.Some(c), nil
		}
	}
	return mo.None[*Credential](), nil
}

func (r *memoryRepo) IncrementUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	if r.usageErr != nil {
		return r.usageErr
	}
	if c, ok := r.creds[id]; ok {
		c.UsageCount++
		c.LastUsedAt = &usedAt
	}
	return nil
}

func (r *memoryRepo) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	c, ok := r.creds[id]
	if !ok {
		return false, nil
	}
	c.Active = false
	return true, nil
}

func (r *memoryRepo) DeleteCredential(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := r.creds[id]; !ok {
		return false, nil
	}
	delete(r.creds, id)
	return true, nil
}

func (r *memoryRepo) ListCredentials(ctx context.Context, spaceID mo.Option[uuid.UUID]) ([]*Credential, error) {
	out := []*Credential{}
	for _, c := range r.creds {
		if sid, ok := spaceID.Get(); ok && c.SpaceID != sid {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func newTestGate(repo Repository, opts ...GateOption) *Gate {
	opts = append(opts, WithGateLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return NewGate(repo, opts...)
}

func TestIssue_ReturnsSecretOnce(t *testing.T) {
	spaceID := uuid.New()
	repo := newMemoryRepo(spaceID)
	gate := newTestGate(repo)

	cred, secret, err := gate.Issue(context.Background(), "support bot", spaceID)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret, SecretPrefix))
	assert.Len(t, secret, len(SecretPrefix)+64)
	assert.Equal(t, secret[:FingerprintLength], cred.Fingerprint)
	assert.NotEqual(t, secret, cred.Digest)
	assert.True(t, cred.Active)

	stored := repo.creds[cred.ID]
	assert.Equal(t, cred.Digest, stored.Digest)
	assert.Equal(t, spaceID, stored.SpaceID)
}

func TestIssue_Validation(t *testing.T) {
	spaceID := uuid.New()
	gate := newTestGate(newMemoryRepo(spaceID))

	_, _, err := gate.Issue(context.Background(), " ", spaceID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = gate.Issue(context.Background(), "bot", uuid.Nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = gate.Issue(context.Background(), "bot", uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	spaceID := uuid.New()
	repo := newMemoryRepo(spaceID)
	gate := newTestGate(repo)

	active, activeSecret, err := gate.Issue(ctx, "active", spaceID)
	require.NoError(t, err)
	revoked, revokedSecret, err := gate.Issue(ctx, "revoked", spaceID)
	require.NoError(t, err)
	deleted, deletedSecret, err := gate.Issue(ctx, "deleted", spaceID)
	require.NoError(t, err)

	_, err = gate.Revoke(ctx, revoked.ID)
	require.NoError(t, err)
	_, err = gate.Delete(ctx, deleted.ID)
	require.NoError(t, err)

	neverIssued, err := generateSecret()
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
	}{
		{name: "空文字", secret: ""},
		{name: "形式は正しいが未発行", secret: neverIssued},
		{name: "失効済み", secret: revokedSecret},
		{name: "削除済み", secret: deletedSecret},
		{name: "接頭辞なし", secret: strings.TrimPrefix(activeSecret, SecretPrefix)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, gate.Authenticate(ctx, tt.secret).IsAbsent())
		})
	}

	got, ok := gate.Authenticate(ctx, activeSecret).Get()
	require.True(t, ok)
	assert.Equal(t, active.ID, got.ID)
	assert.Equal(t, spaceID, got.SpaceID)
}

func TestAuthenticate_FailsClosedOnStoreError(t *testing.T) {
	ctx := context.Background()
	spaceID := uuid.New()
	repo := newMemoryRepo(spaceID)
	gate := newTestGate(repo)

	_, secret, err := gate.Issue(ctx, "bot", spaceID)
	require.NoError(t, err)

	repo.findErr = errors.New("connection refused")
	assert.True(t, gate.Authenticate(ctx, secret).IsAbsent())
}

func TestAuthenticate_PepperChangesDigest(t *testing.T) {
	ctx := context.Background()
	spaceID := uuid.New()
	repo := newMemoryRepo(spaceID)

	peppered := newTestGate(repo, WithPepper("server-secret"))
	_, secret, err := peppered.Issue(ctx, "bot", spaceID)
	require.NoError(t, err)

	assert.True(t, peppered.Authenticate(ctx, secret).IsPresent())
	assert.True(t, newTestGate(repo).Authenticate(ctx, secret).IsAbsent())
}

func TestRecordUsage(t *testing.T) {
	ctx := context.Background()
	spaceID := uuid.New()
	repo := newMemoryRepo(spaceID)
	gate := newTestGate(repo)

	cred, _, err := gate.Issue(ctx, "bot", spaceID)
	require.NoError(t, err)

	gate.RecordUsage(ctx, cred)
	gate.RecordUsage(ctx, cred)
	assert.Equal(t, int64(2), repo.creds[cred.ID].UsageCount)
	assert.NotNil(t, repo.creds[cred.ID].LastUsedAt)

	// 失敗しても呼び出し元には影響しない
	repo.usageErr = errors.New("timeout")
	assert.NotPanics(t, func() { gate.RecordUsage(ctx, cred) })
	gate.RecordUsage(ctx, nil)
}

func TestRevokeAndDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	spaceID := uuid.New()
	gate := newTestGate(newMemoryRepo(spaceID))

	cred, _, err := gate.Issue(ctx, "bot", spaceID)
	require.NoError(t, err)

	found, err := gate.Revoke(ctx, cred.ID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = gate.Revoke(ctx, cred.ID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = gate.Delete(ctx, cred.ID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = gate.Delete(ctx, cred.ID)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = gate.Revoke(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestList_FiltersBySpace(t *testing.T) {
	ctx := context.Background()
	spaceA, spaceB := uuid.New(), uuid.New()
	gate := newTestGate(newMemoryRepo(spaceA, spaceB))

	_, _, err := gate.Issue(ctx, "a", spaceA)
	require.NoError(t, err)
	_, _, err = gate.Issue(ctx, "b", spaceB)
	require.NoError(t, err)

	all, err := gate.List(ctx, mo.None[uuid.UUID]())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyA, err := gate.List(ctx, mo.Some(spaceA))
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, "a", onlyA[0].Name)
}

func TestDigestsAreUnique(t *testing.T) {
	const n = 10_000
	seen := make(map[string]struct{}, n)
	for range n {
		secret, err := generateSecret()
		require.NoError(t, err)
		d := digest(secret, nil)
		_, dup := seen[d]
		require.False(t, dup)
		seen[d] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestWellFormed(t *testing.T) {
	secret, err := generateSecret()
	require.NoError(t, err)

	assert.True(t, wellFormed(secret))
	assert.False(t, wellFormed(""))
	assert.False(t, wellFormed("pdx_short"))
	assert.False(t, wellFormed("pdx_"+strings.Repeat("z", 64)))
}
