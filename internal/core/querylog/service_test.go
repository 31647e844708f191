package querylog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/polidex/internal/core/apperr"
)

type stubRepo struct {
	entries   []Entry
	lastLimit int
	stats     Stats
}

func (r *stubRepo) InsertQueryLog(ctx context.Context, entry Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubRepo) ListRecentQueryLogs(ctx context.Context, limit int) ([]*Log, error) {
	r.lastLimit = limit
	return []*Log{}, nil
}

func (r *stubRepo) GetStats(ctx context.Context) (*Stats, error) {
	s := r.stats
	return &s, nil
}

func TestService_RecentLimit(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultRecentLimit, repo.lastLimit)

	_, err = svc.Recent(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, 500, repo.lastLimit)

	_, err = svc.Recent(context.Background(), 501)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_StatsRounds(t *testing.T) {
	repo := &stubRepo{stats: Stats{TotalQueries: 3, AvgLatencyMS: 123.4567, AvgChunksRetrieved: 3.3333}}
	svc := NewService(repo)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalQueries)
	assert.InDelta(t, 123.46, stats.AvgLatencyMS, 1e-9)
	assert.InDelta(t, 3.33, stats.AvgChunksRetrieved, 1e-9)
}

func TestService_Record(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	require.NoError(t, svc.Record(context.Background(), Entry{Query: "q", Source: "api"}))
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "api", repo.entries[0].Source)
}
