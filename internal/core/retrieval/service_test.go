package retrieval

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
	"github.com/jinford/polidex/internal/core/querylog"
	"github.com/jinford/polidex/internal/core/vectorindex"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.vector, e.err
}

type stubGenerator struct {
	calls   int
	lastReq GenerateRequest
	err     error
}

func (g *stubGenerator) Generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return &Generation{Text: "answer", Model: "served-model", Usage: Usage{TotalTokens: 42}}, nil
}

func (g *stubGenerator) DefaultModel() string { return "default-model" }

type stubRecorder struct {
	entries []querylog.Entry
	err     error
}

func (r *stubRecorder) Record(ctx context.Context, entry querylog.Entry) error {
	r.entries = append(r.entries, entry)
	return r.err
}

type l2Index struct{ *vectorindex.MemoryIndex }

// unavailableIndex は検索が常に失敗するインデックス
type unavailableIndex struct {
	*vectorindex.MemoryIndex
	queries int
}

func (u *unavailableIndex) Query(ctx context.Context, embedding []float32, k int, filter vectorindex.Filter) ([]vectorindex.Neighbor, error) {
	u.queries++
	return nil, errors.New("connection refused")
}

func (l2Index) Metric() vectorindex.Metric { return vectorindex.Metric("l2") }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{AddSource: false}))
}

func seed(t *testing.T, idx *vectorindex.MemoryIndex, spaceID uuid.UUID, items ...vectorindex.Item) {
	t.Helper()
	for i := range items {
		items[i].Metadata.SpaceIDs = append(items[i].Metadata.SpaceIDs, spaceID)
	}
	require.NoError(t, idx.Add(context.Background(), items))
}

func TestQuery_NoNeighborsSkipsGeneration(t *testing.T) {
	idx := vectorindex.NewMemoryIndex()
	gen := &stubGenerator{}
	rec := &stubRecorder{}
	svc := NewService(idx, &stubEmbedder{vector: []float32{1, 0}}, gen,
		WithQueryRecorder(rec), WithRetrievalLogger(testLogger()))

	// 別スペースのベクトルは対象外
	seed(t, idx, uuid.New(), vectorindex.Item{ExternalID: "x", Embedding: []float32{1, 0}, Content: "other"})

	result, err := svc.Query(context.Background(), QueryParams{Question: "what is the leave policy?", SpaceID: uuid.New()})

	require.NoError(t, err)
	assert.Equal(t, NoContextAnswer, result.Answer)
	assert.Empty(t, result.Sources)
	assert.Equal(t, 0, result.ChunksRetrieved)
	assert.Equal(t, "default-model", result.Model)
	assert.Equal(t, 0, gen.calls)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, 0, rec.entries[0].ChunksRetrieved)
	assert.Equal(t, "chat", rec.entries[0].Source)
}

func TestQuery_TwoMatchesOrderedByScore(t *testing.T) {
	idx := vectorindex.NewMemoryIndex()
	spaceID := uuid.New()
	docID := uuid.New()
	seed(t, idx, spaceID,
		vectorindex.Item{ExternalID: "far", Embedding: []float32{0.6, 0.8}, Content: "far chunk", Metadata: vectorindex.Metadata{DocumentID: docID, Filename: "a.md", ChunkIndex: 1}},
		vectorindex.Item{ExternalID: "near", Embedding: []float32{1, 0.1}, Content: "near chunk", Metadata: vectorindex.Metadata{DocumentID: docID, Filename: "a.md", ChunkIndex: 0}},
	)
	seed(t, idx, uuid.New(), vectorindex.Item{ExternalID: "foreign", Embedding: []float32{1, 0}, Content: "foreign"})

	gen := &stubGenerator{}
	svc := NewService(idx, &stubEmbedder{vector: []float32{1, 0}}, gen, WithRetrievalLogger(testLogger()))

	result, err := svc.Query(context.Background(), QueryParams{Question: "q", SpaceID: spaceID, TopK: 5})

	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunksRetrieved)
	require.Len(t, result.Sources, 2)
	assert.Equal(t, 0, result.Sources[0].ChunkIndex)
	assert.Equal(t, 1, result.Sources[1].ChunkIndex)
	assert.Greater(t, result.Sources[0].Score, result.Sources[1].Score)
	assert.InDelta(t, 0.6, result.Sources[1].Score, 1e-6)
	assert.Equal(t, "answer", result.Answer)
	assert.Equal(t, "served-model", result.Model)
	assert.Equal(t, 1, gen.calls)

	user := gen.lastReq.Messages[1].Content
	assert.Less(t, strings.Index(user, "near chunk"), strings.Index(user, "far chunk"))
	assert.NotContains(t, user, "foreign")
}

func TestQuery_PreviewTruncatedButGenerationGetsFullText(t *testing.T) {
	idx := vectorindex.NewMemoryIndex()
	spaceID := uuid.New()
	long := strings.Repeat("p", 800)
	seed(t, idx, spaceID, vectorindex.Item{ExternalID: "l", Embedding: []float32{1, 0}, Content: long})

	gen := &stubGenerator{}
	svc := NewService(idx, &stubEmbedder{vector: []float32{1, 0}}, gen, WithRetrievalLogger(testLogger()))

	result, err := svc.Query(context.Background(), QueryParams{Question: "q", SpaceID: spaceID})

	require.NoError(t, err)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, strings.Repeat("p", 500)+"...", result.Sources[0].Content)
	assert.Contains(t, gen.lastReq.Messages[1].Content, long)
}

func TestQuery_GenerationFailureIsNotLogged(t *testing.T) {
	idx := vectorindex.NewMemoryIndex()
	spaceID := uuid.New()
	seed(t, idx, spaceID, vectorindex.Item{ExternalID: "a", Embedding: []float32{1, 0}, Content: "c"})

	rec := &stubRecorder{}
	svc := NewService(idx, &stubEmbedder{vector: []float32{1, 0}}, &stubGenerator{err: errors.New("502 bad gateway")},
		WithQueryRecorder(rec), WithRetrievalLogger(testLogger()))

	_, err := svc.Query(context.Background(), QueryParams{Question: "q", SpaceID: spaceID})

	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
	assert.Empty(t, rec.entries)
}

func TestQuery_EmbedFailureIsUpstream(t *testing.T) {
	gen := &stubGenerator{}
	svc := NewService(vectorindex.NewMemoryIndex(), &stubEmbedder{err: context.DeadlineExceeded}, gen, WithRetrievalLogger(testLogger()))

	_, err := svc.Query(context.Background(), QueryParams{Question: "q", SpaceID: uuid.New()})

	assert.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, gen.calls)
}

func TestQuery_IndexFailureIsUpstream(t *testing.T) {
	idx := &unavailableIndex{MemoryIndex: vectorindex.NewMemoryIndex()}
	gen := &stubGenerator{}
	rec := &stubRecorder{}
	svc := NewService(idx, &stubEmbedder{vector: []float32{1, 0}}, gen,
		WithQueryRecorder(rec), WithRetrievalLogger(testLogger()))

	result, err := svc.Query(context.Background(), QueryParams{Question: "q", SpaceID: uuid.New()})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, apperr.ErrUpstreamUnavailable))
	assert.Equal(t, 1, idx.queries)
	assert.Equal(t, 0, gen.calls)
	assert.Empty(t, rec.entries)
}

func TestQuery_Validation(t *testing.T) {
	svc := NewService(vectorindex.NewMemoryIndex(), &stubEmbedder{}, &stubGenerator{}, WithRetrievalLogger(testLogger()))

	tests := []struct {
		name   string
		params QueryParams
	}{
		{name: "質問が空", params: QueryParams{Question: "  ", SpaceID: uuid.New()}},
		{name: "スペース未指定", params: QueryParams{Question: "q"}},
		{name: "topKが上限超過", params: QueryParams{Question: "q", SpaceID: uuid.New(), TopK: MaxTopK + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Query(context.Background(), tt.params)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestQuery_RecorderFailureDoesNotFailQuery(t *testing.T) {
	idx := vectorindex.NewMemoryIndex()
	spaceID := uuid.New()
	seed(t, idx, spaceID, vectorindex.Item{ExternalID: "a", Embedding: []float32{1, 0}, Content: "c"})

	rec := &stubRecorder{err: errors.New("db down")}
	credID := uuid.New()
	svc := NewService(idx, &stubEmbedder{vector: []float32{1, 0}}, &stubGenerator{},
		WithQueryRecorder(rec), WithRetrievalLogger(testLogger()))

	result, err := svc.Query(context.Background(), QueryParams{
		Question:     "q",
		SpaceID:      spaceID,
		CredentialID: mo.Some(credID),
		Channel:      ChannelAPI,
	})

	require.NoError(t, err)
	assert.Equal(t, "answer", result.Answer)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, "api", rec.entries[0].Source)
	assert.Equal(t, credID, rec.entries[0].CredentialID.MustGet())
	assert.Equal(t, 1, rec.entries[0].ChunksRetrieved)
}

func TestQuery_LatencyUsesExplicitTimestamps(t *testing.T) {
	idx := vectorindex.NewMemoryIndex()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(250 * time.Millisecond)}
	clock := func() time.Time {
		now := ticks[0]
		if len(ticks) > 1 {
			ticks = ticks[1:]
		}
		return now
	}

	svc := NewService(idx, &stubEmbedder{vector: []float32{1, 0}}, &stubGenerator{},
		WithRetrievalLogger(testLogger()), withClock(clock))

	result, err := svc.Query(context.Background(), QueryParams{Question: "q", SpaceID: uuid.New()})

	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, result.Latency)
}

func TestQuery_RejectsNonCosineIndex(t *testing.T) {
	mem := vectorindex.NewMemoryIndex()
	spaceID := uuid.New()
	seed(t, mem, spaceID, vectorindex.Item{ExternalID: "a", Embedding: []float32{1, 0}, Content: "c"})

	gen := &stubGenerator{}
	svc := NewService(l2Index{mem}, &stubEmbedder{vector: []float32{1, 0}}, gen, WithRetrievalLogger(testLogger()))

	_, err := svc.Query(context.Background(), QueryParams{Question: "q", SpaceID: spaceID})

	assert.Error(t, err)
	assert.Equal(t, 0, gen.calls)
}
