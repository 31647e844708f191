package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/polidex/internal/core/credential"
	"github.com/jinford/polidex/internal/core/document"
	"github.com/jinford/polidex/internal/core/querylog"
	"github.com/jinford/polidex/internal/core/retrieval"
	"github.com/jinford/polidex/internal/core/space"
)

type stubFinder struct {
	byID   map[uuid.UUID]*space.SpaceWithStats
	byName map[string]*space.Space
}

func (f *stubFinder) Get(ctx context.Context, id uuid.UUID) (mo.Option[*space.SpaceWithStats], error) {
	if sp, ok := f.byID[id]; ok {
		return mo.Some(sp), nil
	}
	return mo.None[*space.SpaceWithStats](), nil
}

func (f *stubFinder) GetByName(ctx context.Context, name string) (mo.Option[*space.Space], error) {
	if sp, ok := f.byName[name]; ok {
		return mo.Some(sp), nil
	}
	return mo.None[*space.Space](), nil
}

func newStubFinder() (*stubFinder, *space.Space) {
	sp := &space.Space{ID: uuid.New(), Name: "hr"}
	return &stubFinder{
		byID:   map[uuid.UUID]*space.SpaceWithStats{sp.ID: {Space: *sp}},
		byName: map[string]*space.Space{sp.Name: sp},
	}, sp
}

func TestResolveSpaceID(t *testing.T) {
	finder, sp := newStubFinder()
	ctx := context.Background()

	tests := []struct {
		name    string
		ref     string
		want    uuid.UUID
		wantErr bool
	}{
		{"IDで指定", sp.ID.String(), sp.ID, false},
		{"名前で指定", "hr", sp.ID, false},
		{"前後の空白は無視", "  hr ", sp.ID, false},
		{"存在しないID", uuid.NewString(), uuid.Nil, true},
		{"存在しない名前", "legal", uuid.Nil, true},
		{"空文字", "", uuid.Nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveSpaceID(ctx, finder, tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSpaceIDs_StopsAtFirstError(t *testing.T) {
	finder, sp := newStubFinder()

	ids, err := resolveSpaceIDs(context.Background(), finder, []string{"hr", sp.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{sp.ID, sp.ID}, ids)

	_, err = resolveSpaceIDs(context.Background(), finder, []string{"hr", "missing"})
	assert.Error(t, err)
}

func TestOptionalSpaceID(t *testing.T) {
	finder, sp := newStubFinder()

	got, err := optionalSpaceID(context.Background(), finder, "")
	require.NoError(t, err)
	assert.True(t, got.IsAbsent())

	got, err = optionalSpaceID(context.Background(), finder, "hr")
	require.NoError(t, err)
	assert.Equal(t, mo.Some(sp.ID), got)
}

func TestParseID(t *testing.T) {
	id := uuid.New()
	got, err := parseID(" " + id.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = parseID("abc")
	assert.Error(t, err)
}

func TestRenderTables(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("スペース一覧", func(t *testing.T) {
		var buf bytes.Buffer
		renderSpacesTable(&buf, []*space.SpaceWithStats{
			{Space: space.Space{ID: uuid.New(), Name: "hr", CreatedAt: now}, DocumentCount: 3, CredentialCount: 1},
		})
		assert.Contains(t, buf.String(), "hr")
		assert.Contains(t, buf.String(), "2026-03-01 09:30")
	})

	t.Run("文書一覧", func(t *testing.T) {
		var buf bytes.Buffer
		renderDocumentsTable(&buf, []*document.Document{
			{ID: uuid.New(), Filename: "policy.md", ContentType: "text/markdown", Size: 2048, ChunkCount: 4, CreatedAt: now},
		})
		assert.Contains(t, buf.String(), "policy.md")
		assert.Contains(t, buf.String(), "2048")
	})

	t.Run("APIキー一覧にダイジェストを出さない", func(t *testing.T) {
		var buf bytes.Buffer
		renderKeysTable(&buf, []*credential.Credential{
			{ID: uuid.New(), Name: "bot", SpaceID: uuid.New(), Digest: "deadbeefdigest", Fingerprint: "pdx_01234567", Active: true, UsageCount: 7},
		})
		out := buf.String()
		assert.Contains(t, out, "pdx_01234567")
		assert.NotContains(t, out, "deadbeefdigest")
	})

	t.Run("回答とソース", func(t *testing.T) {
		var buf bytes.Buffer
		renderAnswer(&buf, &retrieval.Result{
			Answer:          "有給は年20日です",
			Sources:         []retrieval.Source{{Filename: "leave.md", ChunkIndex: 2, Score: 0.912345}},
			ChunksRetrieved: 1,
			Model:           "test-model",
		})
		out := buf.String()
		assert.Contains(t, out, "有給は年20日です")
		assert.Contains(t, out, "leave.md")
		assert.Contains(t, out, "0.9123")
	})

	t.Run("集計と履歴", func(t *testing.T) {
		var buf bytes.Buffer
		renderStats(&buf, &querylog.Stats{TotalQueries: 12, AvgLatencyMS: 35.25})
		renderQueryLogs(&buf, []*querylog.Log{{Query: "質問", Source: "api", CreatedAt: now, LatencyMS: 12.3}})
		out := buf.String()
		assert.Contains(t, out, "35.25")
		assert.Contains(t, out, "質問")
	})

	t.Run("取り込み結果", func(t *testing.T) {
		var buf bytes.Buffer
		renderImportResult(&buf, &document.ImportResult{
			Imported: []*document.Document{{ID: uuid.New()}},
			Skipped:  []string{"a.bin"},
			Failed:   map[string]error{"b.txt": errors.New("invalid encoding")},
		})
		out := buf.String()
		assert.Contains(t, out, "取り込み: 1 件, スキップ: 1 件, 失敗: 1 件")
		assert.Contains(t, out, "invalid encoding")
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "あいう...", truncate("あいうえお", 3))
}
