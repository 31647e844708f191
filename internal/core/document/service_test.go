package document

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/polidex/internal/core/apperr"
	"github.com/jinford/polidex/internal/core/ingestion"
)

type memoryRepo struct {
	mu     sync.Mutex
	docs   map[uuid.UUID]*Document
	spaces map[uuid.UUID]bool
}

func newMemoryRepo(spaceIDs ...uuid.UUID) *memoryRepo {
	r := &memoryRepo{
		docs:   make(map[uuid.UUID]*Document),
		spaces: make(map[uuid.UUID]bool),
	}
	for _, id := range spaceIDs {
		r.spaces[id] = true
	}
	return r
}

func (r *memoryRepo) CreateDocument(ctx context.Context, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ContentHash == doc.ContentHash {
			return apperr.Conflict("duplicate content")
		}
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memoryRepo) GetDocument(ctx context.Context, id uuid.UUID) (mo.Option[*Document], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return mo.None[*Document](), nil
	}
	cp := *d
	return mo.Some(&cp), nil
}

func (r *memoryRepo) ContentHashExists(ctx context.Context, contentHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ContentHash == contentHash {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) ListDocuments(ctx context.Context, spaceID mo.Option[uuid.UUID]) ([]*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Document
	for _, d := range r.docs {
		if sid, ok := spaceID.Get(); ok {
			member := false
			for _, id := range d.SpaceIDs {
				if id == sid {
					member = true
				}
			}
			if !member {
				continue
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

func (r *memoryRepo) DeleteDocument(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.docs[id]
	delete(r.docs, id)
	return ok, nil
}

func (r *memoryRepo) ReplaceDocumentSpaces(ctx context.Context, documentID uuid.UUID, spaceIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[documentID].SpaceIDs = spaceIDs
	return nil
}

func (r *memoryRepo) MissingSpaces(ctx context.Context, spaceIDs []uuid.UUID) ([]uuid.UUID, error) {
	var missing []uuid.UUID
	for _, id := range spaceIDs {
		if !r.spaces[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type memoryStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: make(map[string][]byte)}
}

func (s *memoryStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := "uploads/" + name
	s.files[path] = data
	return path, nil
}

func (s *memoryStore) Read(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, apperr.NotFound("file", path)
	}
	return data, nil
}

func (s *memoryStore) Remove(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type textExtractor struct{}

func (textExtractor) Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".txt" || ext == ".md"
}

func (textExtractor) ContentType(filename string) string {
	return "text/plain"
}

func (textExtractor) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	if strings.Contains(string(data), "\x00") {
		return "", errors.New("binary content")
	}
	return string(data), nil
}

type stubIndexer struct {
	mu        sync.Mutex
	ingested  []ingestion.IngestParams
	reindexed []uuid.UUID
	purged    []uuid.UUID
	ingestErr error
}

func (i *stubIndexer) Ingest(ctx context.Context, params ingestion.IngestParams) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.ingestErr != nil {
		return 0, i.ingestErr
	}
	i.ingested = append(i.ingested, params)
	return 3, nil
}

func (i *stubIndexer) Reindex(ctx context.Context, documentID uuid.UUID) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.reindexed = append(i.reindexed, documentID)
	return 2, nil
}

func (i *stubIndexer) Purge(ctx context.Context, documentID uuid.UUID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.purged = append(i.purged, documentID)
	return nil
}

type fixture struct {
	svc     *Service
	repo    *memoryRepo
	store   *memoryStore
	indexer *stubIndexer
	spaceA  uuid.UUID
	spaceB  uuid.UUID
}

func newFixture() *fixture {
	spaceA, spaceB := uuid.New(), uuid.New()
	f := &fixture{
		repo:    newMemoryRepo(spaceA, spaceB),
		store:   newMemoryStore(),
		indexer: &stubIndexer{},
		spaceA:  spaceA,
		spaceB:  spaceB,
	}
	f.svc = NewService(f.repo, f.store, textExtractor{}, f.indexer)
	return f
}

func TestUpload_StoresAndIndexes(t *testing.T) {
	f := newFixture()

	doc, err := f.svc.Upload(context.Background(), UploadParams{
		Filename: "  guide.md ",
		Data:     []byte("# Guide\n\nHello."),
		SpaceIDs: []uuid.UUID{f.spaceA, f.spaceA, f.spaceB},
	})
	require.NoError(t, err)

	assert.Equal(t, "guide.md", doc.Filename)
	assert.Equal(t, 3, doc.ChunkCount)
	assert.Equal(t, []uuid.UUID{f.spaceA, f.spaceB}, doc.SpaceIDs)
	assert.Len(t, doc.ContentHash, 64)
	assert.Equal(t, int64(15), doc.Size)
	assert.Equal(t, 1, f.store.count())

	require.Len(t, f.indexer.ingested, 1)
	assert.Equal(t, doc.ID, f.indexer.ingested[0].DocumentID)
	assert.Equal(t, "# Guide\n\nHello.", f.indexer.ingested[0].Text)
	assert.Equal(t, []uuid.UUID{f.spaceA, f.spaceB}, f.indexer.ingested[0].SpaceIDs)
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		params  func(f *fixture) UploadParams
		wantErr error
	}{
		{
			name: "ファイル名が空",
			params: func(f *fixture) UploadParams {
				return UploadParams{Filename: " ", Data: []byte("x"), SpaceIDs: []uuid.UUID{f.spaceA}}
			},
			wantErr: apperr.ErrValidation,
		},
		{
			name: "スペース未指定",
			params: func(f *fixture) UploadParams {
				return UploadParams{Filename: "a.txt", Data: []byte("x")}
			},
			wantErr: apperr.ErrValidation,
		},
		{
			name: "非対応形式",
			params: func(f *fixture) UploadParams {
				return UploadParams{Filename: "a.exe", Data: []byte("x"), SpaceIDs: []uuid.UUID{f.spaceA}}
			},
			wantErr: apperr.ErrValidation,
		},
		{
			name: "存在しないスペース",
			params: func(f *fixture) UploadParams {
				return UploadParams{Filename: "a.txt", Data: []byte("x"), SpaceIDs: []uuid.UUID{uuid.New()}}
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "抽出失敗",
			params: func(f *fixture) UploadParams {
				return UploadParams{Filename: "a.txt", Data: []byte("a\x00b"), SpaceIDs: []uuid.UUID{f.spaceA}}
			},
			wantErr: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Upload(context.Background(), tt.params(f))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.store.count())
			assert.Empty(t, f.indexer.ingested)
		})
	}
}

func TestUpload_DuplicateContentConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, UploadParams{Filename: "a.txt", Data: []byte("same"), SpaceIDs: []uuid.UUID{f.spaceA}})
	require.NoError(t, err)

	_, err = f.svc.Upload(ctx, UploadParams{Filename: "b.txt", Data: []byte("same"), SpaceIDs: []uuid.UUID{f.spaceB}})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 1, f.store.count())
}

func TestUpload_IndexFailureRollsBack(t *testing.T) {
	f := newFixture()
	f.indexer.ingestErr = apperr.Upstream("embed chunks", errors.New("boom"))

	_, err := f.svc.Upload(context.Background(), UploadParams{
		Filename: "a.txt",
		Data:     []byte("content"),
		SpaceIDs: []uuid.UUID{f.spaceA},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsUpstream(err))

	docs, err := f.svc.List(context.Background(), mo.None[uuid.UUID]())
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 0, f.store.count())

	// 取り消し後は同じ内容で再アップロードできる
	f.indexer.ingestErr = nil
	_, err = f.svc.Upload(context.Background(), UploadParams{
		Filename: "a.txt",
		Data:     []byte("content"),
		SpaceIDs: []uuid.UUID{f.spaceA},
	})
	assert.NoError(t, err)
}

// unavailableExtractor は外部の変換ツールが使えない状態を表す
type unavailableExtractor struct{ textExtractor }

func (unavailableExtractor) Supported(filename string) bool { return true }

func (unavailableExtractor) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	return "", apperr.Upstream("extract pdf", errors.New("pdftotext not found"))
}

func TestUpload_ExtractorUnavailableIsUpstream(t *testing.T) {
	f := newFixture()
	f.svc = NewService(f.repo, f.store, unavailableExtractor{}, f.indexer)

	_, err := f.svc.Upload(context.Background(), UploadParams{
		Filename: "manual.pdf",
		Data:     []byte("%PDF-1.7"),
		SpaceIDs: []uuid.UUID{f.spaceA},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsUpstream(err))
	assert.NotErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, f.store.count())
	assert.Empty(t, f.indexer.ingested)
}

func TestDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, UploadParams{Filename: "a.txt", Data: []byte("x"), SpaceIDs: []uuid.UUID{f.spaceA}})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, doc.ID))
	assert.Equal(t, []uuid.UUID{doc.ID}, f.indexer.purged)
	assert.Equal(t, 0, f.store.count())

	got, err := f.svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAbsent())

	err = f.svc.Delete(ctx, doc.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReprocess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, UploadParams{Filename: "a.txt", Data: []byte("x"), SpaceIDs: []uuid.UUID{f.spaceA}})
	require.NoError(t, err)

	count, err := f.svc.Reprocess(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []uuid.UUID{doc.ID}, f.indexer.reindexed)

	_, err = f.svc.Reprocess(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSetSpaces(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, UploadParams{Filename: "a.txt", Data: []byte("x"), SpaceIDs: []uuid.UUID{f.spaceA}})
	require.NoError(t, err)

	_, err = f.svc.SetSpaces(ctx, doc.ID, []uuid.UUID{f.spaceB})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{doc.ID}, f.indexer.reindexed)

	inB, err := f.svc.List(ctx, mo.Some(f.spaceB))
	require.NoError(t, err)
	require.Len(t, inB, 1)

	inA, err := f.svc.List(ctx, mo.Some(f.spaceA))
	require.NoError(t, err)
	assert.Empty(t, inA)

	_, err = f.svc.SetSpaces(ctx, doc.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.SetSpaces(ctx, doc.ID, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTextLoader(t *testing.T) {
	store := newMemoryStore()
	path, err := store.Save(context.Background(), "x.txt", []byte("hello"))
	require.NoError(t, err)

	loader := NewTextLoader(store, textExtractor{})
	text, err := loader.LoadText(context.Background(), &ingestion.Document{Filename: "x.txt", StoragePath: path})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = loader.LoadText(context.Background(), &ingestion.Document{Filename: "y.txt", StoragePath: "missing"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
