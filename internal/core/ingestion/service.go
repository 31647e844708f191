package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/polidex/internal/core/apperr"
	"github.com/jinford/polidex/internal/core/chunk"
	"github.com/jinford/polidex/internal/core/vectorindex"
)

const (
	// DefaultCallTimeout は外部呼び出し1回あたりのデフォルトタイムアウト
	DefaultCallTimeout = 60 * time.Second
	// cleanupTimeout は失敗時のベクトル削除に使うタイムアウト
	cleanupTimeout = 30 * time.Second
)

// Service は文書のインデックス化（チャンク分割 → Embedding → ベクトル登録 → チャンク保存）を提供する
type Service struct {
	repository         Repository
	index              vectorindex.Index
	embedder           Embedder
	chunker            *chunk.TextChunker
	loader             TextLoader
	locker             Locker
	embeddingBatchSize int
	callTimeout        time.Duration
	logger             *slog.Logger
}

type serviceOptions struct {
	locker             Locker
	embeddingBatchSize int
	callTimeout        time.Duration
	logger             *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*serviceOptions)

// WithIngestLogger は Service にロガーを設定する
func WithIngestLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithLocker は文書単位の排他制御を設定する
func WithLocker(locker Locker) ServiceOption {
	return func(o *serviceOptions) {
		o.locker = locker
	}
}

// WithEmbeddingBatchSize はEmbeddingのバッチサイズを上書きする
func WithEmbeddingBatchSize(size int) ServiceOption {
	return func(o *serviceOptions) {
		o.embeddingBatchSize = size
	}
}

// WithCallTimeout は外部呼び出し1回あたりのタイムアウトを上書きする
func WithCallTimeout(timeout time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.callTimeout = timeout
	}
}

// NewService は新しい Service を作成する
func NewService(
	repo Repository,
	index vectorindex.Index,
	embedder Embedder,
	chunker *chunk.TextChunker,
	loader TextLoader,
	opts ...ServiceOption,
) *Service {
	options := serviceOptions{
		locker:             noopLocker{},
		embeddingBatchSize: DefaultEmbeddingBatchSize,
		callTimeout:        DefaultCallTimeout,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.locker == nil {
		options.locker = noopLocker{}
	}
	if options.embeddingBatchSize <= 0 {
		options.embeddingBatchSize = DefaultEmbeddingBatchSize
	}
	if chunker == nil {
		chunker = chunk.NewTextChunker()
	}

	return &Service{
		repository:         repo,
		index:              index,
		embedder:           embedder,
		chunker:            chunker,
		loader:             loader,
		locker:             options.locker,
		embeddingBatchSize: options.embeddingBatchSize,
		callTimeout:        options.callTimeout,
		logger:             options.logger,
	}
}

// Ingest はテキストをチャンク化してベクトルインデックスとチャンクテーブルへ登録し、チャンク数を返す
// チャンクが1件も得られない場合はインデックスにもレコードにも触れずに0を返す
// 途中で失敗した場合は登録済みのベクトルを削除してからエラーを返す
func (s *Service) Ingest(ctx context.Context, params IngestParams) (int, error) {
	if params.DocumentID == uuid.Nil {
		return 0, apperr.Validation("documentID is required")
	}
	if len(params.SpaceIDs) == 0 {
		return 0, apperr.Validation("document must belong to at least one space")
	}

	chunks := s.chunker.Chunk(params.Text)
	if len(chunks) == 0 {
		s.logger.Info("チャンクが生成されなかったためスキップ", "documentID", params.DocumentID)
		return 0, nil
	}

	startTime := time.Now()

	vectors, err := s.embedAll(ctx, chunks)
	if err != nil {
		return 0, apperr.Upstream("embed chunks", err)
	}

	records, items := buildRecords(params, chunks, vectors)

	if err := s.addVectors(ctx, items); err != nil {
		s.cleanupVectors(ctx, params.DocumentID)
		return 0, apperr.Upstream("add vectors", err)
	}

	if err := s.repository.SaveChunks(ctx, params.DocumentID, records); err != nil {
		s.cleanupVectors(ctx, params.DocumentID)
		return 0, fmt.Errorf("failed to save chunks: %w", err)
	}

	s.logger.Info("インデックス化が完了",
		"documentID", params.DocumentID,
		"chunkCount", len(records),
		"spaceCount", len(params.SpaceIDs),
		"duration", time.Since(startTime),
	)

	return len(records), nil
}

// Reindex は文書のベクトルとチャンクを削除してから再度インデックス化する
// スペースに1つも所属していない文書は削除のみ行い0を返す
func (s *Service) Reindex(ctx context.Context, documentID uuid.UUID) (int, error) {
	release, err := s.locker.LockDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("failed to lock document %s: %w", documentID, err)
	}
	defer release()

	docOpt, err := s.repository.GetDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("failed to get document: %w", err)
	}
	doc, ok := docOpt.Get()
	if !ok {
		return 0, apperr.NotFound("document", documentID)
	}

	// 抽出に失敗した場合は既存のインデックスを残す
	text, err := s.loader.LoadText(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("failed to load text: %w", err)
	}

	spaceIDs, err := s.repository.ListDocumentSpaceIDs(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("failed to list document spaces: %w", err)
	}

	if err := s.Purge(ctx, documentID); err != nil {
		return 0, err
	}

	if len(spaceIDs) == 0 {
		s.logger.Warn("スペース未所属のため再インデックスをスキップ", "documentID", documentID)
		return 0, nil
	}

	return s.Ingest(ctx, IngestParams{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Text:       text,
		SpaceIDs:   spaceIDs,
	})
}

// Purge は文書のベクトルとチャンクレコードをすべて削除する
// 既存チャンクが無くてもエラーにしない
func (s *Service) Purge(ctx context.Context, documentID uuid.UUID) error {
	if err := s.deleteVectors(ctx, documentID); err != nil {
		return apperr.Upstream("delete vectors", err)
	}
	if err := s.repository.DeleteChunks(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

func (s *Service) addVectors(ctx context.Context, items []vectorindex.Item) error {
	ctx, cancel := s.withCallTimeout(ctx)
	defer cancel()
	return s.index.Add(ctx, items)
}

func (s *Service) deleteVectors(ctx context.Context, documentID uuid.UUID) error {
	ctx, cancel := s.withCallTimeout(ctx)
	defer cancel()
	return s.index.Delete(ctx, vectorindex.ForDocument(documentID))
}

// cleanupVectors は失敗時のベストエフォートなベクトル削除
// 呼び出し元のコンテキストがキャンセル済みでも実行する
func (s *Service) cleanupVectors(ctx context.Context, documentID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := s.index.Delete(ctx, vectorindex.ForDocument(documentID)); err != nil {
		s.logger.Error("ベクトルの後始末に失敗",
			"documentID", documentID,
			"error", err,
		)
	}
}

func (s *Service) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}
