package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/jinford/polidex/internal/core/apperr"
	"github.com/jinford/polidex/internal/core/ingestion"
)

// Service は文書管理のユースケースを提供する
type Service struct {
	repo      Repository
	store     FileStore
	extractor Extractor
	indexer   Indexer
	logger    *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithDocumentLogger は Service にロガーを設定する
func WithDocumentLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しい Service を作成する
func NewService(repo Repository, store FileStore, extractor Extractor, indexer Indexer, opts ...ServiceOption) *Service {
	svc := &Service{
		repo:      repo,
		store:     store,
		extractor: extractor,
		indexer:   indexer,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// Upload は文書を保存してインデックス化する
// インデックス化に失敗した場合は登録した文書とファイルを取り消してからエラーを返す
func (s *Service) Upload(ctx context.Context, params UploadParams) (*Document, error) {
	filename := filepath.Base(strings.TrimSpace(params.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, apperr.Validation("filename is required")
	}
	spaceIDs := dedupe(params.SpaceIDs)
	if len(spaceIDs) == 0 {
		return nil, apperr.Validation("at least one space is required")
	}
	if !s.extractor.Supported(filename) {
		return nil, apperr.Validation("unsupported file type: %s", filepath.Ext(filename))
	}
	if err := s.ensureSpaces(ctx, spaceIDs); err != nil {
		return nil, err
	}

	contentHash := computeHash(params.Data)
	exists, err := s.repo.ContentHashExists(ctx, contentHash)
	if err != nil {
		return nil, fmt.Errorf("failed to check content hash: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("document with the same content already exists")
	}

	text, err := s.extractor.Extract(ctx, params.Data, filename)
	if err != nil {
		if apperr.IsUpstream(err) {
			return nil, fmt.Errorf("failed to extract text: %w", err)
		}
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	id := uuid.New()
	storagePath, err := s.store.Save(ctx, id.String()+strings.ToLower(filepath.Ext(filename)), params.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &Document{
		ID:          id,
		Filename:    filename,
		ContentType: s.extractor.ContentType(filename),
		Size:        int64(len(params.Data)),
		StoragePath: storagePath,
		ContentHash: contentHash,
		SpaceIDs:    spaceIDs,
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		s.removeFile(ctx, storagePath)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	count, err := s.indexer.Ingest(ctx, ingestion.IngestParams{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Text:       text,
		SpaceIDs:   spaceIDs,
	})
	if err != nil {
		s.rollbackUpload(ctx, doc)
		return nil, fmt.Errorf("failed to index document: %w", err)
	}
	doc.ChunkCount = count

	s.logger.Info("文書を登録",
		"documentID", doc.ID,
		"filename", doc.Filename,
		"chunkCount", count,
		"spaceCount", len(spaceIDs),
	)

	return doc, nil
}

// Get は文書を取得する
func (s *Service) Get(ctx context.Context, id uuid.UUID) (mo.Option[*Document], error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return mo.None[*Document](), fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// List は文書一覧を返す（spaceID 指定時はそのスペース所属のみ）
func (s *Service) List(ctx context.Context, spaceID mo.Option[uuid.UUID]) ([]*Document, error) {
	docs, err := s.repo.ListDocuments(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// Delete はベクトル・チャンク・文書レコード・保存ファイルを削除する
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.mustGet(ctx, id)
	if err != nil {
		return err
	}

	if err := s.indexer.Purge(ctx, id); err != nil {
		return fmt.Errorf("failed to purge index: %w", err)
	}

	found, err := s.repo.DeleteDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if !found {
		return apperr.NotFound("document", id)
	}

	s.removeFile(ctx, doc.StoragePath)
	s.logger.Info("文書を削除", "documentID", id)
	return nil
}

// Reprocess は文書を再インデックス化する
func (s *Service) Reprocess(ctx context.Context, id uuid.UUID) (int, error) {
	if _, err := s.mustGet(ctx, id); err != nil {
		return 0, err
	}
	count, err := s.indexer.Reindex(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to reindex document: %w", err)
	}
	return count, nil
}

// SetSpaces は所属スペースを差し替え、ベクトルのテナント属性を追従させるため再インデックス化する
func (s *Service) SetSpaces(ctx context.Context, id uuid.UUID, spaceIDs []uuid.UUID) (int, error) {
	spaceIDs = dedupe(spaceIDs)
	if len(spaceIDs) == 0 {
		return 0, apperr.Validation("at least one space is required")
	}
	if _, err := s.mustGet(ctx, id); err != nil {
		return 0, err
	}
	if err := s.ensureSpaces(ctx, spaceIDs); err != nil {
		return 0, err
	}

	if err := s.repo.ReplaceDocumentSpaces(ctx, id, spaceIDs); err != nil {
		return 0, fmt.Errorf("failed to replace document spaces: %w", err)
	}

	count, err := s.indexer.Reindex(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to reindex document: %w", err)
	}

	s.logger.Info("所属スペースを更新", "documentID", id, "spaceCount", len(spaceIDs))
	return count, nil
}

func (s *Service) mustGet(ctx context.Context, id uuid.UUID) (*Document, error) {
	docOpt, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc, ok := docOpt.Get()
	if !ok {
		return nil, apperr.NotFound("document", id)
	}
	return doc, nil
}

func (s *Service) ensureSpaces(ctx context.Context, spaceIDs []uuid.UUID) error {
	missing, err := s.repo.MissingSpaces(ctx, spaceIDs)
	if err != nil {
		return fmt.Errorf("failed to check spaces: %w", err)
	}
	if len(missing) > 0 {
		return apperr.NotFound("space", missing[0])
	}
	return nil
}

func (s *Service) rollbackUpload(ctx context.Context, doc *Document) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.repo.DeleteDocument(ctx, doc.ID); err != nil {
		s.logger.Error("登録取り消しに失敗", "documentID", doc.ID, "error", err)
	}
	s.removeFile(ctx, doc.StoragePath)
}

func (s *Service) removeFile(ctx context.Context, path string) {
	if err := s.store.Remove(ctx, path); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		s.logger.Warn("ファイル削除に失敗", "path", path, "error", err)
	}
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
