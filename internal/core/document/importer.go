package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jinford/polidex/internal/core/apperr"
)

// SourceFile はインポート対象のファイル
type SourceFile struct {
	Path string
	Data []byte
}

// FileSource はインポート対象ファイルを列挙するインターフェース
type FileSource interface {
	ListFiles(ctx context.Context, root string) ([]SourceFile, error)
}

// ImportResult はディレクトリインポートの結果
type ImportResult struct {
	Imported []*Document
	Skipped  []string
	Failed   map[string]error
}

// Importer はディレクトリ配下の文書を一括登録する
type Importer struct {
	service     *Service
	source      FileSource
	concurrency int
	logger      *slog.Logger
}

// ImporterOption は Importer のオプション設定
type ImporterOption func(*Importer)

// WithImporterLogger は Importer にロガーを設定する
func WithImporterLogger(logger *slog.Logger) ImporterOption {
	return func(i *Importer) {
		i.logger = logger
	}
}

// WithImportConcurrency は同時アップロード数を設定する
func WithImportConcurrency(n int) ImporterOption {
	return func(i *Importer) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// NewImporter は新しい Importer を作成する
func NewImporter(service *Service, source FileSource, opts ...ImporterOption) *Importer {
	imp := &Importer{
		service:     service,
		source:      source,
		concurrency: 4,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Import は root 配下の対応ファイルを spaceIDs に登録する
// 内容重複と非対応形式はスキップし、それ以外の失敗はファイル単位で記録して続行する
func (i *Importer) Import(ctx context.Context, root string, spaceIDs []uuid.UUID) (*ImportResult, error) {
	files, err := i.source.ListFiles(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	result := &ImportResult{Failed: make(map[string]error)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)

	for _, f := range files {
		if !i.service.extractor.Supported(f.Path) {
			result.Skipped = append(result.Skipped, f.Path)
			continue
		}
		g.Go(func() error {
			doc, err := i.service.Upload(gctx, UploadParams{
				Filename: f.Path,
				Data:     f.Data,
				SpaceIDs: spaceIDs,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Imported = append(result.Imported, doc)
			case errors.Is(err, apperr.ErrConflict):
				result.Skipped = append(result.Skipped, f.Path)
			case errors.Is(err, context.Canceled):
				return err
			default:
				i.logger.Warn("インポートに失敗", "path", f.Path, "error", err)
				result.Failed[f.Path] = err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	i.logger.Info("インポート完了",
		"root", root,
		"imported", len(result.Imported),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
	)
	return result, nil
}
