// Package filesource はディレクトリ配下のインポート対象ファイルを列挙する。
package filesource

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jinford/polidex/internal/core/document"
)

// DefaultMaxFileSize はこれを超えるファイルを読み飛ばす
const DefaultMaxFileSize int64 = 10 << 20

// Walker はローカルディレクトリを走査する document.FileSource 実装
type Walker struct {
	maxFileSize int64
	extra       []string
	logger      *slog.Logger
}

// WalkerOption は Walker のオプション設定
type WalkerOption func(*Walker)

// WithWalkerLogger は Walker にロガーを設定する
func WithWalkerLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		w.logger = logger
	}
}

// WithMaxFileSize は読み込むファイルサイズの上限を設定する
func WithMaxFileSize(n int64) WalkerOption {
	return func(w *Walker) {
		if n > 0 {
			w.maxFileSize = n
		}
	}
}

// WithIgnorePatterns は追加の除外パターンを設定する
func WithIgnorePatterns(patterns ...string) WalkerOption {
	return func(w *Walker) {
		w.extra = append(w.extra, patterns...)
	}
}

// NewWalker は新しい Walker を作成する
func NewWalker(opts ...WalkerOption) *Walker {
	w := &Walker{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ListFiles は root 配下の除外対象でない通常ファイルを読み込んで返す
// Path は root からの相対パス
func (w *Walker) ListFiles(ctx context.Context, root string) ([]document.SourceFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	filter, err := NewIgnoreFilter(root, w.extra...)
	if err != nil {
		return nil, err
	}

	var files []document.SourceFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if filter.ShouldIgnore(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		if fi.Size() > w.maxFileSize {
			w.logger.Warn("サイズ上限を超えるファイルをスキップ", "path", rel, "size", fi.Size())
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}
		files = append(files, document.SourceFile{Path: filepath.ToSlash(rel), Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return files, nil
}

var _ document.FileSource = (*Walker)(nil)
