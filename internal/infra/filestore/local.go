// Package filestore はアップロードファイルをローカルディスクに保存する。
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jinford/polidex/internal/core/apperr"
	"github.com/jinford/polidex/internal/core/document"
)

// LocalStore はディレクトリ配下にファイルを保存する
type LocalStore struct {
	root string
}

// NewLocalStore は root を作成して LocalStore を返す
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Save は name でファイルを書き込み、保存先パスを返す
func (s *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		return "", apperr.Validation("invalid storage name: %q", name)
	}

	path := filepath.Join(s.root, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to rename file: %w", err)
	}
	return path, nil
}

// Read は保存済みファイルを読み込む
func (s *LocalStore) Read(ctx context.Context, path string) ([]byte, error) {
	if err := s.contains(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.NotFound("file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Remove は保存済みファイルを削除する
func (s *LocalStore) Remove(ctx context.Context, path string) error {
	if err := s.contains(path); err != nil {
		return err
	}
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return apperr.NotFound("file", path)
	}
	if err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func (s *LocalStore) contains(path string) error {
	rel, err := filepath.Rel(s.root, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return apperr.Validation("path outside upload directory: %s", path)
	}
	return nil
}

var _ document.FileStore = (*LocalStore)(nil)
