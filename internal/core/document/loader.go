package document

import (
	"context"
	"fmt"

	"github.com/jinford/polidex/internal/core/ingestion"
)

// TextLoader は保存済みファイルを読み出して本文を抽出する ingestion.TextLoader 実装
type TextLoader struct {
	store     FileStore
	extractor Extractor
}

// NewTextLoader は新しい TextLoader を作成する
func NewTextLoader(store FileStore, extractor Extractor) *TextLoader {
	return &TextLoader{store: store, extractor: extractor}
}

// LoadText は文書の本文テキストを返す
func (l *TextLoader) LoadText(ctx context.Context, doc *ingestion.Document) (string, error) {
	data, err := l.store.Read(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("failed to read stored file: %w", err)
	}
	text, err := l.extractor.Extract(ctx, data, doc.Filename)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

var _ ingestion.TextLoader = (*TextLoader)(nil)
