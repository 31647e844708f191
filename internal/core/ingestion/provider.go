package ingestion

import (
	"context"

	"github.com/google/uuid"
)

// TextLoader は保存済み文書から本文テキストを取り出すインターフェース
type TextLoader interface {
	LoadText(ctx context.Context, doc *Document) (string, error)
}

// Locker は文書単位の排他を提供するインターフェース
// 返された release は必ず呼び出すこと
type Locker interface {
	LockDocument(ctx context.Context, documentID uuid.UUID) (release func(), err error)
}

type noopLocker struct{}

func (noopLocker) LockDocument(ctx context.Context, documentID uuid.UUID) (func(), error) {
	return func() {}, nil
}

var _ Locker = noopLocker{}
