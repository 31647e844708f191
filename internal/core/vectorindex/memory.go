package vectorindex

import (
	"context"
	"slices"
	"sync"
)

// MemoryIndex はプロセス内で全件走査するインデックス
// 開発用と単体テスト用で、永続化はしない
type MemoryIndex struct {
	mu    sync.RWMutex
	items []Item
}

// NewMemoryIndex は空の MemoryIndex を作成する
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Add はベクトルを追加する
func (m *MemoryIndex) Add(ctx context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
	return nil
}

// Query は全件のコサイン距離を計算して近い順に返す
func (m *MemoryIndex) Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]Neighbor, error) {
	if k <= 0 {
		return []Neighbor{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	neighbors := make([]Neighbor, 0, len(m.items))
	for _, it := range m.items {
		if !matches(it.Metadata, filter) {
			continue
		}
		dist, err := CosineDistance(embedding, it.Embedding)
		if err != nil {
			return nil, err
		}
		neighbors = append(neighbors, Neighbor{
			ExternalID: it.ExternalID,
			Content:    it.Content,
			Metadata:   it.Metadata,
			Distance:   dist,
		})
	}

	return TopK(neighbors, k), nil
}

// Delete はフィルタに合致するベクトルを削除する
func (m *MemoryIndex) Delete(ctx context.Context, filter Filter) error {
	if filter.IsEmpty() {
		return ErrEmptyFilter
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = slices.DeleteFunc(m.items, func(it Item) bool {
		return matches(it.Metadata, filter)
	})
	return nil
}

// Metric はコサイン距離を返す
func (m *MemoryIndex) Metric() Metric {
	return MetricCosine
}

// Len は保持件数を返す
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func matches(meta Metadata, filter Filter) bool {
	if filter.DocumentID != nil && meta.DocumentID != *filter.DocumentID {
		return false
	}
	if filter.SpaceID != nil && !slices.Contains(meta.SpaceIDs, *filter.SpaceID) {
		return false
	}
	return true
}

var _ Index = (*MemoryIndex)(nil)
