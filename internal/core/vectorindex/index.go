// Package vectorindex はベクトルインデックスのポートとテナントタグの規約を定義する。
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Metric はインデックスが返す距離の種類
type Metric string

const (
	// MetricCosine はコサイン距離（1 - コサイン類似度、値域は [0, 2]）
	MetricCosine Metric = "cosine"
)

// ErrEmptyFilter は条件なしの削除を拒否したことを表す
var ErrEmptyFilter = errors.New("delete requires a filter")

// Metadata はベクトルに付随する属性
type Metadata struct {
	DocumentID uuid.UUID
	Filename   string
	ChunkIndex int
	SpaceIDs   []uuid.UUID
}

// Item はインデックスへ追加する1件分のデータ
type Item struct {
	ExternalID string
	Embedding  []float32
	Content    string
	Metadata   Metadata
}

// Filter は検索・削除対象の条件
// SpaceID はテナント属性に指定 ID が含まれること、DocumentID は文書 ID の一致を表す
type Filter struct {
	SpaceID    *uuid.UUID
	DocumentID *uuid.UUID
}

// Neighbor は検索結果の1件を表す（距離の昇順で返る）
type Neighbor struct {
	ExternalID string
	Content    string
	Metadata   Metadata
	Distance   float64
}

// Index はベクトルインデックスのポート
// 返す距離はコサイン距離でなければならない
type Index interface {
	// Add はベクトルを追加する
	Add(ctx context.Context, items []Item) error
	// Query はフィルタに合致するベクトルから近い順に最大 k 件を返す
	Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]Neighbor, error)
	// Delete はフィルタに合致するベクトルを削除する（条件なしは ErrEmptyFilter）
	Delete(ctx context.Context, filter Filter) error
	// Metric は距離の種類を返す
	Metric() Metric
}

// ForSpace はテナントで絞り込むフィルタを返す
func ForSpace(spaceID uuid.UUID) Filter {
	return Filter{SpaceID: &spaceID}
}

// ForDocument は文書で絞り込むフィルタを返す
func ForDocument(documentID uuid.UUID) Filter {
	return Filter{DocumentID: &documentID}
}

// IsEmpty は条件が何も指定されていないかを返す
func (f Filter) IsEmpty() bool {
	return f.SpaceID == nil && f.DocumentID == nil
}

// EncodeSpaceTags は文字列の包含検索しかできないストア向けにテナント ID 集合を ",id1,id2," 形式へ符号化する
// 区切り文字で両端を囲むことで ID の前方一致による誤検出を防ぐ
func EncodeSpaceTags(spaceIDs []uuid.UUID) string {
	if len(spaceIDs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(",")
	for _, id := range spaceIDs {
		b.WriteString(id.String())
		b.WriteString(",")
	}
	return b.String()
}

// SpaceTag は包含検索に使う単一テナントの検索語を返す
func SpaceTag(spaceID uuid.UUID) string {
	return "," + spaceID.String() + ","
}

// DecodeSpaceTags は EncodeSpaceTags の逆変換
func DecodeSpaceTags(encoded string) ([]uuid.UUID, error) {
	parts := strings.Split(strings.Trim(encoded, ","), ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid space tag %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Score はコサイン距離を関連度スコア（1 - distance）に変換する
// インデックスがコサイン距離以外を返す場合や値域外の距離はエラーとする
func Score(metric Metric, distance float64) (float64, error) {
	if metric != MetricCosine {
		return 0, fmt.Errorf("relevance score requires cosine distance, got %q", metric)
	}
	// 浮動小数点誤差を許容する
	const eps = 1e-6
	if distance < -eps || distance > 2+eps {
		return 0, fmt.Errorf("cosine distance out of range: %f", distance)
	}
	return 1 - distance, nil
}
