// Package apperr はアプリケーション全体で共有するエラー種別を定義する。
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation は入力不正を表す
	ErrValidation = errors.New("validation error")

	// ErrUpstreamUnavailable は埋め込み・ベクトルインデックス・生成などの外部依存の障害を表す
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotFound は対象が存在しないことを表す
	ErrNotFound = errors.New("not found")

	// ErrConflict は一意制約の衝突を表す
	ErrConflict = errors.New("conflict")
)

// Validation は ErrValidation をラップしたエラーを返す
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Upstream は外部依存の呼び出し失敗を ErrUpstreamUnavailable としてラップする
// 元のエラーも errors.Is / errors.As で辿れる
func Upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, op, err)
}

// NotFound は ErrNotFound をラップしたエラーを返す
func NotFound(kind string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, kind, id)
}

// Conflict は ErrConflict をラップしたエラーを返す
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// IsUpstream は外部依存起因のエラーかどうかを判定する
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
