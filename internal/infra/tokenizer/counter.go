// Package tokenizer は tiktoken によるトークン数計測を提供する。
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding は OpenAI の埋め込み・チャットモデルが用いるエンコーディング
const DefaultEncoding = "cl100k_base"

// Counter はトークン数をカウントする
type Counter struct {
	encoding *tiktoken.Tiktoken
}

// NewCounter は指定エンコーディングの Counter を作成する
func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}
	return &Counter{encoding: enc}, nil
}

// CountTokens はテキストのトークン数を返す
func (c *Counter) CountTokens(text string) int {
	if c == nil || c.encoding == nil {
		return EstimateTokens(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// EstimateTokens はエンコーディングなしでトークン数を概算する（3文字で1トークン）
func EstimateTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return (n + 2) / 3
}
