// Package chunk は抽出済みテキストを重なりのあるチャンクへ分割する。
package chunk

import (
	"strings"
	"unicode"
)

const (
	// DefaultSize はチャンクの目標文字数
	DefaultSize = 1000
	// DefaultOverlap は隣接チャンク間で重複させる文字数
	DefaultOverlap = 200
	// DefaultLookback は区切り位置を後方探索する最大文字数
	DefaultLookback = 200
)

// separators は区切りの優先順位（先頭ほど優先）
var separators = []string{"\n\n", "\n", ". ", "? ", "! ", "; ", ", ", " "}

// Chunk は分割結果の1要素を表す
// オフセットはトリム後テキストにおける文字（rune）単位の範囲で、Content はその範囲をトリムしたもの
type Chunk struct {
	Index       int
	Content     string
	StartOffset int
	EndOffset   int
	Tokens      int
}

// TokenCounter はテキストのトークン数をカウントするインターフェース
type TokenCounter interface {
	CountTokens(text string) int
}

// TextChunker は文字数ベースのチャンク分割を行う
type TextChunker struct {
	size     int
	overlap  int
	lookback int
	counter  TokenCounter
}

// Option は TextChunker のオプション設定
type Option func(*TextChunker)

// WithSize は目標文字数を上書きする
func WithSize(size int) Option {
	return func(c *TextChunker) {
		c.size = size
	}
}

// WithOverlap は重複文字数を上書きする
func WithOverlap(overlap int) Option {
	return func(c *TextChunker) {
		c.overlap = overlap
	}
}

// WithLookback は区切りの後方探索幅を上書きする
func WithLookback(lookback int) Option {
	return func(c *TextChunker) {
		c.lookback = lookback
	}
}

// WithTokenCounter はチャンクごとのトークン数計測を有効にする
func WithTokenCounter(counter TokenCounter) Option {
	return func(c *TextChunker) {
		c.counter = counter
	}
}

// NewTextChunker は新しい TextChunker を作成する
func NewTextChunker(opts ...Option) *TextChunker {
	c := &TextChunker{
		size:     DefaultSize,
		overlap:  DefaultOverlap,
		lookback: DefaultLookback,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.size <= 0 {
		c.size = DefaultSize
	}
	if c.overlap < 0 {
		c.overlap = 0
	}
	if c.lookback <= 0 {
		c.lookback = DefaultLookback
	}

	return c
}

// Size は目標文字数を返す
func (c *TextChunker) Size() int {
	return c.size
}

// Overlap は重複文字数を返す
func (c *TextChunker) Overlap() int {
	return c.overlap
}

// Chunk はテキストをチャンクに分割する
// 空文字や空白のみの入力に対しては空のスライスを返す
func (c *TextChunker) Chunk(text string) []Chunk {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []Chunk{}
	}

	runes := []rune(trimmed)
	total := len(runes)

	chunks := make([]Chunk, 0, total/c.step()+1)
	start := 0
	index := 0

	for start < total {
		end := start + c.size
		if end < total {
			if bp := c.findBreakPoint(runes, start, end); bp > start {
				end = bp
			}
		} else {
			end = total
		}

		content := strings.TrimFunc(string(runes[start:end]), unicode.IsSpace)
		if content != "" {
			ch := Chunk{
				Index:       index,
				Content:     content,
				StartOffset: start,
				EndOffset:   end,
			}
			if c.counter != nil {
				ch.Tokens = c.counter.CountTokens(content)
			}
			chunks = append(chunks, ch)
			index++
		}

		if end >= total {
			break
		}

		next := end - c.overlap
		if next < 0 {
			next = 0
		}
		// overlap が size 以上の場合でも必ず前進させる
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// findBreakPoint はウィンドウ末尾から後方に区切りを探し、区切り直後の位置を返す
// 見つからない場合は end をそのまま返す
func (c *TextChunker) findBreakPoint(runes []rune, start, end int) int {
	searchStart := max(start, end-c.lookback)
	window := string(runes[searchStart:end])

	for _, sep := range separators {
		pos := strings.LastIndex(window, sep)
		if pos == -1 {
			continue
		}
		// バイト位置を文字位置に変換する
		return searchStart + len([]rune(window[:pos])) + len([]rune(sep))
	}

	return end
}

func (c *TextChunker) step() int {
	if s := c.size - c.overlap; s > 0 {
		return s
	}
	return c.size
}
