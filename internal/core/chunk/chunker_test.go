package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter struct{ calls int }

func (f *fixedCounter) CountTokens(text string) int {
	f.calls++
	return 7
}

func TestChunk_EmptyInput(t *testing.T) {
	c := NewTextChunker()

	tests := []struct {
		name string
		text string
	}{
		{name: "空文字", text: ""},
		{name: "空白のみ", text: "   "},
		{name: "改行とタブのみ", text: "\n\t \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := c.Chunk(tt.text)
			assert.NotNil(t, chunks)
			assert.Empty(t, chunks)
		})
	}
}

func TestChunk_ThreeThousandCharacters(t *testing.T) {
	c := NewTextChunker(WithSize(1000), WithOverlap(200))
	text := strings.Repeat("x", 3000)

	chunks := c.Chunk(text)

	require.Len(t, chunks, 4)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		if i < len(chunks)-1 {
			assert.GreaterOrEqual(t, ch.EndOffset-ch.StartOffset, 800)
		}
	}
	assert.Equal(t, 3000, chunks[len(chunks)-1].EndOffset)
}

func TestChunk_CoversTrimmedInput(t *testing.T) {
	c := NewTextChunker(WithSize(120), WithOverlap(30))
	text := "  " + strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40) + "\n\n"
	trimmed := strings.TrimSpace(text)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len([]rune(trimmed)), chunks[len(chunks)-1].EndOffset)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Greater(t, ch.EndOffset, ch.StartOffset)
		assert.NotEmpty(t, ch.Content)
		assert.Equal(t, strings.TrimSpace(ch.Content), ch.Content)
		if i > 0 {
			prev := chunks[i-1]
			assert.LessOrEqual(t, ch.StartOffset, prev.EndOffset, "gap between chunks")
			assert.GreaterOrEqual(t, ch.StartOffset, prev.StartOffset)
		}
	}
}

func TestChunk_PrefersParagraphBreak(t *testing.T) {
	c := NewTextChunker(WithSize(20), WithOverlap(0))
	text := "First paragraph.\n\nSecond one is longer text here"

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	assert.Equal(t, "First paragraph.", chunks[0].Content)
	assert.Equal(t, 18, chunks[0].EndOffset)
	assert.Equal(t, 18, chunks[1].StartOffset)
}

func TestChunk_PrefersSentenceOverSpace(t *testing.T) {
	c := NewTextChunker(WithSize(30), WithOverlap(0))
	text := "One two. Three four five six seven eight"

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	assert.Equal(t, "One two.", chunks[0].Content)
}

func TestChunk_OverlapNotSmallerThanSize(t *testing.T) {
	tests := []struct {
		name    string
		overlap int
	}{
		{name: "overlapとsizeが等しい", overlap: 10},
		{name: "overlapがsizeより大きい", overlap: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewTextChunker(WithSize(10), WithOverlap(tt.overlap))
			chunks := c.Chunk(strings.Repeat("a", 35))

			require.Len(t, chunks, 4)
			assert.Equal(t, 35, chunks[3].EndOffset)
			for i := 1; i < len(chunks); i++ {
				assert.Greater(t, chunks[i].StartOffset, chunks[i-1].StartOffset)
			}
		})
	}
}

func TestChunk_StepBoundWithoutSeparators(t *testing.T) {
	size, overlap := 100, 40
	c := NewTextChunker(WithSize(size), WithOverlap(overlap))
	text := strings.Repeat("z", 10_000)

	chunks := c.Chunk(text)

	assert.LessOrEqual(t, len(chunks), len(text)/(size-overlap)+1)
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndOffset)
}

func TestChunk_MultibyteOffsets(t *testing.T) {
	c := NewTextChunker()
	text := strings.Repeat("あ", 1500)

	chunks := c.Chunk(text)

	require.Len(t, chunks, 2)
	assert.Equal(t, 1000, chunks[0].EndOffset)
	assert.Equal(t, 800, chunks[1].StartOffset)
	assert.Equal(t, 1500, chunks[1].EndOffset)
	assert.Equal(t, strings.Repeat("あ", 700), chunks[1].Content)
}

func TestChunk_TokenCounter(t *testing.T) {
	counter := &fixedCounter{}
	c := NewTextChunker(WithSize(10), WithOverlap(0), WithTokenCounter(counter))

	chunks := c.Chunk(strings.Repeat("b", 25))

	require.Len(t, chunks, 3)
	assert.Equal(t, 3, counter.calls)
	for _, ch := range chunks {
		assert.Equal(t, 7, ch.Tokens)
	}
}

func TestNewTextChunker_InvalidOptionsFallBack(t *testing.T) {
	c := NewTextChunker(WithSize(0), WithOverlap(-5))

	assert.Equal(t, DefaultSize, c.Size())
	assert.Equal(t, 0, c.Overlap())
}
