package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"空文字", "", 0},
		{"1文字", "a", 1},
		{"3文字", "abc", 1},
		{"4文字", "abcd", 2},
		{"マルチバイト", "あいうえお", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestCounter_NilFallsBackToEstimate(t *testing.T) {
	var c *Counter
	assert.Equal(t, 2, c.CountTokens("abcdef"))
}
