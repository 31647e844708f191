package apperr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpstreamKeepsCause(t *testing.T) {
	err := Upstream("embed query", context.DeadlineExceeded)

	assert.True(t, IsUpstream(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "embed query")
}

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{name: "入力不正", err: Validation("spaceIDs is required"), kind: ErrValidation},
		{name: "存在しない", err: NotFound("document", 42), kind: ErrNotFound},
		{name: "重複", err: Conflict("space %q already exists", "hr"), kind: ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.kind))
			assert.False(t, IsUpstream(tt.err))
		})
	}
}
