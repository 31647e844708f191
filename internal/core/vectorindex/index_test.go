package vectorindex

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSpaceTags(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000012")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000123")

	encoded := EncodeSpaceTags([]uuid.UUID{a, b})

	assert.Equal(t, ","+a.String()+","+b.String()+",", encoded)
	assert.True(t, strings.Contains(encoded, SpaceTag(a)))
	assert.True(t, strings.Contains(encoded, SpaceTag(b)))

	decoded, err := DecodeSpaceTags(encoded)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, decoded)
}

func TestSpaceTag_NoPrefixCollision(t *testing.T) {
	// 旧来の数値 ID 形式でも区切り付きタグなら部分一致しない
	stored := ",123,"
	assert.False(t, strings.Contains(stored, ",12,"))
	assert.True(t, strings.Contains(stored, ",123,"))

	other := uuid.New()
	encoded := EncodeSpaceTags([]uuid.UUID{uuid.New()})
	assert.False(t, strings.Contains(encoded, SpaceTag(other)))
}

func TestEncodeSpaceTags_Empty(t *testing.T) {
	assert.Equal(t, "", EncodeSpaceTags(nil))

	decoded, err := DecodeSpaceTags("")
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeSpaceTags_Invalid(t *testing.T) {
	_, err := DecodeSpaceTags(",not-a-uuid,")
	assert.Error(t, err)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		metric   Metric
		distance float64
		want     float64
		wantErr  bool
	}{
		{name: "同一方向", metric: MetricCosine, distance: 0, want: 1},
		{name: "直交", metric: MetricCosine, distance: 1, want: 0},
		{name: "逆方向", metric: MetricCosine, distance: 2, want: -1},
		{name: "値域外", metric: MetricCosine, distance: 2.5, wantErr: true},
		{name: "コサイン以外", metric: Metric("l2"), distance: 0.3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(tt.metric, tt.distance)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFilter(t *testing.T) {
	assert.True(t, Filter{}.IsEmpty())
	assert.False(t, ForSpace(uuid.New()).IsEmpty())
	assert.False(t, ForDocument(uuid.New()).IsEmpty())
}
