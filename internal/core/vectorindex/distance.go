package vectorindex

import (
	"fmt"
	"math"
	"sort"
)

// CosineDistance は 1 - コサイン類似度 を返す
// 次元不一致やゼロベクトルはエラー
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine distance dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("cosine distance on empty vectors")
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, fmt.Errorf("cosine distance with zero-magnitude vector")
	}
	sim := dot / (math.Sqrt(na2) * math.Sqrt(nb2))
	// 丸め誤差で [-1, 1] をはみ出さないようにする
	sim = math.Max(-1, math.Min(1, sim))
	return 1 - sim, nil
}

// TopK は距離の昇順に並べ替えて先頭 k 件を返す（同距離は入力順を保つ）
func TopK(neighbors []Neighbor, k int) []Neighbor {
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})
	if k >= 0 && len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors
}
