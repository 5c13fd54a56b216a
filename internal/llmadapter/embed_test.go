package llmadapter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cerebrumlux/cognition/internal/model"
)

func TestReduceAndNormalizeTruncatesAndNormalizes(t *testing.T) {
	raw := make([]float32, 256)
	for i := range raw {
		raw[i] = 1
	}
	out := reduceAndNormalize(raw)
	require.Len(t, out, model.EmbeddingDim)

	var sumSq float64
	for _, v := range out {
		sumSq += float64(v) * float64(v)
	}
	require.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-5)
}

func TestReduceAndNormalizePadsShortInput(t *testing.T) {
	raw := []float32{3, 4}
	out := reduceAndNormalize(raw)
	require.Len(t, out, model.EmbeddingDim)
	require.InDelta(t, 0.6, out[0], 1e-6)
	require.InDelta(t, 0.8, out[1], 1e-6)
	for _, v := range out[2:] {
		require.Equal(t, float32(0), v)
	}
}

func TestReduceAndNormalizeHandlesAllZero(t *testing.T) {
	out := reduceAndNormalize(make([]float32, 4))
	require.Len(t, out, model.EmbeddingDim)
	for _, v := range out {
		require.Equal(t, float32(0), v)
	}
}
