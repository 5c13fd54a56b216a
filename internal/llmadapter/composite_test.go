package llmadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	inferText string
	embedVec  []float32
}

func (f fakeAdapter) Infer(ctx context.Context, prompt string, params InferParams) (string, error) {
	return f.inferText, nil
}

func (f fakeAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.embedVec, nil
}

func TestCompositeDelegatesToRespectiveAdapters(t *testing.T) {
	c := Composite{
		Inferrer: fakeAdapter{inferText: "inferred"},
		Embedder: fakeAdapter{embedVec: []float32{1, 2, 3}},
	}

	text, err := c.Infer(context.Background(), "prompt", InferParams{})
	require.NoError(t, err)
	require.Equal(t, "inferred", text)

	vec, err := c.Embed(context.Background(), "text")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, vec)
}
