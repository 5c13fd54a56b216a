package compose

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cerebrumlux/cognition/internal/llmadapter"
	"github.com/cerebrumlux/cognition/internal/model"
)

type fakeKB struct {
	capsules []model.Capsule
}

func (f fakeKB) SemanticSearch(embedding [model.EmbeddingDim]float32, k int) ([]model.Capsule, error) {
	if k > len(f.capsules) {
		k = len(f.capsules)
	}
	return f.capsules[:k], nil
}

type fakeAdapter struct{ text string }

func (f fakeAdapter) Infer(ctx context.Context, prompt string, params llmadapter.InferParams) (string, error) {
	return f.text, nil
}

func (f fakeAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

func unitVec(fill float32) [model.EmbeddingDim]float32 {
	var v [model.EmbeddingDim]float32
	v[0] = fill
	v[1] = 1
	return v
}

func TestGenerateGroundedReplyWithHighSimilarity(t *testing.T) {
	kb := fakeKB{capsules: []model.Capsule{
		{ID: "cap-1", Topic: "CerebrumLux", PlainTextSummary: "CerebrumLux is a personal cognition assistant.", Confidence: 0.9, Embedding: unitVec(0.9)},
	}}
	c := New(kb, fakeAdapter{text: "CerebrumLux is a personal assistant [1]."}, zerolog.Nop(), 0)

	resp, err := c.Generate(context.Background(), model.IntentResearch, model.StateSeekingInformation, model.GoalOptimizeProductivity, model.DynamicSequence{}, unitVec(0.9), "What is Cerebrum Lux?")
	require.NoError(t, err)
	require.False(t, resp.NeedsClarification)
	require.Contains(t, resp.Text, "CerebrumLux")
}

func TestGenerateFallsBackToClarificationBelowThreshold(t *testing.T) {
	far := [model.EmbeddingDim]float32{}
	far[50] = 1
	kb := fakeKB{capsules: []model.Capsule{
		{ID: "cap-1", Topic: "Unrelated", PlainTextSummary: "unrelated", Confidence: 0.9, Embedding: far},
	}}
	c := New(kb, fakeAdapter{text: "should not be used"}, zerolog.Nop(), 0)

	resp, err := c.Generate(context.Background(), model.IntentBrowsing, model.StateNormalOperation, model.GoalOptimizeProductivity, model.DynamicSequence{}, unitVec(0.9), "random query")
	require.NoError(t, err)
	require.True(t, resp.NeedsClarification)
}

func TestGenerateHandlesNoCapsules(t *testing.T) {
	c := New(fakeKB{}, fakeAdapter{text: "unused"}, zerolog.Nop(), 0)
	resp, err := c.Generate(context.Background(), model.IntentIdle, model.StateIdle, model.GoalOptimizeProductivity, model.DynamicSequence{}, unitVec(0.9), "anything")
	require.NoError(t, err)
	require.True(t, resp.NeedsClarification)
}
