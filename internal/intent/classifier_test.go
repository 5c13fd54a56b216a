package intent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cerebrumlux/cognition/internal/model"
)

func seqWithLatent(l [model.LatentLen]float32) model.DynamicSequence {
	return model.DynamicSequence{Latent: l}
}

func TestAnalyzeReturnsProgramming(t *testing.T) {
	c := New()
	seq := seqWithLatent([model.LatentLen]float32{0.6, 0.9, 0.7})
	require.Equal(t, model.IntentProgramming, c.Analyze(seq))
}

func TestAnalyzeAfterTemplateUpdate(t *testing.T) {
	c := New()
	seq := seqWithLatent([model.LatentLen]float32{0.6, 0.9, 0.7})
	c.UpdateTemplate(model.IntentProgramming, [model.LatentLen]float32{-1.0, -1.0, -1.0})
	got := c.Analyze(seq)
	require.NotEqual(t, model.IntentProgramming, got)
}

func TestAnalyzeBelowThresholdIsUnknown(t *testing.T) {
	c := New()
	c.SetThreshold(0.8)
	seq := seqWithLatent([model.LatentLen]float32{0.01, 0.01, 0.01})
	require.Equal(t, model.IntentUnknown, c.Analyze(seq))
}

func TestThresholdClamped(t *testing.T) {
	c := New()
	c.SetThreshold(-5)
	require.Equal(t, float32(0.01), c.Threshold())
	c.SetThreshold(5)
	require.Equal(t, float32(0.8), c.Threshold())
}

func TestWeightsClamped(t *testing.T) {
	c := New()
	c.UpdateTemplate(model.IntentProgramming, [model.LatentLen]float32{10, -10, 0})
	w := c.WeightsOf(model.IntentProgramming)
	require.Equal(t, float32(5), w[0])
	require.Equal(t, float32(-5), w[1])
}

func TestActionScoreClamped(t *testing.T) {
	c := New()
	for i := 0; i < 50; i++ {
		c.UpdateActionScore(model.IntentProgramming, model.ActionSuggestBreak, 1)
	}
	require.Equal(t, float32(10), c.templates[model.IntentProgramming].ActionQ[model.ActionSuggestBreak])
}
