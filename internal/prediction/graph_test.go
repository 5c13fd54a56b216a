package prediction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cerebrumlux/cognition/internal/intent"
	"github.com/cerebrumlux/cognition/internal/model"
)

func seqLatent(l [model.LatentLen]float32) model.DynamicSequence {
	return model.DynamicSequence{Latent: l}
}

func TestUpdateNormalizesProbabilities(t *testing.T) {
	e := New(zerolog.Nop())
	for i := 0; i < 8; i++ {
		e.Update(model.IntentEditing, model.IntentProgramming, seqLatent([model.LatentLen]float32{0.6, 0.9, 0.7}))
	}
	for i := 0; i < 2; i++ {
		e.Update(model.IntentEditing, model.IntentResearch, seqLatent([model.LatentLen]float32{0.4, 0.6, 0.8}))
	}

	pProg := e.QueryIntentProbability(model.IntentEditing, model.IntentProgramming)
	pRes := e.QueryIntentProbability(model.IntentEditing, model.IntentResearch)
	require.InDelta(t, 0.8, pProg, 1e-4)
	require.InDelta(t, 0.2, pRes, 1e-4)
	require.InDelta(t, 1.0, float64(pProg+pRes), 1e-4)
}

func TestPredictMixedEvidencePicksProgramming(t *testing.T) {
	e := New(zerolog.Nop())
	for i := 0; i < 8; i++ {
		e.Update(model.IntentEditing, model.IntentProgramming, seqLatent([model.LatentLen]float32{0.6, 0.9, 0.7}))
	}
	for i := 0; i < 2; i++ {
		e.Update(model.IntentEditing, model.IntentResearch, seqLatent([model.LatentLen]float32{0.4, 0.6, 0.8}))
	}

	c := intent.New()
	got := e.PredictNext(model.IntentEditing, seqLatent([model.LatentLen]float32{0.6, 0.9, 0.7}), c)
	require.Equal(t, model.IntentProgramming, got)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	e := New(zerolog.Nop())
	e.Update(model.IntentEditing, model.IntentProgramming, seqLatent([model.LatentLen]float32{0.6, 0.9, 0.7}))

	path := filepath.Join(t.TempDir(), "intent_graph.txt")
	require.NoError(t, e.Save(path))

	e2 := New(zerolog.Nop())
	require.NoError(t, e2.Load(path))
	require.InDelta(t, 1.0, e2.QueryIntentProbability(model.IntentEditing, model.IntentProgramming), 1e-4)
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad_graph.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a valid line\nEditing Programming 8 0.8 0.6 0.9 0.7 123\n"), 0o644))

	e := New(zerolog.Nop())
	require.NoError(t, e.Load(path))
	require.InDelta(t, 0.8, e.QueryIntentProbability(model.IntentEditing, model.IntentProgramming), 1e-4)
}
