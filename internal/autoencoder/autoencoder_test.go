package autoencoder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cerebrumlux/cognition/internal/model"
)

func sampleInput() [model.StatFeatureLen]float32 {
	var x [model.StatFeatureLen]float32
	for i := range x {
		x[i] = float32(i) / float32(len(x))
	}
	return x
}

func TestEncodeProducesLatentLen(t *testing.T) {
	ae := New(1)
	z, err := ae.Encode(sampleInput())
	require.NoError(t, err)
	require.Len(t, z, model.LatentLen)
}

func TestReconstructDimensions(t *testing.T) {
	ae := New(2)
	xhat := ae.Reconstruct(sampleInput())
	require.Len(t, xhat, model.StatFeatureLen)
}

func TestNoAdaptationBelowThreshold(t *testing.T) {
	ae := New(3)
	ae.SetRMSEThreshold(1.0) // effectively unreachable threshold
	before := snapshotWeights(ae)
	ae.AdjustWeightsOnError(sampleInput(), 0.1)
	after := snapshotWeights(ae)
	require.Equal(t, before, after)
}

func TestAdaptsAboveThreshold(t *testing.T) {
	ae := New(4)
	ae.SetRMSEThreshold(-1.0) // always above threshold
	before := snapshotWeights(ae)
	rmse := ae.AdjustWeightsOnError(sampleInput(), 0.1)
	after := snapshotWeights(ae)
	require.NotEqual(t, before, after)
	require.GreaterOrEqual(t, rmse, float32(0))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ae := New(5)
	dir := t.TempDir()
	path := filepath.Join(dir, "autoencoder.bin")
	require.NoError(t, ae.Save(path))

	loaded := New(6)
	reinit, err := loaded.Load(path)
	require.NoError(t, err)
	require.False(t, reinit)

	x := sampleInput()
	z1, _ := ae.Encode(x)
	z2, _ := loaded.Encode(x)
	require.InDeltaSlice(t, z1[:], z2[:], 1e-6)
}

func TestLoadMismatchedDimsReinitializes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 0, 0, 0, 1, 0, 0, 0}, 0o644))

	ae := New(7)
	reinit, err := ae.Load(path)
	require.NoError(t, err)
	require.True(t, reinit)
}

func snapshotWeights(ae *Autoencoder) [model.StatFeatureLen]float32 {
	return ae.Reconstruct(sampleInput())
}
