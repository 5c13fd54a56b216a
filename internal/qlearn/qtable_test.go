package qlearn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cerebrumlux/cognition/internal/model"
)

func TestDefaultQIsZero(t *testing.T) {
	tb := New()
	require.Equal(t, float32(0), tb.Q("s", model.ActionLaunchApplication))
}

func TestUpdateReproducesSpecScenario(t *testing.T) {
	tb := New()
	got := tb.Update("s", model.ActionLaunchApplication, 1.0, "s")
	require.InDelta(t, 0.1, got, 1e-6)

	got = tb.Update("s", model.ActionLaunchApplication, 1.0, "s")
	require.InDelta(t, 0.199, got, 1e-6)
}

func TestChooseArgmaxTieBreaksSmallerIndex(t *testing.T) {
	tb := New()
	require.Equal(t, model.ActionNone, tb.Choose("unseen-state", false))
}

func TestChooseArgmaxPicksBestAction(t *testing.T) {
	tb := New()
	tb.Update("s", model.ActionSuggestBreak, 1.0, "s")
	require.Equal(t, model.ActionSuggestBreak, tb.Choose("s", false))
}

func TestStateKeyQuantizesLatent(t *testing.T) {
	k1 := StateKey(model.IntentProgramming, model.StateFocused, [model.LatentLen]float32{0.601, 0.899, 0.701})
	k2 := StateKey(model.IntentProgramming, model.StateFocused, [model.LatentLen]float32{0.604, 0.896, 0.704})
	require.Equal(t, k1, k2)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	tb := New()
	tb.Update("s1", model.ActionSuggestBreak, 1.0, "s1")
	snap := tb.Snapshot()

	tb2 := New()
	tb2.Restore(snap)
	require.Equal(t, tb.Q("s1", model.ActionSuggestBreak), tb2.Q("s1", model.ActionSuggestBreak))
}

func TestRewardMapping(t *testing.T) {
	require.Equal(t, float32(1.0), Reward(true))
	require.Equal(t, float32(-1.0), Reward(false))
}
