package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootChangesOnAppend(t *testing.T) {
	tr := New()
	require.Equal(t, "", tr.Root())
	r1 := tr.Append([]byte("capsule-1"))
	require.NotEmpty(t, r1)
	r2 := tr.Append([]byte("capsule-2"))
	require.NotEqual(t, r1, r2)
}

func TestVerifyMatchesRecomputedRoot(t *testing.T) {
	tr := New()
	tr.Append([]byte("a"))
	tr.Append([]byte("b"))
	require.True(t, tr.Verify(tr.Root()))
	require.False(t, tr.Verify("deadbeef"))
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	tr := New()
	tr.Append([]byte("a"))
	tr.Append([]byte("b"))
	snap := tr.Snapshot()

	tr2 := New()
	require.NoError(t, tr2.Restore(snap))
	require.Equal(t, tr.Root(), tr2.Root())
	require.Equal(t, tr.LeafCount(), tr2.LeafCount())
}
