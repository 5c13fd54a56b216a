package consensus

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveLoadFileRoundTrip(t *testing.T) {
	t1 := New()
	t1.Append([]byte("a"))
	t1.Append([]byte("b"))

	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, t1.SaveFile(path))

	t2, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, t1.Root(), t2.Root())
	require.Equal(t, 2, t2.LeafCount())
}

func TestLoadFileMissingIsEmptyTree(t *testing.T) {
	t2, err := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.log"))
	require.NoError(t, err)
	require.Equal(t, 0, t2.LeafCount())
}
