package knowledge

import (
	"crypto/ed25519"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyRingSaveLoadRoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	kr := KeyRing{
		SignerKeys:        map[string]ed25519.PublicKey{"alice": pub},
		PeerSymmetricKeys: map[string][]byte{"alice": []byte("0123456789abcdef0123456789abcdef")},
	}

	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, SaveKeyRingFile(path, kr))

	loaded, err := LoadKeyRingFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte(pub), []byte(loaded.SignerKeys["alice"]))
	require.Equal(t, kr.PeerSymmetricKeys["alice"], loaded.PeerSymmetricKeys["alice"])
}

func TestLoadKeyRingFileMissingIsEmpty(t *testing.T) {
	kr, err := LoadKeyRingFile(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.Empty(t, kr.SignerKeys)
	require.Empty(t, kr.PeerSymmetricKeys)
}
