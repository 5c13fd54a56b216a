package knowledge

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectSteganographyCleanText(t *testing.T) {
	require.False(t, DetectSteganography("a normal sentence about CerebrumLux", 7.0))
}

func TestDetectSteganographyHighEntropy(t *testing.T) {
	raw := make([]byte, 4096)
	_, err := rand.Read(raw)
	require.NoError(t, err)
	require.True(t, DetectSteganography(string(raw), 7.0))
}

func TestDetectSteganographyKnownMarker(t *testing.T) {
	require.True(t, DetectSteganography("prefix STEGO_START_MARKER_XYZ suffix", 7.0))
}

func TestDetectSteganographyHiddenMessageTag(t *testing.T) {
	require.True(t, DetectSteganography("metadata hidden_message_tag present", 7.0))
}
