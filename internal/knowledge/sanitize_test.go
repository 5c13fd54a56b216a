package knowledge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeStripsControlCharsKeepsTabNewline(t *testing.T) {
	in := "hello\x00world\tthere\n"
	require.Equal(t, "helloworld there", Sanitize(in))
}

func TestSanitizeCollapsesWhitespaceAndTrims(t *testing.T) {
	require.Equal(t, "a b", Sanitize("   a    b   "))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	in := "  noisy\x01 text   with\x02 gaps "
	once := Sanitize(in)
	twice := Sanitize(once)
	require.Equal(t, once, twice)
}
