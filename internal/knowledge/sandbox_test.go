package knowledge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSandboxCheckAcceptsPlainText(t *testing.T) {
	ok, reason := SandboxCheck("a normal capsule about CerebrumLux")
	require.True(t, ok)
	require.Empty(t, reason)
}

func TestSandboxCheckRejectsEmpty(t *testing.T) {
	ok, _ := SandboxCheck("")
	require.False(t, ok)
}

func TestSandboxCheckRejectsExecutableMagicBytes(t *testing.T) {
	ok, reason := SandboxCheck("MZ\x90\x00executable payload")
	require.False(t, ok)
	require.Contains(t, reason, "executable")
}

func TestSandboxCheckRejectsForbiddenURLProtocol(t *testing.T) {
	ok, reason := SandboxCheck("click javascript:alert(1) now")
	require.False(t, ok)
	require.Contains(t, reason, "forbidden URL protocol")
}
