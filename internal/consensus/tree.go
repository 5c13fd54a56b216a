// Package consensus implements the append-only local hash chain C10
// appends every successfully ingested capsule to (spec.md §4.10, §8:
// "recomputing the root from current leaves equals the stored root
// after every ingest"). Grounded on §9's design note: persistent graphs
// are arenas plus indices, not pointer graphs — here the "graph" is a
// flat slice of leaf hashes plus a running root.
package consensus

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Tree is a local, single-writer append-only hash chain. It is not a
// Merkle tree in the branching sense: the root is a SHA-256 over the
// concatenation of every leaf, recomputed on demand (spec §4.10).
type Tree struct {
	mu    sync.RWMutex
	leaves [][]byte
}

// New constructs an empty consensus tree.
func New() *Tree { return &Tree{} }

// Append adds a new leaf hash derived from content and returns the
// updated root.
func (t *Tree) Append(content []byte) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	sum := sha256.Sum256(content)
	t.leaves = append(t.leaves, sum[:])
	return t.rootLocked()
}

// Root returns the current root without appending anything.
func (t *Tree) Root() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rootLocked()
}

func (t *Tree) rootLocked() string {
	if len(t.leaves) == 0 {
		return ""
	}
	h := sha256.New()
	for _, leaf := range t.leaves {
		h.Write(leaf)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Verify recomputes the root from the current leaves and compares it
// against want, as spec §8's invariant requires.
func (t *Tree) Verify(want string) bool {
	return t.Root() == want
}

// LeafCount reports how many leaves have been appended.
func (t *Tree) LeafCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.leaves)
}

// Snapshot returns a copy of every leaf hash, hex-encoded, for
// persistence alongside the vector store (spec §9: "on-disk layout is
// trivially auditable").
func (t *Tree) Snapshot() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.leaves))
	for i, leaf := range t.leaves {
		out[i] = hex.EncodeToString(leaf)
	}
	return out
}

// Restore replaces the tree's leaves with previously persisted hex
// leaf hashes, used on startup load.
func (t *Tree) Restore(hexLeaves []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	leaves := make([][]byte, 0, len(hexLeaves))
	for _, h := range hexLeaves {
		b, err := hex.DecodeString(h)
		if err != nil {
			return err
		}
		leaves = append(leaves, b)
	}
	t.leaves = leaves
	return nil
}
