package consensus

import (
	"bufio"
	"os"
)

// SaveFile writes one hex-encoded leaf per line to path (spec §6's
// "Persisted state layout": audit.log is a flat, append-friendly,
// human-auditable ledger rather than a binary format).
func (t *Tree) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, leaf := range t.Snapshot() {
		if _, err := w.WriteString(leaf + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// LoadFile reads a previously saved audit.log. A missing file is not an
// error: it means no capsule has ever been ingested, so Tree starts
// empty.
func LoadFile(path string) (*Tree, error) {
	t := New()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, err
	}
	defer f.Close()

	var leaves []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		leaves = append(leaves, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := t.Restore(leaves); err != nil {
		return nil, err
	}
	return t, nil
}
