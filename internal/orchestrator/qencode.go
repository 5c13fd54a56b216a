package orchestrator

import (
	"encoding/json"

	"github.com/cerebrumlux/cognition/internal/model"
)

// encodeQEntry/decodeQEntry give C9's sparse Q-table rows a JSON
// representation for the vectorstore's q_table sub-store (spec §6:
// the Q-table is persisted as state_key -> action value map rows).
func encodeQEntry(entry model.SparseQEntry) (string, error) {
	b, err := json.Marshal(entry.Values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeQEntry(stateKey, blob string) (model.SparseQEntry, error) {
	values := make(map[model.Action]float32)
	if err := json.Unmarshal([]byte(blob), &values); err != nil {
		return model.SparseQEntry{}, err
	}
	return model.SparseQEntry{StateKey: stateKey, Values: values}, nil
}
