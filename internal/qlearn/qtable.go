// Package qlearn implements C9: a sparse Q-table over (state_key, action)
// pairs, updated by the standard tabular Q-learning rule (spec.md §4.9).
package qlearn

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/cerebrumlux/cognition/internal/model"
)

const (
	defaultAlpha   = 0.1
	defaultGamma   = 0.9
	defaultEpsilon = 0.1
)

// Table is the sparse Q-table. Rows are created lazily on first access so
// an untouched state costs nothing (spec §4.9: "q(state_key, action) ->
// f32 (defaults to 0)").
type Table struct {
	mu      sync.RWMutex
	rows    map[string]map[model.Action]float32
	alpha   float32
	gamma   float32
	epsilon float32
	rng     *rand.Rand
}

// New constructs an empty Q-table with the spec's default hyperparameters.
func New() *Table {
	return &Table{
		rows:    make(map[string]map[model.Action]float32),
		alpha:   defaultAlpha,
		gamma:   defaultGamma,
		epsilon: defaultEpsilon,
		rng:     rand.New(rand.NewSource(1)),
	}
}

// SetHyperparameters overrides alpha/gamma/epsilon; callers pass the
// configured values at construction time.
func (t *Table) SetHyperparameters(alpha, gamma, epsilon float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.alpha, t.gamma, t.epsilon = alpha, gamma, epsilon
}

// StateKey builds the canonical string hash of (intent, abstract_state,
// quantized_latent), rounding each latent component to 2 decimal places
// (spec §4.9, Glossary "State key").
func StateKey(in model.Intent, st model.AbstractState, latent [model.LatentLen]float32) string {
	var b strings.Builder
	b.WriteString(in.String())
	b.WriteByte('|')
	b.WriteString(st.String())
	for _, v := range latent {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(quantize(v), 'f', 2, 64))
	}
	return b.String()
}

func quantize(v float32) float64 {
	return math.Round(float64(v)*100) / 100
}

// Q returns the current value of (stateKey, a), defaulting to 0.
func (t *Table) Q(stateKey string, a model.Action) float32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[stateKey]
	if !ok {
		return 0
	}
	return row[a]
}

func (t *Table) maxQLocked(stateKey string) float32 {
	row, ok := t.rows[stateKey]
	if !ok {
		return 0
	}
	var best float32
	first := true
	for _, a := range model.Actions {
		v, ok := row[a]
		if !ok {
			v = 0
		}
		if first || v > best {
			best = v
			first = false
		}
	}
	return best
}

// Update applies the tabular Q-learning rule:
// Q(s,a) <- Q(s,a) + alpha*(r + gamma*max_a' Q(s_next,a') - Q(s,a))
// (spec §4.9).
func (t *Table) Update(statePrev string, a model.Action, reward float32, stateNext string) float32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[statePrev]
	if !ok {
		row = make(map[model.Action]float32)
		t.rows[statePrev] = row
	}
	cur := row[a]
	nextMax := t.maxQLocked(stateNext)
	updated := cur + t.alpha*(reward+t.gamma*nextMax-cur)
	row[a] = updated
	return updated
}

// Choose picks an action for stateKey: epsilon-greedy when explore is
// true, otherwise pure argmax. Ties break on the smaller action index
// (spec §4.9).
func (t *Table) Choose(stateKey string, explore bool) model.Action {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if explore && t.rng.Float32() < t.epsilon {
		return model.Actions[t.rng.Intn(len(model.Actions))]
	}

	row := t.rows[stateKey]
	var best model.Action
	var bestVal float32
	first := true
	for _, a := range model.Actions {
		v := row[a]
		if first || v > bestVal {
			bestVal = v
			best = a
			first = false
		}
	}
	return best
}

// Snapshot returns every non-empty row as SparseQEntry records, used by
// C11's persistence layer to serialize the table (spec §4.9).
func (t *Table) Snapshot() []model.SparseQEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := make([]model.SparseQEntry, 0, len(t.rows))
	for k, row := range t.rows {
		values := make(map[model.Action]float32, len(row))
		for a, v := range row {
			values[a] = v
		}
		entries = append(entries, model.SparseQEntry{StateKey: k, Values: values})
	}
	return entries
}

// Restore replaces the table's contents with previously persisted
// entries, used on startup load (spec §4.9).
func (t *Table) Restore(entries []model.SparseQEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = make(map[string]map[model.Action]float32, len(entries))
	for _, e := range entries {
		row := make(map[model.Action]float32, len(e.Values))
		for a, v := range e.Values {
			row[a] = v
		}
		t.rows[e.StateKey] = row
	}
}

// Reward maps an explicit user feedback signal to the +1/-1 scalar the
// update rule consumes (spec §4.9: "explicit user feedback (up/down
// mapped to +1/-1)").
func Reward(thumbsUp bool) float32 {
	if thumbsUp {
		return 1.0
	}
	return -1.0
}

func (t *Table) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fmt.Sprintf("qlearn.Table{rows=%d}", len(t.rows))
}
