// Package prediction implements C5: a directed graph of (intent->intent)
// edges weighted by observed-transition probability and latent-delta
// similarity, used to predict the next intent (spec.md §4.5).
package prediction

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cerebrumlux/cognition/internal/cerr"
	"github.com/cerebrumlux/cognition/internal/intent"
	"github.com/cerebrumlux/cognition/internal/model"
)

const fallbackThreshold = 0.25

// Engine owns the transition graph; edges are keyed by (from,to) in a
// nested map from source intent to target intent to edge (spec §9 design
// note on persistent graphs).
type Engine struct {
	mu    sync.RWMutex
	edges map[model.Intent]map[model.Intent]*model.TransitionEdge
	log   zerolog.Logger
}

// New constructs an empty prediction graph.
func New(log zerolog.Logger) *Engine {
	return &Engine{
		edges: make(map[model.Intent]map[model.Intent]*model.TransitionEdge),
		log:   log,
	}
}

// Update locates or creates the (prev,cur) edge, folds sequence.Latent
// into its running latent-delta mean, increments its observation count,
// and renormalizes every outgoing edge from prev (spec §4.5, §8
// invariant: probabilities over one `from` sum to 1 within 1e-4).
func (e *Engine) Update(prev, cur model.Intent, sequence model.DynamicSequence) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out, ok := e.edges[prev]
	if !ok {
		out = make(map[model.Intent]*model.TransitionEdge)
		e.edges[prev] = out
	}
	edge, ok := out[cur]
	if !ok {
		edge = &model.TransitionEdge{From: prev, To: cur}
		out[cur] = edge
	}

	n := float64(edge.ObservationCount)
	for i := range edge.LatentDeltaMean {
		edge.LatentDeltaMean[i] = float32((float64(edge.LatentDeltaMean[i])*n + float64(sequence.Latent[i])) / (n + 1))
	}
	edge.ObservationCount++
	edge.LastObservedUS = sequence.LastUpdatedUS

	var total uint32
	for _, ed := range out {
		total += ed.ObservationCount
	}
	for _, ed := range out {
		ed.TransitionProbability = float32(ed.ObservationCount) / float32(total)
	}
}

func euclidean(a, b [model.LatentLen]float32) float64 {
	var sq float64
	for i := range a {
		d := float64(a[i] - b[i])
		sq += d * d
	}
	return math.Sqrt(sq)
}

// PredictNext scores every outgoing edge from cur as
// 0.7*transition_probability + 0.3*exp(-euclidean/0.5) and returns the
// argmax's target. Below 0.25 combined score, it falls back to the
// classifier's direct analysis (spec §4.5).
func (e *Engine) PredictNext(cur model.Intent, sequence model.DynamicSequence, classifier *intent.Classifier) model.Intent {
	e.mu.RLock()
	out, ok := e.edges[cur]
	var best model.Intent
	var bestScore float64 = -1
	if ok {
		// iterate in deterministic (tie-break) order
		for _, to := range model.Intents {
			edge, ok := out[to]
			if !ok {
				continue
			}
			score := 0.7*float64(edge.TransitionProbability) + 0.3*math.Exp(-euclidean(sequence.Latent, edge.LatentDeltaMean)/0.5)
			if score > bestScore {
				bestScore = score
				best = to
			}
		}
	}
	e.mu.RUnlock()

	if bestScore < fallbackThreshold {
		return classifier.Analyze(sequence)
	}
	return best
}

// QueryIntentProbability returns the current transition probability of
// the from->target edge, or 0 if absent.
func (e *Engine) QueryIntentProbability(from, target model.Intent) float32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out, ok := e.edges[from]
	if !ok {
		return 0
	}
	edge, ok := out[target]
	if !ok {
		return 0
	}
	return edge.TransitionProbability
}

// TopScore returns the best combined prediction score from cur, used by
// the insights engine to detect behavioral drift (spec §4.6).
func (e *Engine) TopScore(cur model.Intent, sequence model.DynamicSequence) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out, ok := e.edges[cur]
	if !ok {
		return 0
	}
	var best float64
	for _, edge := range out {
		score := 0.7*float64(edge.TransitionProbability) + 0.3*math.Exp(-euclidean(sequence.Latent, edge.LatentDeltaMean)/0.5)
		if score > best {
			best = score
		}
	}
	return best
}

// Save serializes the graph to the flat keyed text format spec §6
// describes: "from to count probability mean_dx mean_dy mean_dz
// last_seen_us", one line per edge.
func (e *Engine) Save(path string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return cerr.Wrap(cerr.StorageFailure, "prediction.Save", "create file", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var froms []model.Intent
	for from := range e.edges {
		froms = append(froms, from)
	}
	sort.Slice(froms, func(i, j int) bool { return froms[i] < froms[j] })

	for _, from := range froms {
		for _, to := range model.Intents {
			edge, ok := e.edges[from][to]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s %s %d %g %g %g %g %d\n",
				from.String(), to.String(), edge.ObservationCount, edge.TransitionProbability,
				edge.LatentDeltaMean[0], edge.LatentDeltaMean[1], edge.LatentDeltaMean[2],
				edge.LastObservedUS)
		}
	}
	return w.Flush()
}

// Load reads the flat text format, skipping malformed lines with a
// warning (spec §4.5).
func (e *Engine) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return cerr.Wrap(cerr.ResourceUnavailable, "prediction.Load", "open file", err)
	}
	defer f.Close()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.edges = make(map[model.Intent]map[model.Intent]*model.TransitionEdge)

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 8 {
			e.log.Warn().Str("line", line).Msg("malformed intent graph line, skipping")
			continue
		}
		from, ok1 := model.ParseIntent(fields[0])
		to, ok2 := model.ParseIntent(fields[1])
		count, err1 := strconv.ParseUint(fields[2], 10, 32)
		prob, err2 := strconv.ParseFloat(fields[3], 32)
		dx, err3 := strconv.ParseFloat(fields[4], 32)
		dy, err4 := strconv.ParseFloat(fields[5], 32)
		dz, err5 := strconv.ParseFloat(fields[6], 32)
		last, err6 := strconv.ParseUint(fields[7], 10, 64)
		if !ok1 || !ok2 || err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
			e.log.Warn().Str("line", line).Msg("malformed intent graph line, skipping")
			continue
		}
		out, ok := e.edges[from]
		if !ok {
			out = make(map[model.Intent]*model.TransitionEdge)
			e.edges[from] = out
		}
		out[to] = &model.TransitionEdge{
			From:                  from,
			To:                    to,
			ObservationCount:      uint32(count),
			TransitionProbability: float32(prob),
			LatentDeltaMean:       [model.LatentLen]float32{float32(dx), float32(dy), float32(dz)},
			LastObservedUS:        last,
		}
	}
	return sc.Err()
}
