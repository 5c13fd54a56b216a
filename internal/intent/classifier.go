// Package intent implements C3: a template-weight dot product over the
// latent vector, returning the best-scoring intent or Unknown below
// threshold (spec.md §4.3).
package intent

import (
	"sync"

	"github.com/cerebrumlux/cognition/internal/model"
)

const (
	minThreshold = 0.01
	maxThreshold = 0.8
	defaultThreshold = 0.1

	weightClampMin = -5.0
	weightClampMax = 5.0
	actionClampMin = -10.0
	actionClampMax = 10.0
)

// Classifier owns the set of IntentTemplates and the active confidence
// threshold (spec §3: IntentTemplate lifecycle is mutated only by this
// component's online updates and by capsule-driven meta-adjustments).
type Classifier struct {
	mu        sync.RWMutex
	templates map[model.Intent]*model.IntentTemplate
	threshold float32
}

// New seeds one IntentTemplate per fixed intent class with hand-seeded
// weights encoding activity/complexity/engagement semantics, the way
// spec §4.3 describes. Latent dims are read as
// [activity, complexity, engagement].
func New() *Classifier {
	c := &Classifier{
		templates: make(map[model.Intent]*model.IntentTemplate),
		threshold: defaultThreshold,
	}
	seed := map[model.Intent][model.LatentLen]float32{
		model.IntentProgramming:        {0.6, 0.9, 0.7},
		model.IntentEditing:            {0.5, 0.6, 0.6},
		model.IntentResearch:           {0.4, 0.5, 0.8},
		model.IntentBrowsing:           {0.2, 0.1, 0.5},
		model.IntentCommunication:      {0.3, 0.2, 0.9},
		model.IntentGaming:             {0.8, 0.3, 0.9},
		model.IntentSystemMaintenance:  {0.7, 0.8, 0.2},
		model.IntentIdle:               {0.0, 0.0, 0.1},
	}
	for _, i := range model.Intents {
		c.templates[i] = &model.IntentTemplate{
			ID:                  i,
			Weights:             seed[i],
			ActionQ:             make(map[model.Action]float32),
			ConfidenceThreshold: defaultThreshold,
		}
	}
	return c
}

// SetThreshold clamps and applies a new global confidence threshold
// (spec §8: threshold is clamped to [0.01, 0.8]).
func (c *Classifier) SetThreshold(t float32) {
	if t < minThreshold {
		t = minThreshold
	}
	if t > maxThreshold {
		t = maxThreshold
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threshold = t
}

// Threshold returns the current confidence threshold.
func (c *Classifier) Threshold() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.threshold
}

func dot(w, v [model.LatentLen]float32) float32 {
	var s float32
	for i := range w {
		s += w[i] * v[i]
	}
	return s
}

// Analyze scores every template against sequence.Latent and returns the
// argmax intent. Ties favor the smaller intent index (spec §4.3). Below
// threshold, returns IntentUnknown.
func (c *Classifier) Analyze(sequence model.DynamicSequence) model.Intent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	best := model.IntentUnknown
	var bestScore float32 = -1e9
	for _, i := range model.Intents {
		t := c.templates[i]
		score := dot(t.Weights, sequence.Latent)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if bestScore < c.threshold {
		return model.IntentUnknown
	}
	return best
}

// Score returns the raw dot-product score for one intent, used by the
// insights engine to judge confidence without recomputing argmax.
func (c *Classifier) Score(intent model.Intent, sequence model.DynamicSequence) float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[intent]
	if !ok {
		return 0
	}
	return dot(t.Weights, sequence.Latent)
}

// UpdateTemplate replaces an intent's weight vector, clamped to [-5,5]
// (spec §3 invariant).
func (c *Classifier) UpdateTemplate(i model.Intent, weights [model.LatentLen]float32) {
	for k := range weights {
		weights[k] = clampF(weights[k], weightClampMin, weightClampMax)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.templates[i]; ok {
		t.Weights = weights
	}
}

// WeightsOf returns a copy of an intent's current weight vector.
func (c *Classifier) WeightsOf(i model.Intent) [model.LatentLen]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.templates[i]; ok {
		return t.Weights
	}
	return [model.LatentLen]float32{}
}

// UpdateActionScore nudges an intent's action-value map, clamping to
// [-10,10] (spec §3 invariant).
func (c *Classifier) UpdateActionScore(i model.Intent, a model.Action, delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.templates[i]
	if !ok {
		return
	}
	t.ActionQ[a] = clampF(t.ActionQ[a]+delta, actionClampMin, actionClampMax)
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
