// Package state implements C4: the abstract-state inferrer, a weighted
// rule scorer over normalized metrics and the latent vector (spec.md
// §4.4).
package state

import "github.com/cerebrumlux/cognition/internal/model"

const baselineNormalOperation = 0.5

// Inferrer scores every fixed abstract state and returns the argmax,
// breaking ties toward NormalOperation.
type Inferrer struct{}

// New constructs a stateless Inferrer; all scoring inputs arrive via
// Infer's parameters so there is nothing to own between ticks.
func New() *Inferrer { return &Inferrer{} }

// Infer scores the fixed state set against the current intent, sequence
// features, and latent, then returns the winner (spec §4.4).
func (inf *Inferrer) Infer(cur model.Intent, seq model.DynamicSequence) model.AbstractState {
	scores := make(map[model.AbstractState]float32, len(model.States))
	for _, s := range model.States {
		scores[s] = 0
	}
	scores[model.StateNormalOperation] = baselineNormalOperation

	intervalMean := seq.StatFeatures[0]
	alnumRatio := seq.StatFeatures[2]
	ctrlRatio := seq.StatFeatures[3]
	mouseIntensity := seq.StatFeatures[4]
	clickRate := seq.StatFeatures[5]
	brightness := seq.StatFeatures[6]

	// Idle: near-zero activity across the board.
	if intervalMean < 0.05 && mouseIntensity < 0.05 && clickRate < 0.05 {
		scores[model.StateIdle] += 1.2
	}

	switch cur {
	case model.IntentProgramming, model.IntentEditing:
		scores[model.StateHighProductivity] += 0.9
		scores[model.StateFocused] += 0.7
		scores[model.StateDebugging] += 0.3 + ctrlRatio
		scores[model.StateCreativeFlow] += 0.4 + alnumRatio*0.3
	case model.IntentResearch:
		scores[model.StateSeekingInformation] += 1.0
		scores[model.StateFocused] += 0.3
	case model.IntentBrowsing:
		scores[model.StatePassiveConsumption] += 0.9
		scores[model.StateLowProductivity] += 0.4
	case model.IntentCommunication:
		scores[model.StateSocialInteraction] += 1.0
	case model.IntentGaming:
		scores[model.StatePassiveConsumption] += 0.5
		scores[model.StateLowProductivity] += 0.3
	case model.IntentSystemMaintenance:
		scores[model.StateHighProductivity] += 0.3
	case model.IntentIdle:
		scores[model.StateIdle] += 0.8
	}

	if mouseIntensity > 0.6 && clickRate > 0.4 && cur != model.IntentProgramming {
		scores[model.StateDistracted] += 0.8
		scores[model.StateLowProductivity] += 0.4
	}

	// Explicit overrides per spec §4.4.
	if seq.BatteryPct < 20 && !seq.BatteryCharging {
		scores[model.StatePowerSaving] += 1.5
	}
	if brightness == 0 && seq.DisplayOn {
		scores[model.StateHardwareAnomaly] += 1.5
	}

	best := model.StateNormalOperation
	var bestScore = scores[model.StateNormalOperation]
	for _, s := range model.States {
		if scores[s] > bestScore {
			bestScore = scores[s]
			best = s
		}
	}
	return best
}
