// Package goal implements C7: the priority-ordered short-circuit policy
// that picks a single active goal (spec.md §4.7). No hysteresis is
// applied; rapid oscillation is a signal, not a bug to smooth over.
package goal

import "github.com/cerebrumlux/cognition/internal/model"

const (
	securityUrgencyThreshold = 0.7
	lowBatteryPct            = 20
	driftUrgencyThreshold    = 0.6
)

// Arbiter holds no state of its own: every decision is a pure function of
// the current tick's inputs, so there is nothing to own between ticks.
type Arbiter struct{}

// New constructs a stateless Arbiter.
func New() *Arbiter { return &Arbiter{} }

// Decide applies the priority-ordered policy from spec §4.7 and returns
// the active goal plus whether it differs from previous (for the
// orchestrator's goal-change event).
func (a *Arbiter) Decide(insights []model.Insight, batteryPct uint8, batteryCharging bool, state model.AbstractState, previous model.Goal) (model.Goal, bool) {
	g := a.decide(insights, batteryPct, batteryCharging, state)
	return g, g != previous
}

func (a *Arbiter) decide(insights []model.Insight, batteryPct uint8, batteryCharging bool, state model.AbstractState) model.Goal {
	for _, ins := range insights {
		if ins.Kind == model.InsightSecurityAlert && ins.Urgency >= securityUrgencyThreshold {
			return model.GoalEnsureSecurity
		}
	}

	if batteryPct < lowBatteryPct && !batteryCharging {
		return model.GoalMaximizeBatteryLife
	}

	for _, ins := range insights {
		if ins.Kind == model.InsightBehavioralDrift && ins.Urgency >= driftUrgencyThreshold {
			return model.GoalSelfImprovement
		}
	}

	if state == model.StateDistracted || state == model.StateLowProductivity {
		return model.GoalReduceDistractions
	}

	return model.GoalOptimizeProductivity
}
