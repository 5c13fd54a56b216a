// Package insight implements C6: derives anomaly/opportunity/drift
// insights from the autoencoder, classifier, and prediction engine's
// outputs, each with an urgency score (spec.md §4.6).
package insight

import "github.com/cerebrumlux/cognition/internal/model"

const (
	rmseAnomalyThreshold   = 0.1
	rmseConsecutiveTicks   = 3
	confidenceLowThreshold = 0.3
	confidenceConsecutiveTicks = 3
	driftScoreThreshold    = 0.25
	driftConsecutiveTicks  = 3
	lowBatteryPct          = 20
)

// Engine tracks the small amount of consecutive-tick state its rules need
// (spec §4.6: "N consecutive ticks", "M consecutive ticks").
type Engine struct {
	rmseStreak       int
	confidenceStreak int
	driftStreak      int
}

// New constructs an Insights engine with all streak counters at zero.
func New() *Engine { return &Engine{} }

// Tick evaluates one pipeline tick's signals and returns zero or more
// Insights. Tick never produces a SecurityAlert: only C10 observes
// signature failures and stego detections, and SecurityInsight builds the
// alert for them. The orchestrator does not call SecurityInsight, so the
// insights it hands to C7 never include a SecurityAlert.
func (e *Engine) Tick(rmse float32, classifierConfidence float32, predictionTopScore float64, batteryPct uint8, batteryCharging bool) []model.Insight {
	var out []model.Insight

	if rmse > rmseAnomalyThreshold {
		e.rmseStreak++
	} else {
		e.rmseStreak = 0
	}
	if e.rmseStreak >= rmseConsecutiveTicks {
		out = append(out, model.Insight{
			Kind:            model.InsightPerformanceAnomaly,
			Urgency:         clamp01(rmse),
			Observation:     "reconstruction error has stayed elevated across recent ticks",
			SuggestedAction: model.ActionNone,
		})
	}

	if classifierConfidence < confidenceLowThreshold {
		e.confidenceStreak++
	} else {
		e.confidenceStreak = 0
	}
	if e.confidenceStreak >= confidenceConsecutiveTicks {
		out = append(out, model.Insight{
			Kind:            model.InsightLearningOpportunity,
			Urgency:         clamp01(1 - classifierConfidence),
			Observation:     "intent classifier confidence has stayed low across recent ticks",
			SuggestedAction: model.ActionRequestFeedback,
		})
	}

	if predictionTopScore < driftScoreThreshold {
		e.driftStreak++
	} else {
		e.driftStreak = 0
	}
	if e.driftStreak >= driftConsecutiveTicks {
		out = append(out, model.Insight{
			Kind:            model.InsightBehavioralDrift,
			Urgency:         clamp01(float32(driftScoreThreshold - predictionTopScore + 0.5)),
			Observation:     "prediction engine's top transition score has stayed low across recent ticks",
			SuggestedAction: model.ActionNone,
		})
	}

	if batteryPct < lowBatteryPct && !batteryCharging {
		out = append(out, model.Insight{
			Kind:            model.InsightResourceOptimization,
			Urgency:         clamp01(float32(lowBatteryPct-int(batteryPct)) / lowBatteryPct),
			Observation:     "battery is low and not charging",
			SuggestedAction: model.ActionOptimizeBatteryUsage,
		})
	}

	return out
}

// SecurityInsight builds the maximum-urgency SecurityAlert C10 raises on a
// signature failure or steganography detection (spec §4.6, urgency 1.0).
func SecurityInsight(observation string) model.Insight {
	return model.Insight{
		Kind:            model.InsightSecurityAlert,
		Urgency:         1.0,
		Observation:     observation,
		SuggestedAction: model.ActionAlertSecurityTeam,
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
