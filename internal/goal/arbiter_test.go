package goal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cerebrumlux/cognition/internal/model"
)

func TestSecurityAlertTakesPriority(t *testing.T) {
	a := New()
	insights := []model.Insight{
		{Kind: model.InsightSecurityAlert, Urgency: 1.0},
		{Kind: model.InsightBehavioralDrift, Urgency: 0.9},
	}
	g, changed := a.Decide(insights, 5, false, model.StateDistracted, model.GoalOptimizeProductivity)
	require.Equal(t, model.GoalEnsureSecurity, g)
	require.True(t, changed)
}

func TestLowBatteryOutranksDriftAndState(t *testing.T) {
	a := New()
	insights := []model.Insight{
		{Kind: model.InsightBehavioralDrift, Urgency: 0.9},
	}
	g, _ := a.Decide(insights, 15, false, model.StateDistracted, model.GoalOptimizeProductivity)
	require.Equal(t, model.GoalMaximizeBatteryLife, g)
}

func TestChargingIgnoresLowBattery(t *testing.T) {
	a := New()
	g, _ := a.Decide(nil, 15, true, model.StateNormalOperation, model.GoalOptimizeProductivity)
	require.Equal(t, model.GoalOptimizeProductivity, g)
}

func TestBehavioralDriftBelowThresholdIgnored(t *testing.T) {
	a := New()
	insights := []model.Insight{
		{Kind: model.InsightBehavioralDrift, Urgency: 0.5},
	}
	g, _ := a.Decide(insights, 80, true, model.StateDistracted, model.GoalOptimizeProductivity)
	require.Equal(t, model.GoalReduceDistractions, g)
}

func TestLowProductivityStateReducesDistractions(t *testing.T) {
	a := New()
	g, _ := a.Decide(nil, 80, true, model.StateLowProductivity, model.GoalOptimizeProductivity)
	require.Equal(t, model.GoalReduceDistractions, g)
}

func TestDefaultIsOptimizeProductivity(t *testing.T) {
	a := New()
	g, changed := a.Decide(nil, 80, true, model.StateNormalOperation, model.GoalOptimizeProductivity)
	require.Equal(t, model.GoalOptimizeProductivity, g)
	require.False(t, changed)
}

func TestGoalChangeFlagged(t *testing.T) {
	a := New()
	_, changed := a.Decide(nil, 80, true, model.StateFocused, model.GoalReduceDistractions)
	require.True(t, changed)
}
