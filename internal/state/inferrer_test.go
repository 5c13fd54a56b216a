package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cerebrumlux/cognition/internal/model"
)

func TestInferDefaultsToNormalOperation(t *testing.T) {
	inf := New()
	seq := model.DynamicSequence{BatteryPct: 80, BatteryCharging: true, DisplayOn: true}
	got := inf.Infer(model.IntentUnknown, seq)
	require.Equal(t, model.StateNormalOperation, got)
}

func TestLowBatteryBoostsPowerSaving(t *testing.T) {
	inf := New()
	seq := model.DynamicSequence{BatteryPct: 10, BatteryCharging: false, DisplayOn: true}
	got := inf.Infer(model.IntentIdle, seq)
	require.Equal(t, model.StatePowerSaving, got)
}

func TestDarkDisplayOnIsHardwareAnomaly(t *testing.T) {
	inf := New()
	seq := model.DynamicSequence{BatteryPct: 90, BatteryCharging: true, DisplayOn: true}
	seq.StatFeatures[6] = 0
	got := inf.Infer(model.IntentIdle, seq)
	require.Equal(t, model.StateHardwareAnomaly, got)
}

func TestProgrammingBiasesHighProductivity(t *testing.T) {
	inf := New()
	seq := model.DynamicSequence{BatteryPct: 90, BatteryCharging: true, DisplayOn: true}
	got := inf.Infer(model.IntentProgramming, seq)
	require.Equal(t, model.StateHighProductivity, got)
}
