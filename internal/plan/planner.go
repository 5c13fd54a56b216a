// Package plan implements C8: builds an ordered action plan from the
// current (intent, abstract state, goal, sequence) tuple (spec.md §4.8).
// The planner only proposes steps; it never executes them.
package plan

import "github.com/cerebrumlux/cognition/internal/model"

// Planner is stateless: every plan is a pure function of its inputs.
type Planner struct{}

// New constructs a stateless Planner.
func New() *Planner { return &Planner{} }

// CreatePlan runs the intent/state/goal rule cascade and returns an
// ordered Plan. Every goal has a deterministic default step appended
// when no more specific rule has already proposed an action for it.
func (p *Planner) CreatePlan(in model.Intent, st model.AbstractState, g model.Goal, sequence model.DynamicSequence) model.Plan {
	var steps []model.ActionPlanStep

	switch g {
	case model.GoalEnsureSecurity:
		steps = append(steps, model.ActionPlanStep{
			Action:                    model.ActionAlertSecurityTeam,
			Rationale:                 "a security alert met the urgency threshold",
			ExpectedOutcomeConfidence: 0.95,
		})

	case model.GoalMaximizeBatteryLife:
		steps = append(steps, model.ActionPlanStep{
			Action:                    model.ActionOptimizeBatteryUsage,
			Rationale:                 "battery is low and not charging",
			ExpectedOutcomeConfidence: 0.9,
		})
		if st == model.StateHighProductivity || st == model.StateFocused {
			steps = append(steps, model.ActionPlanStep{
				Action:                    model.ActionDimDisplay,
				Rationale:                 "reduce power draw without interrupting focused work",
				ExpectedOutcomeConfidence: 0.6,
			})
		}

	case model.GoalReduceDistractions:
		steps = append(steps, model.ActionPlanStep{
			Action:                    model.ActionBlockDistraction,
			Rationale:                 "current state indicates distraction or low productivity",
			ExpectedOutcomeConfidence: 0.7,
		})
		if in == model.IntentProgramming || in == model.IntentEditing {
			steps = append(steps, model.ActionPlanStep{
				Action:                    model.ActionEnableFocusMode,
				Rationale:                 "active intent is work-oriented",
				ExpectedOutcomeConfidence: 0.65,
			})
		}

	case model.GoalSelfImprovement:
		steps = append(steps, model.ActionPlanStep{
			Action:                    model.ActionRequestFeedback,
			Rationale:                 "behavioral drift suggests the model's predictions are stale",
			ExpectedOutcomeConfidence: 0.5,
		})

	case model.GoalExploreNewKnowledge:
		steps = append(steps, model.ActionPlanStep{
			Action:                    model.ActionSuggestLearningResource,
			Rationale:                 "goal favors exploring new knowledge",
			ExpectedOutcomeConfidence: 0.55,
		})

	case model.GoalConserveResources:
		steps = append(steps, model.ActionPlanStep{
			Action:                    model.ActionOptimizeBatteryUsage,
			Rationale:                 "goal favors conserving resources",
			ExpectedOutcomeConfidence: 0.6,
		})

	case model.GoalMaintainUserSatisfaction:
		steps = append(steps, model.ActionPlanStep{
			Action:                    model.ActionProvideSummary,
			Rationale:                 "goal favors maintaining user satisfaction",
			ExpectedOutcomeConfidence: 0.55,
		})

	default: // GoalOptimizeProductivity
		switch in {
		case model.IntentProgramming:
			steps = append(steps, model.ActionPlanStep{
				Action:                    model.ActionSuggestCodeRefactor,
				Rationale:                 "active intent is programming",
				ExpectedOutcomeConfidence: 0.6,
			})
		case model.IntentEditing:
			steps = append(steps, model.ActionPlanStep{
				Action:                    model.ActionEnableFocusMode,
				Rationale:                 "active intent is editing",
				ExpectedOutcomeConfidence: 0.6,
			})
		case model.IntentSystemMaintenance:
			steps = append(steps, model.ActionPlanStep{
				Action:                    model.ActionScheduleMaintenance,
				Rationale:                 "active intent is system maintenance",
				ExpectedOutcomeConfidence: 0.65,
			})
		}
		if st == model.StateDebugging {
			steps = append(steps, model.ActionPlanStep{
				Action:                    model.ActionSuggestBreak,
				Rationale:                 "extended debugging sessions benefit from a break",
				ExpectedOutcomeConfidence: 0.4,
			})
		}
	}

	if len(steps) == 0 {
		steps = append(steps, defaultStep(g))
	}

	return model.Plan{Goal: g, Steps: steps}
}

// defaultStep is the deterministic fallback every goal has when no more
// specific rule fired (spec §4.8: "Every goal has a deterministic
// default step if no rule fires.").
func defaultStep(g model.Goal) model.ActionPlanStep {
	switch g {
	case model.GoalEnsureSecurity:
		return model.ActionPlanStep{Action: model.ActionAlertSecurityTeam, Rationale: "default step for EnsureSecurity", ExpectedOutcomeConfidence: 0.5}
	case model.GoalMaximizeBatteryLife:
		return model.ActionPlanStep{Action: model.ActionOptimizeBatteryUsage, Rationale: "default step for MaximizeBatteryLife", ExpectedOutcomeConfidence: 0.5}
	case model.GoalReduceDistractions:
		return model.ActionPlanStep{Action: model.ActionBlockDistraction, Rationale: "default step for ReduceDistractions", ExpectedOutcomeConfidence: 0.5}
	case model.GoalSelfImprovement:
		return model.ActionPlanStep{Action: model.ActionRequestFeedback, Rationale: "default step for SelfImprovement", ExpectedOutcomeConfidence: 0.5}
	case model.GoalExploreNewKnowledge:
		return model.ActionPlanStep{Action: model.ActionSuggestLearningResource, Rationale: "default step for ExploreNewKnowledge", ExpectedOutcomeConfidence: 0.5}
	case model.GoalConserveResources:
		return model.ActionPlanStep{Action: model.ActionOptimizeBatteryUsage, Rationale: "default step for ConserveResources", ExpectedOutcomeConfidence: 0.5}
	case model.GoalMaintainUserSatisfaction:
		return model.ActionPlanStep{Action: model.ActionProvideSummary, Rationale: "default step for MaintainUserSatisfaction", ExpectedOutcomeConfidence: 0.5}
	default:
		return model.ActionPlanStep{Action: model.ActionRespondToUser, Rationale: "default step for OptimizeProductivity", ExpectedOutcomeConfidence: 0.5}
	}
}
