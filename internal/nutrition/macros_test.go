package nutrition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateMacrosMuscleGain(t *testing.T) {
	targets, err := CalculateMacros(GoalMuscleGain, 2000)
	require.NoError(t, err)
	require.Equal(t, 125, targets.ProteinGrams)
	require.Equal(t, 225, targets.CarbGrams)
	require.Equal(t, 67, targets.FatGrams)
}

func TestCalculateMacrosRejectsUnknownGoal(t *testing.T) {
	_, err := CalculateMacros(Goal("keto"), 1800)
	require.ErrorIs(t, err, ErrInvalidGoalCategory)
}

func TestCalculateMacrosRecomposesNearBudget(t *testing.T) {
	budgets := []int{1200, 1800, 2000, 2437, 3100}
	for _, goal := range Goals() {
		for _, budget := range budgets {
			targets, err := CalculateMacros(goal, budget)
			require.NoError(t, err)

			recomposed := targets.ProteinGrams*4 + targets.CarbGrams*4 + targets.FatGrams*9
			drift := math.Abs(float64(recomposed - budget))
			require.LessOrEqual(t, drift, 9.0, "goal %s budget %d drifted %v kcal", goal, budget, drift)
		}
	}
}

func TestCalculateMacrosZeroBudget(t *testing.T) {
	targets, err := CalculateMacros(GoalMaintenance, 0)
	require.NoError(t, err)
	require.Zero(t, targets.ProteinGrams)
	require.Zero(t, targets.CarbGrams)
	require.Zero(t, targets.FatGrams)
}
