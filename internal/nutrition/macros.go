package nutrition

import (
	"errors"
	"math"
)

// ErrInvalidGoalCategory rejects macro calculation for an unknown goal.
var ErrInvalidGoalCategory = errors.New("nutrition: invalid goal category")

// MacroTargets is the per-day gram prescription derived from a calorie budget.
type MacroTargets struct {
	ProteinGrams int
	CarbGrams    int
	FatGrams     int
}

// macroSplit is the calorie share per macro for one goal. Shares sum to 100.
type macroSplit struct {
	protein int
	carbs   int
	fat     int
}

var macroSplits = map[Goal]macroSplit{
	GoalWeightLoss:  {protein: 30, carbs: 35, fat: 35},
	GoalMuscleGain:  {protein: 25, carbs: 45, fat: 30},
	GoalMaintenance: {protein: 20, carbs: 50, fat: 30},
	GoalPerformance: {protein: 20, carbs: 55, fat: 25},
}

const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// CalculateMacros splits a daily calorie budget into gram targets using the
// fixed ratio for the goal. Grams round to the nearest whole gram, so the
// recomposed calories can drift a few kcal from the input.
func CalculateMacros(goal Goal, dailyCalories int) (MacroTargets, error) {
	split, ok := macroSplits[goal]
	if !ok {
		return MacroTargets{}, ErrInvalidGoalCategory
	}
	if dailyCalories < 0 {
		return MacroTargets{}, errors.New("nutrition: negative calorie budget")
	}

	grams := func(sharePercent, kcalPerGram int) int {
		kcal := float64(dailyCalories) * float64(sharePercent) / 100
		return int(math.Round(kcal / float64(kcalPerGram)))
	}
	return MacroTargets{
		ProteinGrams: grams(split.protein, kcalPerGramProtein),
		CarbGrams:    grams(split.carbs, kcalPerGramCarbs),
		FatGrams:     grams(split.fat, kcalPerGramFat),
	}, nil
}
