package nutrition

import "time"

// Goal tags a nutrition plan with the member's objective.
type Goal string

const (
	GoalWeightLoss  Goal = "weight_loss"
	GoalMuscleGain  Goal = "muscle_gain"
	GoalMaintenance Goal = "maintenance"
	GoalPerformance Goal = "performance"
)

// Goals lists every valid nutrition goal.
func Goals() []Goal {
	return []Goal{GoalWeightLoss, GoalMuscleGain, GoalMaintenance, GoalPerformance}
}

// Plan is a nutrition plan authored by a trainer for a member.
type Plan struct {
	ID            int64
	TrainerID     int64
	MemberID      int64
	Title         string
	Goal          Goal
	DailyCalories int
	ProteinGrams  int
	CarbGrams     int
	FatGrams      int
	Notes         string
	StartDate     time.Time
	IsArchived    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Joined display data.
	MemberName  string
	MemberImage string
}

// MealTemplate is a reusable meal a trainer composes plans from.
type MealTemplate struct {
	ID           int64
	TrainerID    int64
	Name         string
	Description  string
	MealType     string
	Calories     int
	ProteinGrams int
	CarbGrams    int
	FatGrams     int
	CreatedAt    time.Time
}

// PlanInput carries the authorable fields of a plan.
type PlanInput struct {
	TrainerID     int64
	MemberID      int64
	Title         string
	Goal          Goal
	DailyCalories int
	Notes         string
	StartDate     time.Time
}

// TemplateInput carries the authorable fields of a meal template.
type TemplateInput struct {
	TrainerID    int64
	Name         string
	Description  string
	MealType     string
	Calories     int
	ProteinGrams int
	CarbGrams    int
	FatGrams     int
}

// Criteria is the optional filter set for the plan list.
type Criteria struct {
	Goal     Goal
	MemberID int64
	Search   string
}

// TopMember is the member with the most plans for a trainer.
type TopMember struct {
	MemberID int64  `json:"member_id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}

// StatsSnapshot aggregates a trainer's plans independent of any list filter.
type StatsSnapshot struct {
	Total     int            `json:"total"`
	Today     int            `json:"today"`
	ThisWeek  int            `json:"this_week"`
	ByGoal    map[string]int `json:"by_goal"`
	TopMember *TopMember     `json:"top_member,omitempty"`
}
