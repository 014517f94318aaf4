package workouts

import "time"

// Category tags a workout plan.
type Category string

const (
	CategoryStrength       Category = "strength"
	CategoryCardio         Category = "cardio"
	CategoryFlexibility    Category = "flexibility"
	CategoryRehabilitation Category = "rehabilitation"
)

// Categories lists every valid workout plan category.
func Categories() []Category {
	return []Category{CategoryStrength, CategoryCardio, CategoryFlexibility, CategoryRehabilitation}
}

// Plan is a workout plan authored by a trainer, optionally tied to a member.
type Plan struct {
	ID          int64
	TrainerID   int64
	MemberID    int64 // 0 when the plan is a reusable template
	Title       string
	Description string
	Category    Category
	IsArchived  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined display data.
	MemberName    string
	MemberImage   string
	ExerciseCount int
}

// Exercise is one prescribed movement inside a plan.
type Exercise struct {
	ID       int64
	PlanID   int64
	Name     string
	Sets     int
	Reps     int
	RestSecs int
	Position int
}

// PlanInput carries the authorable fields of a plan.
type PlanInput struct {
	TrainerID   int64
	MemberID    int64
	Title       string
	Description string
	Category    Category
}

// Criteria is the optional filter set for the plan list.
type Criteria struct {
	Category Category
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
	Total      int            `json:"total"`
	Today      int            `json:"today"`
	ThisWeek   int            `json:"this_week"`
	ByCategory map[string]int `json:"by_category"`
	TopMember  *TopMember     `json:"top_member,omitempty"`
}
