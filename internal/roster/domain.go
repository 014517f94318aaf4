package roster

import "time"

// Member is a gym member visible to trainers.
type Member struct {
	ID        int64
	Name      string
	Email     string
	ImageURL  string
	JoinedAt  time.Time
	CreatedAt time.Time

	// AssignedAt is set when listing a trainer's own roster.
	AssignedAt time.Time
}

// Criteria is the optional filter set for the member list.
type Criteria struct {
	Search       string
	AssignedOnly bool
}

// Counters summarise a member's engagement with one trainer.
type Counters struct {
	Sessions       int
	WorkoutPlans   int
	NutritionPlans int
	ActivityNotes  int
}

// Detail is the member profile page payload.
type Detail struct {
	Member   Member
	Counters Counters
}
