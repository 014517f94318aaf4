package activity

import "time"

// Category tags one entry in the activity log.
type Category string

const (
	CategorySession       Category = "session"
	CategoryWorkoutPlan   Category = "workout_plan"
	CategoryNutritionPlan Category = "nutrition_plan"
	CategoryNote          Category = "note"
)

// Categories lists every valid activity category.
func Categories() []Category {
	return []Category{CategorySession, CategoryWorkoutPlan, CategoryNutritionPlan, CategoryNote}
}

// RelatedKind identifies the variant of a related entity reference.
type RelatedKind string

const (
	RelatedSession       RelatedKind = "session"
	RelatedWorkoutPlan   RelatedKind = "workout_plan"
	RelatedNutritionPlan RelatedKind = "nutrition_plan"
)

// Related is the resolved display data for the entity an entry points at.
// Exactly one variant applies per entry; resolution is an explicit per-variant
// lookup, never a join keyed off the category string.
type Related struct {
	Kind  RelatedKind
	Title string
	Date  time.Time
}

// Entry is one row in a trainer's activity log.
type Entry struct {
	ID        int64
	TrainerID int64
	MemberID  int64 // 0 when the entry is not member specific
	Category  Category
	Title     string
	Note      string
	CreatedAt time.Time

	// Joined display data.
	MemberName  string
	MemberImage string

	// Resolved related entity, nil when the entry stands alone.
	Related *Related
}

// RecordInput carries the fields for a new log entry.
type RecordInput struct {
	TrainerID   int64
	MemberID    int64
	Category    Category
	Title       string
	Note        string
	RelatedKind RelatedKind
	RelatedID   int64
}

// Criteria is the optional filter set for the activity list. Zero values mean
// "no constraint".
type Criteria struct {
	Category Category
	MemberID int64
	Day      string // YYYY-MM-DD
	Search   string
}

// TopMember is the member with the most log entries for a trainer.
type TopMember struct {
	MemberID int64  `json:"member_id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}

// StatsSnapshot aggregates a trainer's activity independent of any list
// filter. A zero-filled snapshot is served when aggregation fails.
type StatsSnapshot struct {
	Total      int            `json:"total"`
	Today      int            `json:"today"`
	ThisWeek   int            `json:"this_week"`
	ByCategory map[string]int `json:"by_category"`
	TopMember  *TopMember     `json:"top_member,omitempty"`
}
