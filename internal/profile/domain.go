package profile

import "time"

// Profile is the trainer's public-facing profile.
type Profile struct {
	TrainerID int64
	Name      string
	Email     string
	Bio       string
	Phone     string
	Specialty string
	ImageURL  string
	UpdatedAt time.Time
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	Name      string
	Bio       string
	Phone     string
	Specialty string
	ImageURL  string
}

// Settings holds the trainer's portal preferences. Timezone is an IANA zone
// name used for the "today" and "this week" stat boundaries.
type Settings struct {
	Timezone  string
	WeekStart string
}

// WeekStarts lists the accepted week start days.
func WeekStarts() []string {
	return []string{"monday", "sunday"}
}
