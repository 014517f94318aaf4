package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

// ErrInvalidTimezone rejects settings with a zone name the runtime can't load.
var ErrInvalidTimezone = errors.New("profile: invalid timezone")

// ErrInvalidWeekStart rejects settings with an unknown week start day.
var ErrInvalidWeekStart = errors.New("profile: invalid week start")

// SettingsRepository defines the persistence operations the service relies on.
type SettingsRepository interface {
	GetProfile(ctx context.Context, trainerID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, trainerID int64, input ProfileInput) error
	GetSettings(ctx context.Context, trainerID int64) (*Settings, error)
	UpsertSettings(ctx context.Context, trainerID int64, settings Settings) error
}

// Service exposes profile and settings use cases.
type Service struct {
	repo            SettingsRepository
	logger          *slog.Logger
	defaultTimezone string
}

// NewService constructs a Service. defaultTimezone backs trainers who never
// saved settings.
func NewService(repo SettingsRepository, logger *slog.Logger, defaultTimezone string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &Service{repo: repo, logger: logger, defaultTimezone: defaultTimezone}
}

// Get fetches the trainer's profile.
func (s *Service) Get(ctx context.Context, trainerID int64) (*Profile, error) {
	return s.repo.GetProfile(ctx, trainerID)
}

// Update stores the editable profile fields.
func (s *Service) Update(ctx context.Context, trainerID int64, input ProfileInput) error {
	return s.repo.UpdateProfile(ctx, trainerID, input)
}

// Settings fetches the trainer's settings, falling back to defaults when the
// trainer never saved any.
func (s *Service) Settings(ctx context.Context, trainerID int64) Settings {
	settings, err := s.repo.GetSettings(ctx, trainerID)
	if errors.Is(err, shared.ErrNotFound) {
		return Settings{Timezone: s.defaultTimezone, WeekStart: "monday"}
	}
	if err != nil {
		s.logger.Error("load settings", slog.Int64("trainer_id", trainerID), slog.Any("error", err))
		return Settings{Timezone: s.defaultTimezone, WeekStart: "monday"}
	}
	return *settings
}

// SaveSettings validates and stores the trainer's settings.
func (s *Service) SaveSettings(ctx context.Context, trainerID int64, settings Settings) error {
	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		return ErrInvalidTimezone
	}
	valid := false
	for _, day := range WeekStarts() {
		if settings.WeekStart == day {
			valid = true
			break
		}
	}
	if !valid {
		return ErrInvalidWeekStart
	}
	return s.repo.UpsertSettings(ctx, trainerID, settings)
}

// Timezone resolves the trainer's stat-boundary timezone. Lookup failures fall
// back to the portal default so stats pages always render.
func (s *Service) Timezone(ctx context.Context, trainerID int64) string {
	return s.Settings(ctx, trainerID).Timezone
}
