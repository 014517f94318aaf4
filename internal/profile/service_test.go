package profile

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
)

type memorySettingsRepo struct {
	profiles map[int64]Profile
	settings map[int64]Settings
}

func newMemorySettingsRepo() *memorySettingsRepo {
	return &memorySettingsRepo{profiles: map[int64]Profile{}, settings: map[int64]Settings{}}
}

func (m *memorySettingsRepo) GetProfile(_ context.Context, trainerID int64) (*Profile, error) {
	prof, ok := m.profiles[trainerID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &prof, nil
}

func (m *memorySettingsRepo) UpdateProfile(_ context.Context, trainerID int64, input ProfileInput) error {
	prof, ok := m.profiles[trainerID]
	if !ok {
		return shared.ErrNotFound
	}
	prof.Name = input.Name
	prof.Bio = input.Bio
	prof.Phone = input.Phone
	prof.Specialty = input.Specialty
	prof.ImageURL = input.ImageURL
	m.profiles[trainerID] = prof
	return nil
}

func (m *memorySettingsRepo) GetSettings(_ context.Context, trainerID int64) (*Settings, error) {
	settings, ok := m.settings[trainerID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &settings, nil
}

func (m *memorySettingsRepo) UpsertSettings(_ context.Context, trainerID int64, settings Settings) error {
	m.settings[trainerID] = settings
	return nil
}

func newTestService(repo SettingsRepository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), "UTC")
}

func TestTimezoneDefaultsWhenUnset(t *testing.T) {
	svc := newTestService(newMemorySettingsRepo())

	require.Equal(t, "UTC", svc.Timezone(context.Background(), 1))
}

func TestSaveSettingsValidatesZone(t *testing.T) {
	repo := newMemorySettingsRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	err := svc.SaveSettings(ctx, 1, Settings{Timezone: "Mars/Olympus", WeekStart: "monday"})
	require.ErrorIs(t, err, ErrInvalidTimezone)

	err = svc.SaveSettings(ctx, 1, Settings{Timezone: "Europe/Berlin", WeekStart: "friday"})
	require.ErrorIs(t, err, ErrInvalidWeekStart)

	require.NoError(t, svc.SaveSettings(ctx, 1, Settings{Timezone: "Europe/Berlin", WeekStart: "monday"}))
	require.Equal(t, "Europe/Berlin", svc.Timezone(ctx, 1))
}

func TestUpdateProfileRoundTrip(t *testing.T) {
	repo := newMemorySettingsRepo()
	repo.profiles[1] = Profile{TrainerID: 1, Name: "Jo", Email: "jo@elitefit.example"}
	svc := newTestService(repo)
	ctx := context.Background()

	err := svc.Update(ctx, 1, ProfileInput{Name: "Jo Coach", Bio: "Strength specialist", Specialty: "powerlifting"})
	require.NoError(t, err)

	prof, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Jo Coach", prof.Name)
	require.Equal(t, "powerlifting", prof.Specialty)

	require.ErrorIs(t, svc.Update(ctx, 99, ProfileInput{Name: "Ghost"}), shared.ErrNotFound)
}
