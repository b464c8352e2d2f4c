package store_test

import (
	"context"
	"testing"

	"github.com/nhle/pillbox/internal/model"
	"github.com/nhle/pillbox/tests/testutil"
)

func defaultPrefs() model.UserPrefs {
	return model.UserPrefs{
		SleepWindow:       model.TimeWindow{Start: model.ClockTime{Hour: 22}, End: model.ClockTime{Hour: 7}},
		WorkHours:         model.TimeWindow{Start: model.ClockTime{Hour: 9}, End: model.ClockTime{Hour: 17}},
		NotificationStyle: model.NotifyGentle,
		TimezonePolicy:    model.TimezoneRelative,
		BreakfastTime:     model.ClockTime{Hour: 8},
		LunchTime:         model.ClockTime{Hour: 12},
		DinnerTime:        model.ClockTime{Hour: 18},
		SnackTime:         model.ClockTime{Hour: 15},
	}
}

func TestGetUserPrefsFirstRun(t *testing.T) {
	s := testutil.NewTestStore(t)

	prefs, err := s.GetUserPrefs(context.Background())
	if err != nil {
		t.Fatalf("GetUserPrefs: %v", err)
	}
	if prefs != nil {
		t.Errorf("expected nil before first access, got %+v", prefs)
	}
}

func TestGetOrCreateUserPrefsCreatesOnce(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first, err := s.GetOrCreateUserPrefs(ctx, defaultPrefs())
	if err != nil {
		t.Fatalf("GetOrCreateUserPrefs: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected a generated ID")
	}
	if first.BreakfastTime.Hour != 8 {
		t.Errorf("breakfast = %v, want the supplied default", first.BreakfastTime)
	}

	// A second call returns the existing row, even with other defaults.
	other := defaultPrefs()
	other.BreakfastTime = model.ClockTime{Hour: 6}
	second, err := s.GetOrCreateUserPrefs(ctx, other)
	if err != nil {
		t.Fatalf("second GetOrCreateUserPrefs: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second call created a new record: %s vs %s", second.ID, first.ID)
	}
	if second.BreakfastTime.Hour != 8 {
		t.Errorf("existing record was overwritten: breakfast %v", second.BreakfastTime)
	}
}

func TestUpdateUserPrefs(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	prefs, err := s.GetOrCreateUserPrefs(ctx, defaultPrefs())
	if err != nil {
		t.Fatalf("GetOrCreateUserPrefs: %v", err)
	}

	prefs.DinnerTime = model.ClockTime{Hour: 19, Minute: 30}
	prefs.NotificationStyle = model.NotifyUrgent
	if err := s.UpdateUserPrefs(ctx, prefs); err != nil {
		t.Fatalf("UpdateUserPrefs: %v", err)
	}

	got, err := s.GetUserPrefs(ctx)
	if err != nil {
		t.Fatalf("GetUserPrefs: %v", err)
	}
	if got == nil {
		t.Fatal("prefs disappeared")
	}
	if got.DinnerTime.Hour != 19 || got.DinnerTime.Minute != 30 {
		t.Errorf("dinner = %v, want 19:30", got.DinnerTime)
	}
	if got.NotificationStyle != model.NotifyUrgent {
		t.Errorf("style = %q, want urgent", got.NotificationStyle)
	}
}
