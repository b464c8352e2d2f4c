package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhle/pillbox/internal/model"
	"github.com/nhle/pillbox/internal/store"
	"github.com/nhle/pillbox/tests/testutil"
)

func TestMealEventsRangeIsHalfOpen(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	from := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	for _, e := range []model.MealEvent{
		{MealType: model.MealBreakfast, OccurredAt: from.Add(-time.Hour)}, // day before
		{MealType: model.MealLunch, OccurredAt: from},                     // inclusive lower bound
		{MealType: model.MealDinner, OccurredAt: to.Add(-time.Minute)},    // last minute
		{MealType: model.MealSnack, OccurredAt: to},                       // exclusive upper bound
	} {
		if _, err := s.CreateMealEvent(ctx, e); err != nil {
			t.Fatalf("CreateMealEvent(%s): %v", e.MealType, err)
		}
	}

	got, err := s.GetMealEvents(ctx, from, to)
	if err != nil {
		t.Fatalf("GetMealEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events in [from, to), got %d", len(got))
	}
	if got[0].MealType != model.MealLunch || got[1].MealType != model.MealDinner {
		t.Errorf("unexpected events: %s, %s", got[0].MealType, got[1].MealType)
	}
}

func TestCreateMealEventValidates(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.CreateMealEvent(ctx, model.MealEvent{MealType: "brunch", OccurredAt: time.Now()})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("unknown meal type: expected ErrValidation, got %v", err)
	}

	_, err = s.CreateMealEvent(ctx, model.MealEvent{MealType: model.MealLunch})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("zero occurred_at: expected ErrValidation, got %v", err)
	}
}

func TestCreateDoseEventValidatesTakenAt(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	med := seedMedication(t, s)

	r, err := s.CreateRegimen(ctx, model.Regimen{
		MedicationID: med.ID, DoseAmount: "1", Frequency: model.FrequencyDaily,
	})
	if err != nil {
		t.Fatalf("CreateRegimen: %v", err)
	}

	_, err = s.CreateDoseEvent(ctx, model.DoseEvent{
		RegimenID:   r.ID,
		ScheduledAt: time.Now(),
		Status:      model.DoseStatusTaken, // but no taken_at
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGetDoseEventsFilter(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	med := seedMedication(t, s)

	r1, err := s.CreateRegimen(ctx, model.Regimen{
		MedicationID: med.ID, DoseAmount: "1", Frequency: model.FrequencyDaily,
	})
	if err != nil {
		t.Fatalf("CreateRegimen: %v", err)
	}
	r2, err := s.CreateRegimen(ctx, model.Regimen{
		MedicationID: med.ID, DoseAmount: "2", Frequency: model.FrequencyDaily,
	})
	if err != nil {
		t.Fatalf("CreateRegimen: %v", err)
	}

	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	taken := base.Add(time.Minute)
	events := []model.DoseEvent{
		{RegimenID: r1.ID, ScheduledAt: base, TakenAt: &taken, Status: model.DoseStatusTaken},
		{RegimenID: r1.ID, ScheduledAt: base.Add(6 * time.Hour), Status: model.DoseStatusSkipped},
		{RegimenID: r2.ID, ScheduledAt: base, Status: model.DoseStatusScheduled},
	}
	for i, e := range events {
		if _, err := s.CreateDoseEvent(ctx, e); err != nil {
			t.Fatalf("CreateDoseEvent %d: %v", i, err)
		}
	}

	status := model.DoseStatusTaken
	got, err := s.GetDoseEvents(ctx, store.DoseEventFilter{RegimenID: &r1.ID, Status: &status})
	if err != nil {
		t.Fatalf("GetDoseEvents: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 taken event for r1, got %d", len(got))
	}

	to := base.Add(time.Hour)
	got, err = s.GetDoseEvents(ctx, store.DoseEventFilter{To: &to})
	if err != nil {
		t.Fatalf("GetDoseEvents with To: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events before %v, got %d", to, len(got))
	}

	got, err = s.GetDoseEvents(ctx, store.DoseEventFilter{Limit: 1})
	if err != nil {
		t.Fatalf("GetDoseEvents with Limit: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("limit 1 returned %d events", len(got))
	}
}

func TestDoseEventsCascadeWithRegimen(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	med := seedMedication(t, s)

	r, err := s.CreateRegimen(ctx, model.Regimen{
		MedicationID: med.ID, DoseAmount: "1", Frequency: model.FrequencyDaily,
	})
	if err != nil {
		t.Fatalf("CreateRegimen: %v", err)
	}
	if _, err := s.CreateDoseEvent(ctx, model.DoseEvent{
		RegimenID: r.ID, ScheduledAt: time.Now(), Status: model.DoseStatusScheduled,
	}); err != nil {
		t.Fatalf("CreateDoseEvent: %v", err)
	}

	if err := s.DeleteRegimen(ctx, r.ID); err != nil {
		t.Fatalf("DeleteRegimen: %v", err)
	}

	got, err := s.GetDoseEvents(ctx, store.DoseEventFilter{RegimenID: &r.ID})
	if err != nil {
		t.Fatalf("GetDoseEvents: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("dose events survived regimen deletion: %d left", len(got))
	}
}
