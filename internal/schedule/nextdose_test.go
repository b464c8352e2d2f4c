package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/pillbox/internal/model"
	"github.com/nhle/pillbox/internal/notify"
	"github.com/nhle/pillbox/internal/schedule"
	"github.com/nhle/pillbox/internal/store"
	"github.com/nhle/pillbox/tests/testutil"
)

func intPtr(n int) *int { return &n }

// newTestPlanner builds a planner over an in-memory store with a frozen
// clock and an unstarted dispatcher whose queue the test can inspect.
func newTestPlanner(t *testing.T, now time.Time) (*schedule.Planner, *store.SQLiteStore, *notify.Dispatcher) {
	t.Helper()

	s := testutil.NewTestStore(t)
	d := notify.NewDispatcher(time.Hour, nil).WithClock(func() time.Time { return now })
	defaults := model.UserPrefs{
		SleepWindow:       model.TimeWindow{Start: model.ClockTime{Hour: 22}, End: model.ClockTime{Hour: 7}},
		WorkHours:         model.TimeWindow{Start: model.ClockTime{Hour: 9}, End: model.ClockTime{Hour: 17}},
		NotificationStyle: model.NotifyGentle,
		TimezonePolicy:    model.TimezoneRelative,
		BreakfastTime:     model.ClockTime{Hour: 8},
		LunchTime:         model.ClockTime{Hour: 12},
		DinnerTime:        model.ClockTime{Hour: 18},
		SnackTime:         model.ClockTime{Hour: 15},
	}
	p := schedule.NewPlanner(s, d, schedule.DefaultSettings(), defaults, nil).
		WithClock(func() time.Time { return now })
	return p, s, d
}

func createMedWithRegimen(t *testing.T, s *store.SQLiteStore, r model.Regimen) (model.Medication, model.Regimen) {
	t.Helper()
	ctx := context.Background()

	med, err := s.CreateMedication(ctx, model.Medication{Name: "Metformin", Form: model.FormTablet})
	if err != nil {
		t.Fatalf("creating medication: %v", err)
	}
	r.MedicationID = med.ID
	created, err := s.CreateRegimen(ctx, r)
	if err != nil {
		t.Fatalf("creating regimen: %v", err)
	}
	return med, created
}

func TestMarkTakenAdvancesIntervalAndSchedulesReminder(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	p, s, d := newTestPlanner(t, now)
	ctx := context.Background()

	_, r := createMedWithRegimen(t, s, model.Regimen{
		DoseAmount:    "1 tablet",
		Frequency:     model.FrequencyInterval,
		IntervalHours: intPtr(4),
		StartDate:     time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})

	event, err := p.MarkTaken(ctx, r.ID, time.Time{})
	if err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	if event.Status != model.DoseStatusTaken || event.TakenAt == nil {
		t.Fatalf("unexpected dose event: %+v", event)
	}

	got, err := s.GetRegimenByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("reloading regimen: %v", err)
	}
	if got.LastTakenAt == nil || !got.LastTakenAt.Equal(now) {
		t.Errorf("last taken = %v, want %v", got.LastTakenAt, now)
	}

	pending := d.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 queued reminder, got %d", len(pending))
	}
	wantNext := now.Add(4 * time.Hour)
	if !pending[0].FireAt.Equal(wantNext) {
		t.Errorf("reminder fires at %v, want %v", pending[0].FireAt, wantNext)
	}

	next, err := p.NextPill(ctx)
	if err != nil {
		t.Fatalf("NextPill: %v", err)
	}
	if next == nil {
		t.Fatal("expected a next pill")
	}
	if !next.DueAt.Equal(wantNext) {
		t.Errorf("next due at %v, want %v", next.DueAt, wantNext)
	}
	if next.CanTakeNow {
		t.Error("interval regimen should block taking before the interval elapses")
	}
}

func TestMarkTakenIsMonotonic(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	p, s, _ := newTestPlanner(t, now)
	ctx := context.Background()

	_, r := createMedWithRegimen(t, s, model.Regimen{
		DoseAmount:    "1 tablet",
		Frequency:     model.FrequencyInterval,
		IntervalHours: intPtr(6),
		StartDate:     time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})

	if _, err := p.MarkTaken(ctx, r.ID, now); err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	// A retroactive mark with an earlier time must not move the anchor back.
	if _, err := p.MarkTaken(ctx, r.ID, now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("retroactive MarkTaken: %v", err)
	}

	got, err := s.GetRegimenByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("reloading regimen: %v", err)
	}
	if got.LastTakenAt == nil || !got.LastTakenAt.Equal(now) {
		t.Errorf("last taken regressed to %v, want %v", got.LastTakenAt, now)
	}
}

func TestComputeNextRollsMealWindowToNextDay(t *testing.T) {
	// 20:00, after every meal candidate for today has passed. The
	// latest-time clamp must anchor on the day under evaluation, so the
	// search rolls to tomorrow's breakfast instead of giving up.
	now := time.Date(2026, time.March, 10, 20, 0, 0, 0, time.UTC)
	p, _, _ := newTestPlanner(t, now)

	latest := model.ClockTime{Hour: 9}
	r := model.Regimen{
		ID:         "r1",
		DoseAmount: "1 tablet",
		Frequency:  model.FrequencyDaily,
		StartDate:  time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		Constraints: []model.Constraint{
			{WithFood: true, LatestTime: &latest},
		},
	}
	prefs := model.UserPrefs{
		BreakfastTime: model.ClockTime{Hour: 8},
		LunchTime:     model.ClockTime{Hour: 12},
		DinnerTime:    model.ClockTime{Hour: 18},
		SnackTime:     model.ClockTime{Hour: 15},
	}

	nd := p.ComputeNext(r, prefs, now)
	want := time.Date(2026, time.March, 11, 8, 0, 0, 0, time.UTC)
	if !nd.DueAt.Equal(want) {
		t.Errorf("due at %v, want tomorrow's breakfast %v", nd.DueAt, want)
	}
}

func TestMarkSkippedLeavesRegimenUntouched(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	p, s, d := newTestPlanner(t, now)
	ctx := context.Background()

	med, r := createMedWithRegimen(t, s, model.Regimen{
		DoseAmount:    "1 tablet",
		Frequency:     model.FrequencyInterval,
		IntervalHours: intPtr(4),
		StartDate:     time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	if _, err := s.UpsertInventory(ctx, model.Inventory{
		MedicationID:   med.ID,
		UnitsRemaining: 5,
	}); err != nil {
		t.Fatalf("seeding inventory: %v", err)
	}

	event, err := p.MarkSkipped(ctx, r.ID)
	if err != nil {
		t.Fatalf("MarkSkipped: %v", err)
	}
	if event.Status != model.DoseStatusSkipped || event.TakenAt != nil {
		t.Fatalf("unexpected dose event: %+v", event)
	}

	got, err := s.GetRegimenByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("reloading regimen: %v", err)
	}
	if got.LastTakenAt != nil {
		t.Errorf("skip advanced last taken to %v", got.LastTakenAt)
	}

	inv, err := s.GetInventoryForMedication(ctx, med.ID)
	if err != nil {
		t.Fatalf("reloading inventory: %v", err)
	}
	if inv == nil || inv.UnitsRemaining != 5 {
		t.Errorf("inventory = %+v, want 5 units untouched", inv)
	}
	if pending := d.Pending(); len(pending) != 0 {
		t.Errorf("skip queued %d reminders", len(pending))
	}

	if _, err := p.MarkSkipped(ctx, "missing"); err == nil {
		t.Error("expected an error for an unknown regimen")
	}
}

func TestMarkTakenUnknownRegimen(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	p, _, _ := newTestPlanner(t, now)

	if _, err := p.MarkTaken(context.Background(), "missing", time.Time{}); err == nil {
		t.Fatal("expected an error for an unknown regimen")
	}
}

func TestNextPillTieBreaksByRegimenID(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	p, s, _ := newTestPlanner(t, now)
	ctx := context.Background()

	_, r1 := createMedWithRegimen(t, s, model.Regimen{
		DoseAmount: "1 tablet",
		Frequency:  model.FrequencyDaily,
		StartDate:  time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	_, r2 := createMedWithRegimen(t, s, model.Regimen{
		DoseAmount: "2 tablets",
		Frequency:  model.FrequencyDaily,
		StartDate:  time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})

	next, err := p.NextPill(ctx)
	if err != nil {
		t.Fatalf("NextPill: %v", err)
	}
	if next == nil {
		t.Fatal("expected a next pill")
	}

	wantID := r1.ID
	if r2.ID < r1.ID {
		wantID = r2.ID
	}
	if next.Regimen.ID != wantID {
		t.Errorf("tie broke to regimen %s, want the lower ID %s", next.Regimen.ID, wantID)
	}
}

func TestPRNCapBlocksCanTakeNow(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	p, s, _ := newTestPlanner(t, now)
	ctx := context.Background()

	_, r := createMedWithRegimen(t, s, model.Regimen{
		DoseAmount:   "1 tablet",
		Frequency:    model.FrequencyDaily,
		StartDate:    time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		PRN:          true,
		PRNMaxPerDay: intPtr(1),
	})

	today, err := p.TodaysPills(ctx)
	if err != nil {
		t.Fatalf("TodaysPills: %v", err)
	}
	if len(today) != 1 || !today[0].CanTakeNow {
		t.Fatalf("before the cap the dose should be takeable, got %+v", today)
	}

	if _, err := p.MarkTaken(ctx, r.ID, time.Time{}); err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}

	today, err = p.TodaysPills(ctx)
	if err != nil {
		t.Fatalf("TodaysPills after cap: %v", err)
	}
	if len(today) != 1 {
		t.Fatalf("expected the regimen to still list, got %d entries", len(today))
	}
	if today[0].CanTakeNow {
		t.Error("PRN cap of 1/day should block further doses today")
	}
}

func TestMarkTakenDecrementsInventoryAndWarnsWhenLow(t *testing.T) {
	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	p, s, d := newTestPlanner(t, now)
	ctx := context.Background()

	med, r := createMedWithRegimen(t, s, model.Regimen{
		DoseAmount: "1 tablet",
		Frequency:  model.FrequencyDaily,
		StartDate:  time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	if _, err := s.UpsertInventory(ctx, model.Inventory{
		MedicationID:      med.ID,
		UnitsRemaining:    3,
		LowStockThreshold: 2,
	}); err != nil {
		t.Fatalf("seeding inventory: %v", err)
	}

	if _, err := p.MarkTaken(ctx, r.ID, time.Time{}); err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}

	inv, err := s.GetInventoryForMedication(ctx, med.ID)
	if err != nil {
		t.Fatalf("reloading inventory: %v", err)
	}
	if inv == nil || inv.UnitsRemaining != 2 {
		t.Fatalf("inventory = %+v, want 2 units remaining", inv)
	}

	var lowStock int
	for _, req := range d.Pending() {
		if req.Channel == notify.ChannelInventory {
			lowStock++
		}
	}
	if lowStock != 1 {
		t.Errorf("expected 1 low-stock reminder, got %d", lowStock)
	}
}

func TestScheduleForDayAppliesFoodConstraints(t *testing.T) {
	now := time.Date(2026, time.March, 10, 6, 0, 0, 0, time.UTC)
	p, s, _ := newTestPlanner(t, now)
	ctx := context.Background()

	_, r := createMedWithRegimen(t, s, model.Regimen{
		DoseAmount: "1 tablet",
		Frequency:  model.FrequencyDaily,
		StartDate:  time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	if _, err := s.CreateConstraint(ctx, model.Constraint{
		RegimenID: r.ID,
		WithFood:  true,
	}); err != nil {
		t.Fatalf("creating constraint: %v", err)
	}

	doses, conflicts, err := p.ScheduleForDay(ctx, now)
	if err != nil {
		t.Fatalf("ScheduleForDay: %v", err)
	}
	if len(doses) != 3 {
		t.Fatalf("with-food daily dose should expand to 3 meal slots, got %d", len(doses))
	}
	for i, wantHour := range []int{8, 12, 18} {
		if doses[i].At.Hour() != wantHour {
			t.Errorf("dose %d at %v, want hour %d", i, doses[i].At, wantHour)
		}
	}
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %d", len(conflicts))
	}
}

func TestScheduleForDayFlagsCloseRegimens(t *testing.T) {
	now := time.Date(2026, time.March, 10, 6, 0, 0, 0, time.UTC)
	p, s, _ := newTestPlanner(t, now)
	ctx := context.Background()

	// Two daily regimens with no constraints share the default dose time.
	createMedWithRegimen(t, s, model.Regimen{
		DoseAmount: "1 tablet",
		Frequency:  model.FrequencyDaily,
		StartDate:  time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	createMedWithRegimen(t, s, model.Regimen{
		DoseAmount: "2 tablets",
		Frequency:  model.FrequencyDaily,
		StartDate:  time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})

	_, conflicts, err := p.ScheduleForDay(ctx, now)
	if err != nil {
		t.Fatalf("ScheduleForDay: %v", err)
	}
	if len(conflicts) == 0 {
		t.Fatal("identical dose times across regimens should conflict")
	}
	if conflicts[0].Severity != schedule.SeverityMedium {
		t.Errorf("severity = %q, want %q", conflicts[0].Severity, schedule.SeverityMedium)
	}
}
