package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/pillbox/internal/model"
	"github.com/nhle/pillbox/internal/notify"
	"github.com/nhle/pillbox/internal/store"
)

// NextDose is the computed next due dose for one regimen.
type NextDose struct {
	Regimen        model.Regimen
	DueAt          time.Time
	Reason         string
	Overdue        bool
	OverdueMinutes int
	CanTakeNow     bool
}

// Planner combines the persistence gateway, the generator, and the
// constraint evaluator to produce next-due doses, rank regimens, and
// handle the mark-taken transition. Construct one per application;
// it holds no mutable state beyond its collaborators.
type Planner struct {
	store        store.Store
	notifier     notify.Scheduler
	settings     Settings
	defaultPrefs model.UserPrefs
	logger       *zap.Logger
	now          func() time.Time
}

// NewPlanner creates a Planner. defaultPrefs seeds the preferences
// record on first access.
func NewPlanner(
	st store.Store,
	notifier notify.Scheduler,
	settings Settings,
	defaultPrefs model.UserPrefs,
	logger *zap.Logger,
) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		store:        st,
		notifier:     notifier,
		settings:     settings,
		defaultPrefs: defaultPrefs,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock overrides the planner's time source. Test hook.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

// ComputeNext determines the next due dose for a regimen at the given
// instant. Pure: operates only on the arguments.
//
// Previously-taken regimens get interval arithmetic; every other
// frequency reuses the never-taken branch even after a dose was taken.
func (p *Planner) ComputeNext(r model.Regimen, prefs model.UserPrefs, now time.Time) NextDose {
	var due time.Time
	var reason string

	switch {
	case r.Frequency == model.FrequencyInterval && r.LastTakenAt != nil:
		h := *r.IntervalHours
		due = r.LastTakenAt.Add(time.Duration(h) * time.Hour)
		reason = fmt.Sprintf("%dh after last dose", h)

	case r.Frequency == model.FrequencyTimesPerDay:
		due, reason = p.nextSlot(r, now)

	default:
		due = now
		reason = "due now"
	}

	if len(r.Constraints) > 0 {
		due, reason = p.applyMealOverride(r, prefs, due, now, reason)
	}

	nd := NextDose{
		Regimen:    r,
		DueAt:      due,
		Reason:     reason,
		CanTakeNow: true,
	}

	if now.After(due) {
		nd.Overdue = true
		nd.OverdueMinutes = int(now.Sub(due) / time.Minute)
	}

	// The only hard blocker is an interval regimen whose minimum
	// next-allowed time has not elapsed yet.
	if r.Frequency == model.FrequencyInterval && r.LastTakenAt != nil {
		minNext := r.LastTakenAt.Add(time.Duration(*r.IntervalHours) * time.Hour)
		if now.Before(minNext) {
			nd.CanTakeNow = false
		}
	}

	return nd
}

// nextSlot returns the next not-yet-passed timesPerDay slot, rolling to
// the next day's first slot when all of today's have passed.
func (p *Planner) nextSlot(r model.Regimen, now time.Time) (time.Time, string) {
	slots := DaySlots(r, now, p.settings)
	for i, slot := range slots {
		if !slot.Before(now) {
			return slot, fmt.Sprintf("dose %d of %d", i+1, len(slots))
		}
	}
	tomorrow := DaySlots(r, startOfDay(now).AddDate(0, 0, 1), p.settings)
	if len(tomorrow) == 0 {
		return now, "due now"
	}
	return tomorrow[0], fmt.Sprintf("dose 1 of %d (tomorrow)", len(tomorrow))
}

// applyMealOverride adjusts a computed due time through the regimen's
// constraints. Candidates from every constraint are unioned; the first
// candidate at or after now wins. When today's candidates have all
// passed, the search rolls to the next day's meal times, with the
// proposed instant shifted so clock clamps anchor on the day being
// evaluated.
func (p *Planner) applyMealOverride(
	r model.Regimen,
	prefs model.UserPrefs,
	due time.Time,
	now time.Time,
	reason string,
) (time.Time, string) {
	for dayOffset := 0; dayOffset < 2; dayOffset++ {
		proposed := due.AddDate(0, 0, dayOffset)
		meals := ResolveMealTimes(prefs, proposed)
		sets := make([][]Candidate, 0, len(r.Constraints))
		for _, c := range r.Constraints {
			sets = append(sets, EvaluateConstraint(c, meals, proposed))
		}
		merged := MergeCandidates(sets...)

		for _, cand := range merged {
			if cand.At.Before(now) {
				continue
			}
			if cand.At.Equal(due) {
				return due, reason
			}
			return cand.At, cand.Reason + " (adjusted for meal timing)"
		}
	}
	return due, reason
}

// NextPill returns the single next due dose across all active
// regimens: the minimum next-due time, ties broken by regimen ID so
// the ranking is deterministic. Returns nil when no regimen is active.
func (p *Planner) NextPill(ctx context.Context) (*NextDose, error) {
	doses, err := p.computeAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(doses) == 0 {
		return nil, nil
	}

	best := doses[0]
	for _, d := range doses[1:] {
		if d.DueAt.Before(best.DueAt) ||
			(d.DueAt.Equal(best.DueAt) && d.Regimen.ID < best.Regimen.ID) {
			best = d
		}
	}
	return &best, nil
}

// TodaysPills returns every regimen whose computed next-due time falls
// within [now, end of today], sorted ascending by due time.
func (p *Planner) TodaysPills(ctx context.Context) ([]NextDose, error) {
	doses, err := p.computeAll(ctx)
	if err != nil {
		return nil, err
	}

	now := p.now()
	endOfToday := startOfDay(now).AddDate(0, 0, 1)

	var today []NextDose
	for _, d := range doses {
		if d.DueAt.Before(now) || !d.DueAt.Before(endOfToday) {
			continue
		}
		today = append(today, d)
	}

	sort.Slice(today, func(i, j int) bool {
		if today[i].DueAt.Equal(today[j].DueAt) {
			return today[i].Regimen.ID < today[j].Regimen.ID
		}
		return today[i].DueAt.Before(today[j].DueAt)
	})
	return today, nil
}

// computeAll loads prefs and active regimens and computes the next
// dose for each, applying the PRN daily cap to can-take-now.
func (p *Planner) computeAll(ctx context.Context) ([]NextDose, error) {
	now := p.now()

	prefs, err := p.store.GetOrCreateUserPrefs(ctx, p.defaultPrefs)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}

	regimens, err := p.store.GetActiveRegimens(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("loading active regimens: %w", err)
	}

	doses := make([]NextDose, 0, len(regimens))
	for _, r := range regimens {
		nd := p.ComputeNext(r, prefs, now)
		if nd.CanTakeNow && r.PRN && r.PRNMaxPerDay != nil {
			capped, err := p.prnCapReached(ctx, r, now)
			if err != nil {
				return nil, err
			}
			if capped {
				nd.CanTakeNow = false
			}
		}
		doses = append(doses, nd)
	}
	return doses, nil
}

// prnCapReached reports whether a PRN regimen has hit its max doses for
// the calendar day containing now.
func (p *Planner) prnCapReached(ctx context.Context, r model.Regimen, now time.Time) (bool, error) {
	sod := startOfDay(now)
	eod := sod.AddDate(0, 0, 1)
	status := model.DoseStatusTaken
	events, err := p.store.GetDoseEvents(ctx, store.DoseEventFilter{
		RegimenID: &r.ID,
		Status:    &status,
		From:      &sod,
		To:        &eod,
	})
	if err != nil {
		return false, fmt.Errorf("counting PRN doses for regimen %s: %w", r.ID, err)
	}
	return len(events) >= *r.PRNMaxPerDay, nil
}

// MarkTaken records that a dose was taken and recomputes follow-on
// reminders. A zero takenAt means now.
//
// The taken state is fully persisted before any reminder is scheduled,
// so a crash between the two leaves the dose correctly recorded even
// if reminder scheduling is lost.
func (p *Planner) MarkTaken(ctx context.Context, regimenID string, takenAt time.Time) (model.DoseEvent, error) {
	if takenAt.IsZero() {
		takenAt = p.now()
	}

	r, err := p.store.GetRegimenByID(ctx, regimenID)
	if err != nil {
		return model.DoseEvent{}, err
	}

	if err := p.store.SetRegimenLastTaken(ctx, regimenID, takenAt); err != nil {
		return model.DoseEvent{}, err
	}

	event, err := p.store.CreateDoseEvent(ctx, model.DoseEvent{
		RegimenID:   regimenID,
		ScheduledAt: takenAt,
		TakenAt:     &takenAt,
		Status:      model.DoseStatusTaken,
	})
	if err != nil {
		return model.DoseEvent{}, err
	}

	med, err := p.store.GetMedicationByID(ctx, r.MedicationID)
	if err != nil {
		return model.DoseEvent{}, err
	}

	p.decrementInventory(ctx, med)
	p.scheduleFollowOns(ctx, *r, med.Name, takenAt)

	return event, nil
}

// MarkSkipped records that a dose was deliberately skipped. Skipping
// never advances the regimen's last-taken time and never touches
// inventory, so the next computed dose is unchanged.
func (p *Planner) MarkSkipped(ctx context.Context, regimenID string) (model.DoseEvent, error) {
	if _, err := p.store.GetRegimenByID(ctx, regimenID); err != nil {
		return model.DoseEvent{}, err
	}
	return p.store.CreateDoseEvent(ctx, model.DoseEvent{
		RegimenID:   regimenID,
		ScheduledAt: p.now(),
		Status:      model.DoseStatusSkipped,
	})
}

// decrementInventory takes one unit off the medication's stock and
// raises a low-stock reminder when the threshold is crossed. Inventory
// bookkeeping never fails the mark-taken flow; errors are logged.
func (p *Planner) decrementInventory(ctx context.Context, med *model.Medication) {
	inv, err := p.store.AdjustInventory(ctx, med.ID, -1)
	if err != nil {
		p.logger.Error("adjusting inventory failed",
			zap.String("medication_id", med.ID), zap.Error(err))
		return
	}
	if inv == nil || !inv.IsLow() {
		return
	}

	_, err = p.notifier.Schedule(ctx, notify.Request{
		Title:   "Running low",
		Body:    fmt.Sprintf("%s: %.0f units left", med.Name, inv.UnitsRemaining),
		FireAt:  p.now(),
		Channel: notify.ChannelInventory,
		Payload: map[string]string{"medication_id": med.ID},
	})
	if err != nil {
		p.logger.Error("scheduling low-stock notification failed",
			zap.String("medication_id", med.ID), zap.Error(err))
	}
}

// scheduleFollowOns queues the next-dose reminder for interval regimens
// and a "can eat now" reminder for each empty-stomach constraint.
// Reminder failures are logged, never propagated: the dose is already
// durably recorded.
func (p *Planner) scheduleFollowOns(ctx context.Context, r model.Regimen, medName string, takenAt time.Time) {
	if r.Frequency == model.FrequencyInterval && r.IntervalHours != nil {
		next := takenAt.Add(time.Duration(*r.IntervalHours) * time.Hour)
		_, err := p.notifier.Schedule(ctx, notify.Request{
			Title:   "Time for " + medName,
			Body:    fmt.Sprintf("Next %s dose (%s)", medName, r.DoseAmount),
			FireAt:  next,
			Channel: notify.ChannelDoses,
			Payload: map[string]string{"regimen_id": r.ID},
		})
		if err != nil {
			p.logger.Error("scheduling next-dose reminder failed",
				zap.String("regimen_id", r.ID), zap.Error(err))
		}
	}

	for _, c := range r.Constraints {
		if c.AfterFoodMinutes == nil {
			continue
		}
		at := takenAt.Add(time.Duration(*c.AfterFoodMinutes) * time.Minute)
		_, err := p.notifier.Schedule(ctx, notify.Request{
			Title:   "You can eat now",
			Body:    fmt.Sprintf("%d min passed since taking %s", *c.AfterFoodMinutes, medName),
			FireAt:  at,
			Channel: notify.ChannelMeals,
			Payload: map[string]string{"regimen_id": r.ID, "constraint_id": c.ID},
		})
		if err != nil {
			p.logger.Error("scheduling can-eat reminder failed",
				zap.String("constraint_id", c.ID), zap.Error(err))
		}
	}
}

// ScheduleForDay produces the full adjusted dose schedule for one
// calendar day across all active regimens, plus any timing conflicts.
// Base instants come from the generator; regimens with constraints get
// their instants replaced by the unioned constraint candidates.
func (p *Planner) ScheduleForDay(ctx context.Context, day time.Time) ([]Dose, []Conflict, error) {
	prefs, err := p.store.GetOrCreateUserPrefs(ctx, p.defaultPrefs)
	if err != nil {
		return nil, nil, fmt.Errorf("loading preferences: %w", err)
	}

	regimens, err := p.store.GetActiveRegimens(ctx, startOfDay(day).Add(12*time.Hour))
	if err != nil {
		return nil, nil, fmt.Errorf("loading active regimens: %w", err)
	}

	meals := ResolveMealTimes(prefs, day)

	var all []Dose
	for _, r := range regimens {
		base := GenerateForDay(r, day, p.settings)
		if len(base) == 0 {
			continue
		}
		if len(r.Constraints) == 0 {
			all = append(all, base...)
			continue
		}

		var sets [][]Candidate
		for _, d := range base {
			for _, c := range r.Constraints {
				sets = append(sets, EvaluateConstraint(c, meals, d.At))
			}
		}
		for _, cand := range MergeCandidates(sets...) {
			all = append(all, Dose{
				RegimenID: r.ID,
				At:        cand.At,
				Amount:    r.DoseAmount,
				Reason:    cand.Reason,
			})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].At.Equal(all[j].At) {
			return all[i].RegimenID < all[j].RegimenID
		}
		return all[i].At.Before(all[j].At)
	})

	sod := startOfDay(day)
	eod := sod.AddDate(0, 0, 1)
	status := model.DoseStatusTaken
	taken, err := p.store.GetDoseEvents(ctx, store.DoseEventFilter{
		Status: &status,
		From:   &sod,
		To:     &eod,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loading taken doses: %w", err)
	}

	return all, DetectConflicts(all, taken), nil
}
