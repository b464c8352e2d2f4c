package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/pillbox/internal/model"
	"github.com/nhle/pillbox/internal/ui/medform"
)

// medSavedMsg reports a completed medication create or update.
type medSavedMsg struct {
	summary string
}

// mealLoggedMsg reports a recorded meal event.
type mealLoggedMsg struct {
	event model.MealEvent
}

// opFailedMsg carries a failed mutating operation to the status bar.
type opFailedMsg struct {
	err error
}

// createMedication persists a composed medication with its regimen,
// optional constraint, and optional starting inventory.
func (m Model) createMedication(msg medform.MedicationCreatedMsg) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()

		med, err := s.CreateMedication(ctx, msg.Medication)
		if err != nil {
			return opFailedMsg{err: fmt.Errorf("creating medication: %w", err)}
		}

		regimen := msg.Regimen
		regimen.MedicationID = med.ID
		created, err := s.CreateRegimen(ctx, regimen)
		if err != nil {
			return opFailedMsg{err: fmt.Errorf("creating regimen: %w", err)}
		}

		if msg.Constraint != nil {
			c := *msg.Constraint
			c.RegimenID = created.ID
			if _, err := s.CreateConstraint(ctx, c); err != nil {
				return opFailedMsg{err: fmt.Errorf("creating constraint: %w", err)}
			}
		}

		if msg.Inventory != nil {
			inv := *msg.Inventory
			inv.MedicationID = med.ID
			if _, err := s.UpsertInventory(ctx, inv); err != nil {
				return opFailedMsg{err: fmt.Errorf("recording inventory: %w", err)}
			}
		}

		return medSavedMsg{summary: fmt.Sprintf("Added %s", med.Name)}
	}
}

// updateMedication persists edits to a medication and its first
// regimen. The regimen's constraint is replaced wholesale.
func (m Model) updateMedication(msg medform.MedicationUpdatedMsg) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()

		med := msg.Medication
		patch := model.MedicationPatch{
			Name:     &med.Name,
			Form:     &med.Form,
			Strength: &med.Strength,
			Notes:    &med.Notes,
		}
		if err := s.UpdateMedication(ctx, med.ID, patch); err != nil {
			return opFailedMsg{err: fmt.Errorf("updating medication: %w", err)}
		}

		if msg.Regimen != nil {
			r := *msg.Regimen
			rp := model.RegimenPatch{
				DoseAmount:    &r.DoseAmount,
				Frequency:     &r.Frequency,
				DaysOfWeek:    &r.DaysOfWeek,
				IntervalHours: &r.IntervalHours,
				TimesPerDay:   &r.TimesPerDay,
				StartDate:     &r.StartDate,
				EndDate:       &r.EndDate,
				PRN:           &r.PRN,
				PRNMaxPerDay:  &r.PRNMaxPerDay,
			}
			if err := s.UpdateRegimen(ctx, r.ID, rp); err != nil {
				return opFailedMsg{err: fmt.Errorf("updating regimen: %w", err)}
			}

			existing, err := s.GetConstraintsForRegimen(ctx, r.ID)
			if err != nil {
				return opFailedMsg{err: fmt.Errorf("loading constraints: %w", err)}
			}
			for _, c := range existing {
				if err := s.DeleteConstraint(ctx, c.ID); err != nil {
					return opFailedMsg{err: fmt.Errorf("replacing constraint: %w", err)}
				}
			}
			if msg.Constraint != nil {
				c := *msg.Constraint
				c.RegimenID = r.ID
				if _, err := s.CreateConstraint(ctx, c); err != nil {
					return opFailedMsg{err: fmt.Errorf("replacing constraint: %w", err)}
				}
			}
		}

		return medSavedMsg{summary: fmt.Sprintf("Updated %s", med.Name)}
	}
}

// logMealNow records a meal event at the current time. The meal type is
// inferred from the user's preferred meal times: whichever is closest
// to now on the clock.
func (m Model) logMealNow() tea.Cmd {
	s := m.store
	defaults := m.defaultPrefs
	return func() tea.Msg {
		ctx := context.Background()
		now := time.Now()

		prefs, err := s.GetOrCreateUserPrefs(ctx, defaults)
		if err != nil {
			return opFailedMsg{err: fmt.Errorf("loading preferences: %w", err)}
		}

		event, err := s.CreateMealEvent(ctx, model.MealEvent{
			MealType:   nearestMealType(prefs, now),
			OccurredAt: now,
		})
		if err != nil {
			return opFailedMsg{err: fmt.Errorf("logging meal: %w", err)}
		}
		return mealLoggedMsg{event: event}
	}
}

// nearestMealType picks the meal whose preferred time is closest to the
// given instant's clock time.
func nearestMealType(prefs model.UserPrefs, at time.Time) string {
	nowMinutes := at.Hour()*60 + at.Minute()

	best := model.MealSnack
	bestDist := 24 * 60
	for _, mt := range []string{model.MealBreakfast, model.MealLunch, model.MealDinner, model.MealSnack} {
		ct, ok := prefs.MealTimeFor(mt)
		if !ok {
			continue
		}
		dist := nowMinutes - ct.Minutes()
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			bestDist = dist
			best = mt
		}
	}
	return best
}
