package model

import (
	"fmt"
	"time"
)

// Meal type constants.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// MealEvent records that the user ate a meal of a given type at a given
// time. Independent of any medication; used to anchor food-relative
// reminders.
type MealEvent struct {
	ID         string    `json:"id" db:"id"`
	MealType   string    `json:"meal_type" db:"meal_type"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Dose event status constants.
const (
	DoseStatusScheduled = "scheduled"
	DoseStatusTaken     = "taken"
	DoseStatusSkipped   = "skipped"
	DoseStatusMissed    = "missed"
)

// DoseEvent is one entry in the append-only dosing audit log for a
// regimen.
type DoseEvent struct {
	ID          string     `json:"id" db:"id"`
	RegimenID   string     `json:"regimen_id" db:"regimen_id"`
	ScheduledAt time.Time  `json:"scheduled_at" db:"scheduled_at"`
	TakenAt     *time.Time `json:"taken_at,omitempty" db:"taken_at"`
	Status      string     `json:"status" db:"status"`
	Reason      string     `json:"reason,omitempty" db:"reason"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Validate enforces that taken_at is set exactly when status is taken.
func (e DoseEvent) Validate() error {
	switch e.Status {
	case DoseStatusScheduled, DoseStatusSkipped, DoseStatusMissed:
		if e.TakenAt != nil {
			return fmt.Errorf("taken_at set on %s dose event", e.Status)
		}
	case DoseStatusTaken:
		if e.TakenAt == nil {
			return fmt.Errorf("taken dose event missing taken_at")
		}
	default:
		return fmt.Errorf("unknown dose event status %q", e.Status)
	}
	return nil
}
