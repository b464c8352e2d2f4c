package model

import (
	"fmt"
	"time"
)

// AnchorMode says what a constraint's timing is relative to.
type AnchorMode string

// Anchor modes.
const (
	AnchorMeal  AnchorMode = "meal"
	AnchorClock AnchorMode = "clock"
)

// Constraint is a timing rule attached to a regimen: food-relative
// offsets, clock bounds, spacing from other medications.
type Constraint struct {
	ID        string `json:"id" db:"id"`
	RegimenID string `json:"regimen_id" db:"regimen_id"`

	// WithFood proposes the dose at each main meal.
	WithFood bool `json:"with_food" db:"with_food"`

	// NoFoodBeforeMinutes proposes the dose that many minutes before
	// each meal (empty stomach requirement).
	NoFoodBeforeMinutes *int `json:"no_food_before_minutes,omitempty" db:"no_food_before_minutes"`

	// AfterFoodMinutes proposes the dose that many minutes after each
	// meal, and drives the "can eat now" follow-up reminder.
	AfterFoodMinutes *int `json:"after_food_minutes,omitempty" db:"after_food_minutes"`

	// AvoidSubstances lists substances to keep away from this dose
	// (e.g. dairy, grapefruit, alcohol).
	AvoidSubstances []string `json:"avoid_substances,omitempty" db:"-"`

	// SpacingHours is the minimum separation from other medications.
	SpacingHours *int `json:"spacing_hours,omitempty" db:"spacing_hours"`

	// EarliestTime and LatestTime clamp candidates to a clock range on
	// the target date.
	EarliestTime *ClockTime `json:"earliest_time,omitempty" db:"-"`
	LatestTime   *ClockTime `json:"latest_time,omitempty" db:"-"`

	// QuietHours suppresses reminder sounds for this regimen.
	QuietHours bool `json:"quiet_hours" db:"quiet_hours"`

	Anchor AnchorMode `json:"anchor" db:"anchor"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks internal consistency of the constraint.
func (c Constraint) Validate() error {
	switch c.Anchor {
	case AnchorMeal, AnchorClock:
	default:
		return fmt.Errorf("unknown anchor mode %q", c.Anchor)
	}
	if c.NoFoodBeforeMinutes != nil && *c.NoFoodBeforeMinutes <= 0 {
		return fmt.Errorf("no_food_before_minutes must be > 0 when set")
	}
	if c.AfterFoodMinutes != nil && *c.AfterFoodMinutes <= 0 {
		return fmt.Errorf("after_food_minutes must be > 0 when set")
	}
	if c.SpacingHours != nil && *c.SpacingHours <= 0 {
		return fmt.Errorf("spacing_hours must be > 0 when set")
	}
	if c.EarliestTime != nil && c.LatestTime != nil && c.LatestTime.Before(*c.EarliestTime) {
		return fmt.Errorf("latest_time precedes earliest_time")
	}
	return nil
}
