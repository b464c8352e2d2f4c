package model

import (
	"fmt"
	"time"
)

// FrequencyKind identifies how a regimen's doses recur.
type FrequencyKind string

// Frequency kinds.
const (
	FrequencyDaily       FrequencyKind = "daily"
	FrequencyWeekly      FrequencyKind = "weekly"
	FrequencyInterval    FrequencyKind = "interval"
	FrequencyTimesPerDay FrequencyKind = "timesPerDay"

	// FrequencyCycles (e.g. 21 days on, 7 days off) is accepted and
	// stored but has no automatic schedule generation yet.
	FrequencyCycles FrequencyKind = "cycles"
)

// FrequencyKinds lists every accepted frequency kind.
var FrequencyKinds = []FrequencyKind{
	FrequencyDaily,
	FrequencyWeekly,
	FrequencyInterval,
	FrequencyTimesPerDay,
	FrequencyCycles,
}

// Regimen is a dosing rule for one medication: how much, how often,
// and over which validity window.
type Regimen struct {
	ID           string        `json:"id" db:"id"`
	MedicationID string        `json:"medication_id" db:"medication_id"`
	DoseAmount   string        `json:"dose_amount" db:"dose_amount"`
	Frequency    FrequencyKind `json:"frequency" db:"frequency"`

	// DaysOfWeek holds weekday indices (0=Sunday..6=Saturday).
	// Required iff Frequency is weekly.
	DaysOfWeek []int `json:"days_of_week,omitempty" db:"-"`

	// IntervalHours is required iff Frequency is interval.
	IntervalHours *int `json:"interval_hours,omitempty" db:"interval_hours"`

	// TimesPerDay is required iff Frequency is timesPerDay.
	TimesPerDay *int `json:"times_per_day,omitempty" db:"times_per_day"`

	StartDate time.Time  `json:"start_date" db:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty" db:"end_date"`

	// PRN marks an as-needed regimen, optionally bounded per day.
	PRN          bool `json:"prn" db:"prn"`
	PRNMaxPerDay *int `json:"prn_max_per_day,omitempty" db:"prn_max_per_day"`

	// LastTakenAt is the baseline for interval scheduling. Once set it
	// only moves forward, advanced by each mark-taken event.
	LastTakenAt *time.Time `json:"last_taken_at,omitempty" db:"last_taken_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Constraints is populated by queries that load the full regimen.
	Constraints []Constraint `json:"constraints,omitempty" db:"-"`
}

// Validate checks that the frequency-specific field is present and valid
// exactly when the chosen frequency requires it, and absent otherwise.
func (r Regimen) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyCycles:
		if len(r.DaysOfWeek) > 0 || r.IntervalHours != nil || r.TimesPerDay != nil {
			return fmt.Errorf("frequency %q takes no frequency-specific fields", r.Frequency)
		}
	case FrequencyWeekly:
		if len(r.DaysOfWeek) == 0 {
			return fmt.Errorf("weekly regimen requires at least one weekday")
		}
		for _, d := range r.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("weekday index %d out of range 0-6", d)
			}
		}
		if r.IntervalHours != nil || r.TimesPerDay != nil {
			return fmt.Errorf("weekly regimen takes only days_of_week")
		}
	case FrequencyInterval:
		if r.IntervalHours == nil || *r.IntervalHours <= 0 {
			return fmt.Errorf("interval regimen requires interval_hours > 0")
		}
		if len(r.DaysOfWeek) > 0 || r.TimesPerDay != nil {
			return fmt.Errorf("interval regimen takes only interval_hours")
		}
	case FrequencyTimesPerDay:
		if r.TimesPerDay == nil || *r.TimesPerDay <= 0 {
			return fmt.Errorf("timesPerDay regimen requires times_per_day > 0")
		}
		if len(r.DaysOfWeek) > 0 || r.IntervalHours != nil {
			return fmt.Errorf("timesPerDay regimen takes only times_per_day")
		}
	default:
		return fmt.Errorf("unknown frequency %q", r.Frequency)
	}

	if r.PRNMaxPerDay != nil && *r.PRNMaxPerDay <= 0 {
		return fmt.Errorf("prn_max_per_day must be > 0 when set")
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("end_date precedes start_date")
	}
	return nil
}

// RegimenPatch is a sparse update for a regimen. Nil fields are left
// untouched. Pointer-to-pointer fields distinguish "clear" from "keep".
type RegimenPatch struct {
	DoseAmount    *string
	Frequency     *FrequencyKind
	DaysOfWeek    *[]int
	IntervalHours **int
	TimesPerDay   **int
	StartDate     *time.Time
	EndDate       **time.Time
	PRN           *bool
	PRNMaxPerDay  **int
}

// IsEmpty reports whether the patch carries no changes.
func (p RegimenPatch) IsEmpty() bool {
	return p.DoseAmount == nil && p.Frequency == nil && p.DaysOfWeek == nil &&
		p.IntervalHours == nil && p.TimesPerDay == nil && p.StartDate == nil &&
		p.EndDate == nil && p.PRN == nil && p.PRNMaxPerDay == nil
}

// Apply returns a copy of r with the patch's fields overlaid. The store
// validates the result before persisting it.
func (p RegimenPatch) Apply(r Regimen) Regimen {
	if p.DoseAmount != nil {
		r.DoseAmount = *p.DoseAmount
	}
	if p.Frequency != nil {
		r.Frequency = *p.Frequency
	}
	if p.DaysOfWeek != nil {
		r.DaysOfWeek = *p.DaysOfWeek
	}
	if p.IntervalHours != nil {
		r.IntervalHours = *p.IntervalHours
	}
	if p.TimesPerDay != nil {
		r.TimesPerDay = *p.TimesPerDay
	}
	if p.StartDate != nil {
		r.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		r.EndDate = *p.EndDate
	}
	if p.PRN != nil {
		r.PRN = *p.PRN
	}
	if p.PRNMaxPerDay != nil {
		r.PRNMaxPerDay = *p.PRNMaxPerDay
	}
	return r
}
