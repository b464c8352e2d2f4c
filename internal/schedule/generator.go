package schedule

import (
	"fmt"
	"time"

	"github.com/nhle/pillbox/internal/model"
)

// Settings holds scheduling defaults sourced from configuration.
type Settings struct {
	// DefaultDoseTime is the fallback instant for daily/weekly regimens
	// that have no timing constraints.
	DefaultDoseTime model.ClockTime

	// DayWindow is the daytime span across which timesPerDay doses are
	// distributed.
	DayWindow model.TimeWindow
}

// DefaultSettings returns the built-in defaults: 09:00 fallback,
// 07:00-22:00 dosing window.
func DefaultSettings() Settings {
	return Settings{
		DefaultDoseTime: model.ClockTime{Hour: 9},
		DayWindow: model.TimeWindow{
			Start: model.ClockTime{Hour: 7},
			End:   model.ClockTime{Hour: 22},
		},
	}
}

// SettingsFromConfig parses the configured schedule values, falling
// back to the defaults for anything malformed.
func SettingsFromConfig(cfg model.ScheduleConfig) Settings {
	set := DefaultSettings()
	if t, err := model.ParseClockTime(cfg.DefaultDoseTime); err == nil {
		set.DefaultDoseTime = t
	}
	if t, err := model.ParseClockTime(cfg.DayWindowStart); err == nil {
		set.DayWindow.Start = t
	}
	if t, err := model.ParseClockTime(cfg.DayWindowEnd); err == nil {
		set.DayWindow.End = t
	}
	return set
}

// Dose is one base candidate dose instant for a regimen, before
// constraint adjustment.
type Dose struct {
	RegimenID string
	At        time.Time
	Amount    string
	Reason    string
}

// startOfDay returns midnight of day's calendar date in day's location.
func startOfDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
}

// EligibleOn reports whether a regimen is eligible to generate doses on
// the given calendar date: the date must fall inside the regimen's
// validity window and match its frequency rule. cycles regimens never
// generate automatically (reserved, no algorithm defined).
func EligibleOn(r model.Regimen, day time.Time) bool {
	sod := startOfDay(day)
	eod := sod.AddDate(0, 0, 1)

	// Validity window: the date must not end before the regimen starts
	// nor begin after it ends.
	if !r.StartDate.Before(eod) {
		return false
	}
	if r.EndDate != nil && r.EndDate.Before(sod) {
		return false
	}

	switch r.Frequency {
	case model.FrequencyDaily, model.FrequencyInterval, model.FrequencyTimesPerDay:
		return true
	case model.FrequencyWeekly:
		wd := int(day.Weekday())
		for _, d := range r.DaysOfWeek {
			if d == wd {
				return true
			}
		}
		return false
	case model.FrequencyCycles:
		return false
	}
	return false
}

// GenerateForDay expands a regimen's frequency rule into the ordered
// base candidate dose instants for one calendar day. Candidates carry
// the dose amount and a reason string; constraint adjustment happens
// afterwards in the evaluator.
func GenerateForDay(r model.Regimen, day time.Time, set Settings) []Dose {
	if !EligibleOn(r, day) {
		return nil
	}

	sod := startOfDay(day)
	eod := sod.AddDate(0, 0, 1)

	switch r.Frequency {
	case model.FrequencyDaily:
		return []Dose{{
			RegimenID: r.ID,
			At:        set.DefaultDoseTime.On(day),
			Amount:    r.DoseAmount,
			Reason:    "daily dose",
		}}

	case model.FrequencyWeekly:
		return []Dose{{
			RegimenID: r.ID,
			At:        set.DefaultDoseTime.On(day),
			Amount:    r.DoseAmount,
			Reason:    fmt.Sprintf("weekly dose (%s)", day.Weekday()),
		}}

	case model.FrequencyInterval:
		step := time.Duration(*r.IntervalHours) * time.Hour
		start := sod
		if r.LastTakenAt != nil && !r.LastTakenAt.Before(sod) {
			start = r.LastTakenAt.In(day.Location())
		}
		var doses []Dose
		for t := start; t.Before(eod); t = t.Add(step) {
			doses = append(doses, Dose{
				RegimenID: r.ID,
				At:        t,
				Amount:    r.DoseAmount,
				Reason:    fmt.Sprintf("every %dh", *r.IntervalHours),
			})
		}
		return doses

	case model.FrequencyTimesPerDay:
		k := *r.TimesPerDay
		winStart := set.DayWindow.Start.On(day)
		winEnd := set.DayWindow.End.On(day)
		span := winEnd.Sub(winStart)
		step := span / time.Duration(k)
		doses := make([]Dose, 0, k)
		for i := 0; i < k; i++ {
			doses = append(doses, Dose{
				RegimenID: r.ID,
				At:        winStart.Add(time.Duration(i) * step),
				Amount:    r.DoseAmount,
				Reason:    fmt.Sprintf("dose %d of %d", i+1, k),
			})
		}
		return doses
	}

	return nil
}

// DaySlots returns the timesPerDay instants for a day without the
// eligibility check. Used by the next-dose computation to find the
// next not-yet-passed slot.
func DaySlots(r model.Regimen, day time.Time, set Settings) []time.Time {
	if r.TimesPerDay == nil || *r.TimesPerDay <= 0 {
		return nil
	}
	k := *r.TimesPerDay
	winStart := set.DayWindow.Start.On(day)
	span := set.DayWindow.End.On(day).Sub(winStart)
	step := span / time.Duration(k)
	slots := make([]time.Time, 0, k)
	for i := 0; i < k; i++ {
		slots = append(slots, winStart.Add(time.Duration(i)*step))
	}
	return slots
}
