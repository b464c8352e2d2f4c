package model

import "time"

// NotificationStyle controls how insistently reminders are delivered.
type NotificationStyle string

// Notification styles.
const (
	NotifyGentle     NotificationStyle = "gentle"
	NotifyPersistent NotificationStyle = "persistent"
	NotifyUrgent     NotificationStyle = "urgent"
)

// TimezonePolicy controls how dose times behave when the device changes
// timezone: keep the local clock time (relative) or the absolute instant.
type TimezonePolicy string

// Timezone policies.
const (
	TimezoneRelative TimezonePolicy = "relative"
	TimezoneAbsolute TimezonePolicy = "absolute"
)

// UserPrefs is the per-installation settings record. There is at most
// one row; it is created explicitly via GetOrCreateUserPrefs with
// defaults supplied by the caller.
type UserPrefs struct {
	ID                string            `json:"id" db:"id"`
	SleepWindow       TimeWindow        `json:"sleep_window" db:"-"`
	WorkHours         TimeWindow        `json:"work_hours" db:"-"`
	NotificationStyle NotificationStyle `json:"notification_style" db:"notification_style"`
	TimezonePolicy    TimezonePolicy    `json:"timezone_policy" db:"timezone_policy"`

	BreakfastTime ClockTime `json:"breakfast_time" db:"-"`
	LunchTime     ClockTime `json:"lunch_time" db:"-"`
	DinnerTime    ClockTime `json:"dinner_time" db:"-"`
	SnackTime     ClockTime `json:"snack_time" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MealTimeFor returns the preferred clock time for the given meal type.
func (p UserPrefs) MealTimeFor(mealType string) (ClockTime, bool) {
	switch mealType {
	case MealBreakfast:
		return p.BreakfastTime, true
	case MealLunch:
		return p.LunchTime, true
	case MealDinner:
		return p.DinnerTime, true
	case MealSnack:
		return p.SnackTime, true
	}
	return ClockTime{}, false
}
