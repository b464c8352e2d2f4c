// Package schedule implements the dose scheduling engine: resolving
// meal-time preferences to concrete instants, expanding regimen
// frequency rules into candidate doses, adjusting candidates for
// food and clock constraints, and computing the next due dose per
// regimen.
package schedule

import (
	"time"

	"github.com/nhle/pillbox/internal/model"
)

// MealTimes holds the four concrete meal instants for one calendar day.
type MealTimes struct {
	Breakfast time.Time
	Lunch     time.Time
	Dinner    time.Time
	Snack     time.Time
}

// ResolveMealTimes combines the user's meal clock-time preferences with
// the calendar date of day. Pure; the result carries day's location.
func ResolveMealTimes(prefs model.UserPrefs, day time.Time) MealTimes {
	return MealTimes{
		Breakfast: prefs.BreakfastTime.On(day),
		Lunch:     prefs.LunchTime.On(day),
		Dinner:    prefs.DinnerTime.On(day),
		Snack:     prefs.SnackTime.On(day),
	}
}

// mealSlot pairs a meal name with its resolved instant.
type mealSlot struct {
	name string
	at   time.Time
}

// mainMeals returns breakfast, lunch, and dinner in day order. Snacks
// do not anchor food-relative dose constraints.
func (m MealTimes) mainMeals() []mealSlot {
	return []mealSlot{
		{model.MealBreakfast, m.Breakfast},
		{model.MealLunch, m.Lunch},
		{model.MealDinner, m.Dinner},
	}
}
