package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/nhle/pillbox/internal/model"
)

// Candidate is a proposed dose instant with a human-readable
// justification.
type Candidate struct {
	At     time.Time
	Reason string
}

// EvaluateConstraint applies one constraint to a proposed dose time and
// returns the adjusted candidate set. Rules are applied in a fixed
// order: food-relative proposals first, then dedupe and sort, then
// earliest/latest clock clamping. Regimens with several constraints
// evaluate each independently and union the results via
// MergeCandidates.
func EvaluateConstraint(c model.Constraint, meals MealTimes, proposed time.Time) []Candidate {
	var cands []Candidate

	if c.WithFood {
		for _, meal := range meals.mainMeals() {
			cands = append(cands, Candidate{
				At:     meal.at,
				Reason: fmt.Sprintf("with food (%s)", meal.name),
			})
		}
	}

	if c.NoFoodBeforeMinutes != nil {
		n := *c.NoFoodBeforeMinutes
		for _, meal := range meals.mainMeals() {
			cands = append(cands, Candidate{
				At:     meal.at.Add(-time.Duration(n) * time.Minute),
				Reason: fmt.Sprintf("%d min before %s (empty stomach)", n, meal.name),
			})
		}
	}

	if c.AfterFoodMinutes != nil {
		n := *c.AfterFoodMinutes
		for _, meal := range meals.mainMeals() {
			cands = append(cands, Candidate{
				At:     meal.at.Add(time.Duration(n) * time.Minute),
				Reason: fmt.Sprintf("%d min after %s", n, meal.name),
			})
		}
	}

	// A constraint with no food rule keeps the proposed time and only
	// applies the clock bounds.
	if len(cands) == 0 {
		cands = append(cands, Candidate{At: proposed, Reason: "scheduled time"})
	}

	cands = dedupeAndSort(cands)

	if c.EarliestTime != nil {
		bound := c.EarliestTime.On(proposed)
		for i := range cands {
			if cands[i].At.Before(bound) {
				cands[i].At = bound
				cands[i].Reason += fmt.Sprintf(" (moved up to earliest %s)", c.EarliestTime)
			}
		}
	}

	if c.LatestTime != nil {
		bound := c.LatestTime.On(proposed)
		for i := range cands {
			if cands[i].At.After(bound) {
				cands[i].At = bound
				cands[i].Reason += fmt.Sprintf(" (moved back to latest %s)", c.LatestTime)
			}
		}
	}

	return cands
}

// MergeCandidates unions candidate sets from several constraints,
// deduplicated to the minute and sorted ascending.
func MergeCandidates(sets ...[]Candidate) []Candidate {
	var all []Candidate
	for _, set := range sets {
		all = append(all, set...)
	}
	return dedupeAndSort(all)
}

// dedupeAndSort drops candidates with identical instants (to the
// minute, first reason wins) and sorts the rest ascending.
func dedupeAndSort(cands []Candidate) []Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].At.Before(cands[j].At)
	})

	out := cands[:0]
	var last time.Time
	for _, c := range cands {
		minute := c.At.Truncate(time.Minute)
		if len(out) > 0 && minute.Equal(last) {
			continue
		}
		out = append(out, c)
		last = minute
	}
	return out
}
