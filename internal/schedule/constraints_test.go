package schedule

import (
	"strings"
	"testing"
	"time"

	"github.com/nhle/pillbox/internal/model"
)

func testPrefs() model.UserPrefs {
	return model.UserPrefs{
		BreakfastTime: model.ClockTime{Hour: 8},
		LunchTime:     model.ClockTime{Hour: 12},
		DinnerTime:    model.ClockTime{Hour: 18},
		SnackTime:     model.ClockTime{Hour: 15},
	}
}

func TestEvaluateConstraintWithFood(t *testing.T) {
	d := day(2026, time.March, 10)
	meals := ResolveMealTimes(testPrefs(), d)

	cands := EvaluateConstraint(model.Constraint{WithFood: true}, meals, d.Add(9*time.Hour))
	if len(cands) != 3 {
		t.Fatalf("expected 3 meal candidates, got %d", len(cands))
	}
	for i, wantHour := range []int{8, 12, 18} {
		if cands[i].At.Hour() != wantHour {
			t.Errorf("candidate %d at %v, want hour %d", i, cands[i].At, wantHour)
		}
	}
}

func TestEvaluateConstraintNoFoodBefore(t *testing.T) {
	d := day(2026, time.March, 10)
	meals := ResolveMealTimes(testPrefs(), d)

	n := 30
	cands := EvaluateConstraint(model.Constraint{NoFoodBeforeMinutes: &n}, meals, d.Add(9*time.Hour))
	if len(cands) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(cands))
	}
	want := time.Date(2026, time.March, 10, 7, 30, 0, 0, time.UTC)
	if !cands[0].At.Equal(want) {
		t.Errorf("first candidate at %v, want 30 min before breakfast %v", cands[0].At, want)
	}
}

func TestEvaluateConstraintAfterFood(t *testing.T) {
	d := day(2026, time.March, 10)
	meals := ResolveMealTimes(testPrefs(), d)

	n := 60
	cands := EvaluateConstraint(model.Constraint{AfterFoodMinutes: &n}, meals, d.Add(9*time.Hour))
	want := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	if !cands[0].At.Equal(want) {
		t.Errorf("first candidate at %v, want an hour after breakfast %v", cands[0].At, want)
	}
}

func TestEvaluateConstraintNoFoodRuleKeepsProposed(t *testing.T) {
	d := day(2026, time.March, 10)
	meals := ResolveMealTimes(testPrefs(), d)
	proposed := d.Add(14 * time.Hour)

	cands := EvaluateConstraint(model.Constraint{}, meals, proposed)
	if len(cands) != 1 || !cands[0].At.Equal(proposed) {
		t.Fatalf("empty constraint should keep the proposed time, got %+v", cands)
	}
}

func TestEvaluateConstraintClamps(t *testing.T) {
	d := day(2026, time.March, 10)
	meals := ResolveMealTimes(testPrefs(), d)

	earliest := model.ClockTime{Hour: 9}
	latest := model.ClockTime{Hour: 17}
	c := model.Constraint{
		WithFood:     true,
		EarliestTime: &earliest,
		LatestTime:   &latest,
	}

	cands := EvaluateConstraint(c, meals, d.Add(9*time.Hour))
	for _, cand := range cands {
		if cand.At.Hour() < 9 || cand.At.Hour() > 17 {
			t.Errorf("candidate %v escaped the 09:00-17:00 clamp", cand.At)
		}
	}
	// Breakfast (08:00) moved up, dinner (18:00) moved back.
	if !strings.Contains(cands[0].Reason, "moved up") {
		t.Errorf("clamped breakfast candidate should note the move, got %q", cands[0].Reason)
	}

	// Clamping an already-clamped set changes nothing.
	again := EvaluateConstraint(c, meals, d.Add(9*time.Hour))
	if len(again) != len(cands) {
		t.Fatalf("clamp is not stable: %d vs %d candidates", len(again), len(cands))
	}
	for i := range cands {
		if !again[i].At.Equal(cands[i].At) {
			t.Errorf("clamp is not idempotent at index %d: %v vs %v", i, again[i].At, cands[i].At)
		}
	}
}

func TestMergeCandidatesDedupesToMinute(t *testing.T) {
	at := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	merged := MergeCandidates(
		[]Candidate{{At: at, Reason: "first"}},
		[]Candidate{{At: at.Add(10 * time.Second), Reason: "duplicate"}, {At: at.Add(time.Hour), Reason: "later"}},
	)
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged candidates, got %d", len(merged))
	}
	if merged[0].Reason != "first" {
		t.Errorf("first reason should win on dedupe, got %q", merged[0].Reason)
	}
}
