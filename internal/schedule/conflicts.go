package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/nhle/pillbox/internal/model"
)

// Conflict severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
)

// MinDoseGap is the minimum spacing between scheduled doses of
// different regimens before a timing conflict is flagged.
const MinDoseGap = 30 * time.Minute

// Conflict flags two dose instants that sit too close together.
type Conflict struct {
	Severity string
	First    Dose
	Second   Dose
	Gap      time.Duration
	Message  string
}

// DetectConflicts scans a day's generated schedule for timing
// conflicts. Two scheduled instants from different regimens less than
// MinDoseGap apart are a medium-severity conflict; a dose already
// marked taken that collides with a generated entry for the same
// regimen is low severity.
func DetectConflicts(doses []Dose, taken []model.DoseEvent) []Conflict {
	sorted := make([]Dose, len(doses))
	copy(sorted, doses)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].At.Before(sorted[j].At)
	})

	var conflicts []Conflict
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			gap := sorted[j].At.Sub(sorted[i].At)
			if gap >= MinDoseGap {
				break
			}
			if sorted[i].RegimenID == sorted[j].RegimenID {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Severity: SeverityMedium,
				First:    sorted[i],
				Second:   sorted[j],
				Gap:      gap,
				Message: fmt.Sprintf("doses %s apart (at %s and %s)",
					gap, sorted[i].At.Format("15:04"), sorted[j].At.Format("15:04")),
			})
		}
	}

	for _, ev := range taken {
		if ev.Status != model.DoseStatusTaken || ev.TakenAt == nil {
			continue
		}
		for _, d := range sorted {
			if d.RegimenID != ev.RegimenID {
				continue
			}
			gap := d.At.Sub(*ev.TakenAt)
			if gap < 0 {
				gap = -gap
			}
			if gap < MinDoseGap {
				conflicts = append(conflicts, Conflict{
					Severity: SeverityLow,
					First:    d,
					Gap:      gap,
					Message: fmt.Sprintf("already taken at %s, near scheduled %s",
						ev.TakenAt.Format("15:04"), d.At.Format("15:04")),
				})
			}
		}
	}

	return conflicts
}
