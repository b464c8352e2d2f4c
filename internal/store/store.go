package store

import (
	"context"
	"time"

	"github.com/nhle/pillbox/internal/model"
)

// DoseEventFilter controls filtering for dose event queries. Results
// are always sorted by scheduled time ascending.
type DoseEventFilter struct {
	RegimenID *string
	Status    *string
	From      *time.Time // scheduled_at >= From
	To        *time.Time // scheduled_at < To
	Limit     int
}

// Store defines the persistence interface for medications, regimens,
// constraints, meal/dose events, inventory, and user preferences.
type Store interface {
	// === Medications ===

	CreateMedication(ctx context.Context, med model.Medication) (model.Medication, error)
	UpdateMedication(ctx context.Context, id string, patch model.MedicationPatch) error
	DeleteMedication(ctx context.Context, id string) error
	GetMedicationByID(ctx context.Context, id string) (*model.Medication, error)
	GetMedications(ctx context.Context) ([]model.Medication, error)

	// === Inventory ===

	UpsertInventory(ctx context.Context, inv model.Inventory) (model.Inventory, error)
	GetInventoryForMedication(ctx context.Context, medicationID string) (*model.Inventory, error)
	AdjustInventory(ctx context.Context, medicationID string, delta float64) (*model.Inventory, error)

	// === Regimens ===

	CreateRegimen(ctx context.Context, r model.Regimen) (model.Regimen, error)
	UpdateRegimen(ctx context.Context, id string, patch model.RegimenPatch) error
	DeleteRegimen(ctx context.Context, id string) error
	GetRegimenByID(ctx context.Context, id string) (*model.Regimen, error)
	GetRegimensForMedication(ctx context.Context, medicationID string) ([]model.Regimen, error)
	GetActiveRegimens(ctx context.Context, on time.Time) ([]model.Regimen, error)
	SetRegimenLastTaken(ctx context.Context, id string, takenAt time.Time) error

	// === Constraints ===

	CreateConstraint(ctx context.Context, c model.Constraint) (model.Constraint, error)
	DeleteConstraint(ctx context.Context, id string) error
	GetConstraintsForRegimen(ctx context.Context, regimenID string) ([]model.Constraint, error)

	// === Meal events ===

	CreateMealEvent(ctx context.Context, e model.MealEvent) (model.MealEvent, error)
	GetMealEvents(ctx context.Context, from, to time.Time) ([]model.MealEvent, error)

	// === Dose events ===

	CreateDoseEvent(ctx context.Context, e model.DoseEvent) (model.DoseEvent, error)
	GetDoseEvents(ctx context.Context, filter DoseEventFilter) ([]model.DoseEvent, error)

	// === User preferences ===

	GetUserPrefs(ctx context.Context) (*model.UserPrefs, error)
	GetOrCreateUserPrefs(ctx context.Context, defaults model.UserPrefs) (model.UserPrefs, error)
	UpdateUserPrefs(ctx context.Context, prefs model.UserPrefs) error
}
