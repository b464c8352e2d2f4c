package model

import "time"

// Medication form constants.
const (
	FormTablet    = "tablet"
	FormCapsule   = "capsule"
	FormLiquid    = "liquid"
	FormInjection = "injection"
	FormTopical   = "topical"
	FormInhaler   = "inhaler"
	FormOther     = "other"
)

// Medication is a drug or supplement tracked by the user. It owns zero
// or more Regimens; deleting a medication cascades to its regimens,
// their constraints, and their dose events.
type Medication struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Form      string    `json:"form" db:"form"`
	Strength  string    `json:"strength,omitempty" db:"strength"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Regimens is populated by queries that load the full medication.
	Regimens []Regimen `json:"regimens,omitempty" db:"-"`
}

// MedicationPatch is a sparse update for a medication. Nil fields are
// left untouched by the store.
type MedicationPatch struct {
	Name     *string
	Form     *string
	Strength *string
	Notes    *string
}

// IsEmpty reports whether the patch carries no changes.
func (p MedicationPatch) IsEmpty() bool {
	return p.Name == nil && p.Form == nil && p.Strength == nil && p.Notes == nil
}

// Inventory tracks how many units of a medication remain on hand.
type Inventory struct {
	ID                string    `json:"id" db:"id"`
	MedicationID      string    `json:"medication_id" db:"medication_id"`
	UnitsRemaining    float64   `json:"units_remaining" db:"units_remaining"`
	LowStockThreshold float64   `json:"low_stock_threshold" db:"low_stock_threshold"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// IsLow reports whether the remaining units have fallen to or below the
// low-stock threshold.
func (i Inventory) IsLow() bool {
	return i.LowStockThreshold > 0 && i.UnitsRemaining <= i.LowStockThreshold
}
