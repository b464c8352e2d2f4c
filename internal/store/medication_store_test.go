package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/pillbox/internal/model"
	"github.com/nhle/pillbox/internal/store"
	"github.com/nhle/pillbox/tests/testutil"
)

func strPtr(s string) *string { return &s }

func TestCreateAndGetMedication(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	med, err := s.CreateMedication(ctx, model.Medication{
		Name:     "Lisinopril",
		Form:     model.FormTablet,
		Strength: "10mg",
		Notes:    "morning",
	})
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}
	if med.ID == "" {
		t.Fatal("expected a generated ID")
	}
	if med.CreatedAt.IsZero() || med.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be stamped")
	}

	got, err := s.GetMedicationByID(ctx, med.ID)
	if err != nil {
		t.Fatalf("GetMedicationByID: %v", err)
	}
	if got.Name != "Lisinopril" || got.Strength != "10mg" || got.Notes != "morning" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestCreateMedicationRequiresName(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.CreateMedication(context.Background(), model.Medication{Name: "  "})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGetMedicationsSortedByName(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Zinc", "Aspirin", "Metformin"} {
		if _, err := s.CreateMedication(ctx, model.Medication{Name: name}); err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
	}

	meds, err := s.GetMedications(ctx)
	if err != nil {
		t.Fatalf("GetMedications: %v", err)
	}
	if len(meds) != 3 {
		t.Fatalf("expected 3 medications, got %d", len(meds))
	}
	for i, want := range []string{"Aspirin", "Metformin", "Zinc"} {
		if meds[i].Name != want {
			t.Errorf("position %d = %s, want %s", i, meds[i].Name, want)
		}
	}
}

func TestGetMedicationsIncludesRegimens(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	med, err := s.CreateMedication(ctx, model.Medication{Name: "Metformin"})
	if err != nil {
		t.Fatalf("creating medication: %v", err)
	}
	r, err := s.CreateRegimen(ctx, model.Regimen{
		MedicationID:  med.ID,
		DoseAmount:    "1 tablet",
		Frequency:     model.FrequencyInterval,
		IntervalHours: intPtr(6),
	})
	if err != nil {
		t.Fatalf("creating regimen: %v", err)
	}
	if _, err := s.CreateConstraint(ctx, model.Constraint{
		RegimenID: r.ID,
		WithFood:  true,
	}); err != nil {
		t.Fatalf("creating constraint: %v", err)
	}
	if _, err := s.CreateMedication(ctx, model.Medication{Name: "Zinc"}); err != nil {
		t.Fatalf("creating second medication: %v", err)
	}

	meds, err := s.GetMedications(ctx)
	if err != nil {
		t.Fatalf("GetMedications: %v", err)
	}
	if len(meds) != 2 {
		t.Fatalf("expected 2 medications, got %d", len(meds))
	}
	if len(meds[0].Regimens) != 1 || meds[0].Regimens[0].ID != r.ID {
		t.Fatalf("medication %s carries regimens %+v, want regimen %s", meds[0].Name, meds[0].Regimens, r.ID)
	}
	if len(meds[0].Regimens[0].Constraints) != 1 {
		t.Errorf("regimen carries %d constraints, want 1", len(meds[0].Regimens[0].Constraints))
	}
	if len(meds[1].Regimens) != 0 {
		t.Errorf("medication without regimens carries %d", len(meds[1].Regimens))
	}
}

func TestUpdateMedicationPatch(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	med, err := s.CreateMedication(ctx, model.Medication{Name: "Aspirin", Strength: "81mg"})
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}

	if err := s.UpdateMedication(ctx, med.ID, model.MedicationPatch{Name: strPtr("Aspirin EC")}); err != nil {
		t.Fatalf("UpdateMedication: %v", err)
	}

	got, err := s.GetMedicationByID(ctx, med.ID)
	if err != nil {
		t.Fatalf("GetMedicationByID: %v", err)
	}
	if got.Name != "Aspirin EC" {
		t.Errorf("name = %s, want Aspirin EC", got.Name)
	}
	if got.Strength != "81mg" {
		t.Errorf("strength changed unexpectedly: %s", got.Strength)
	}
}

func TestUpdateMedicationNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.UpdateMedication(context.Background(), "missing", model.MedicationPatch{Name: strPtr("x")})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMedicationCascades(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	med, err := s.CreateMedication(ctx, model.Medication{Name: "Metformin"})
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}
	r, err := s.CreateRegimen(ctx, model.Regimen{
		MedicationID: med.ID,
		DoseAmount:   "1 tablet",
		Frequency:    model.FrequencyDaily,
	})
	if err != nil {
		t.Fatalf("CreateRegimen: %v", err)
	}
	if _, err := s.CreateConstraint(ctx, model.Constraint{RegimenID: r.ID, WithFood: true}); err != nil {
		t.Fatalf("CreateConstraint: %v", err)
	}
	if _, err := s.UpsertInventory(ctx, model.Inventory{MedicationID: med.ID, UnitsRemaining: 10}); err != nil {
		t.Fatalf("UpsertInventory: %v", err)
	}

	if err := s.DeleteMedication(ctx, med.ID); err != nil {
		t.Fatalf("DeleteMedication: %v", err)
	}

	if _, err := s.GetRegimenByID(ctx, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("regimen survived the cascade: %v", err)
	}
	constraints, err := s.GetConstraintsForRegimen(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetConstraintsForRegimen: %v", err)
	}
	if len(constraints) != 0 {
		t.Errorf("constraints survived the cascade: %d left", len(constraints))
	}
	inv, err := s.GetInventoryForMedication(ctx, med.ID)
	if err != nil {
		t.Fatalf("GetInventoryForMedication: %v", err)
	}
	if inv != nil {
		t.Errorf("inventory survived the cascade: %+v", inv)
	}
}

func TestAdjustInventoryClampsAtZero(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	med, err := s.CreateMedication(ctx, model.Medication{Name: "Ibuprofen"})
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}
	if _, err := s.UpsertInventory(ctx, model.Inventory{MedicationID: med.ID, UnitsRemaining: 2}); err != nil {
		t.Fatalf("UpsertInventory: %v", err)
	}

	inv, err := s.AdjustInventory(ctx, med.ID, -5)
	if err != nil {
		t.Fatalf("AdjustInventory: %v", err)
	}
	if inv == nil || inv.UnitsRemaining != 0 {
		t.Errorf("inventory = %+v, want clamped to 0", inv)
	}
}

func TestAdjustInventoryUntracked(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	med, err := s.CreateMedication(ctx, model.Medication{Name: "Vitamin D"})
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}

	inv, err := s.AdjustInventory(ctx, med.ID, -1)
	if err != nil {
		t.Fatalf("AdjustInventory: %v", err)
	}
	if inv != nil {
		t.Errorf("expected nil for untracked inventory, got %+v", inv)
	}
}

func TestStoreNotInitialized(t *testing.T) {
	var s store.SQLiteStore

	_, err := s.GetMedications(context.Background())
	if !errors.Is(err, store.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}
