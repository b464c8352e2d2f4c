package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/pillbox/internal/model"
)

// CreateMedication inserts a new medication. Generates a UUID if ID is
// empty and stamps created/updated timestamps.
func (s *SQLiteStore) CreateMedication(
	ctx context.Context,
	med model.Medication,
) (model.Medication, error) {
	if err := s.ready(); err != nil {
		return model.Medication{}, err
	}
	if strings.TrimSpace(med.Name) == "" {
		return model.Medication{}, validationErr(fmt.Errorf("medication name must not be empty"))
	}
	if med.ID == "" {
		med.ID = uuid.New().String()
	}
	if med.Form == "" {
		med.Form = model.FormTablet
	}
	now := time.Now().UTC()
	med.CreatedAt = now
	med.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO medications (id, name, form, strength, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		med.ID, med.Name, med.Form, med.Strength, med.Notes,
		med.CreatedAt, med.UpdatedAt,
	)
	if err != nil {
		err = fmt.Errorf("creating medication: %w", err)
		s.logStoreError("CreateMedication", err)
		return model.Medication{}, err
	}
	return med, nil
}

// UpdateMedication applies a sparse patch to a medication, rewriting
// only the provided fields plus updated_at.
func (s *SQLiteStore) UpdateMedication(
	ctx context.Context,
	id string,
	patch model.MedicationPatch,
) error {
	if err := s.ready(); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return validationErr(fmt.Errorf("medication name must not be empty"))
		}
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Form != nil {
		sets = append(sets, "form = ?")
		args = append(args, *patch.Form)
	}
	if patch.Strength != nil {
		sets = append(sets, "strength = ?")
		args = append(args, *patch.Strength)
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE medications SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		err = fmt.Errorf("updating medication %s: %w", id, err)
		s.logStoreError("UpdateMedication", err)
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return notFoundErr("medication", id)
	}
	return nil
}

// DeleteMedication removes a medication. Cascades to its regimens,
// their constraints, their dose events, and its inventory row.
func (s *SQLiteStore) DeleteMedication(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM medications WHERE id = ?", id)
	if err != nil {
		err = fmt.Errorf("deleting medication %s: %w", id, err)
		s.logStoreError("DeleteMedication", err)
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return notFoundErr("medication", id)
	}
	return nil
}

// GetMedicationByID retrieves a single medication with its regimens
// (and their constraints) loaded.
func (s *SQLiteStore) GetMedicationByID(
	ctx context.Context,
	id string,
) (*model.Medication, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowxContext(ctx, "SELECT * FROM medications WHERE id = ?", id)
	med, err := scanMedicationRow(row)
	if err != nil {
		if isNoRows(err) {
			return nil, notFoundErr("medication", id)
		}
		return nil, fmt.Errorf("getting medication %s: %w", id, err)
	}

	regimens, err := s.GetRegimensForMedication(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading regimens for medication %s: %w", id, err)
	}
	med.Regimens = regimens

	return &med, nil
}

// GetMedications retrieves all medications sorted by name, each with
// its regimens (and their constraints) loaded.
func (s *SQLiteStore) GetMedications(ctx context.Context) ([]model.Medication, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM medications ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying medications: %w", err)
	}
	defer rows.Close()

	var meds []model.Medication
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, med)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range meds {
		regimens, err := s.GetRegimensForMedication(ctx, meds[i].ID)
		if err != nil {
			return nil, fmt.Errorf("loading regimens for medication %s: %w", meds[i].ID, err)
		}
		meds[i].Regimens = regimens
	}
	return meds, nil
}

// UpsertInventory inserts or replaces the inventory row for a
// medication. There is at most one row per medication.
func (s *SQLiteStore) UpsertInventory(
	ctx context.Context,
	inv model.Inventory,
) (model.Inventory, error) {
	if err := s.ready(); err != nil {
		return model.Inventory{}, err
	}
	if inv.MedicationID == "" {
		return model.Inventory{}, validationErr(fmt.Errorf("inventory requires a medication id"))
	}
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory (id, medication_id, units_remaining, low_stock_threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(medication_id) DO UPDATE SET
			units_remaining = excluded.units_remaining,
			low_stock_threshold = excluded.low_stock_threshold,
			updated_at = excluded.updated_at`,
		inv.ID, inv.MedicationID, inv.UnitsRemaining, inv.LowStockThreshold,
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		err = fmt.Errorf("upserting inventory for medication %s: %w", inv.MedicationID, err)
		s.logStoreError("UpsertInventory", err)
		return model.Inventory{}, err
	}
	return inv, nil
}

// GetInventoryForMedication retrieves the inventory row for a
// medication, or nil when none has been recorded. Absence is an
// expected state, not an error.
func (s *SQLiteStore) GetInventoryForMedication(
	ctx context.Context,
	medicationID string,
) (*model.Inventory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var inv model.Inventory
	err := s.db.QueryRowxContext(ctx,
		"SELECT * FROM inventory WHERE medication_id = ?", medicationID,
	).Scan(
		&inv.ID, &inv.MedicationID, &inv.UnitsRemaining, &inv.LowStockThreshold,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting inventory for medication %s: %w", medicationID, err)
	}
	return &inv, nil
}

// AdjustInventory adds delta (usually negative) to the units remaining
// for a medication, clamping at zero. Returns the updated row, or nil
// when the medication has no inventory tracked.
func (s *SQLiteStore) AdjustInventory(
	ctx context.Context,
	medicationID string,
	delta float64,
) (*model.Inventory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE inventory
		SET units_remaining = MAX(0, units_remaining + ?), updated_at = ?
		WHERE medication_id = ?`,
		delta, time.Now().UTC(), medicationID,
	)
	if err != nil {
		err = fmt.Errorf("adjusting inventory for medication %s: %w", medicationID, err)
		s.logStoreError("AdjustInventory", err)
		return nil, err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, nil
	}
	return s.GetInventoryForMedication(ctx, medicationID)
}

// scanMedication scans a medication row from a sqlx.Rows result set.
func scanMedication(rows *sqlx.Rows) (model.Medication, error) {
	var med model.Medication
	err := rows.Scan(
		&med.ID, &med.Name, &med.Form, &med.Strength, &med.Notes,
		&med.CreatedAt, &med.UpdatedAt,
	)
	if err != nil {
		return model.Medication{}, fmt.Errorf("scanning medication row: %w", err)
	}
	return med, nil
}

// scanMedicationRow scans a single medication row from a sqlx.Row.
func scanMedicationRow(row *sqlx.Row) (model.Medication, error) {
	var med model.Medication
	err := row.Scan(
		&med.ID, &med.Name, &med.Form, &med.Strength, &med.Notes,
		&med.CreatedAt, &med.UpdatedAt,
	)
	if err != nil {
		return model.Medication{}, err
	}
	return med, nil
}
