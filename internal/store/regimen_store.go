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

// CreateRegimen validates and inserts a new regimen. Generates a UUID
// if ID is empty and stamps created/updated timestamps.
func (s *SQLiteStore) CreateRegimen(
	ctx context.Context,
	r model.Regimen,
) (model.Regimen, error) {
	if err := s.ready(); err != nil {
		return model.Regimen{}, err
	}
	if r.MedicationID == "" {
		return model.Regimen{}, validationErr(fmt.Errorf("regimen requires a medication id"))
	}
	if err := r.Validate(); err != nil {
		return model.Regimen{}, validationErr(err)
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	days, err := encodeIntList(r.DaysOfWeek)
	if err != nil {
		return model.Regimen{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO regimens (
			id, medication_id, dose_amount, frequency, days_of_week,
			interval_hours, times_per_day, start_date, end_date,
			prn, prn_max_per_day, last_taken_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.MedicationID, r.DoseAmount, string(r.Frequency), days,
		r.IntervalHours, r.TimesPerDay, r.StartDate.UTC(), r.EndDate,
		boolToInt(r.PRN), r.PRNMaxPerDay, r.LastTakenAt, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		err = fmt.Errorf("creating regimen: %w", err)
		s.logStoreError("CreateRegimen", err)
		return model.Regimen{}, err
	}
	return r, nil
}

// UpdateRegimen applies a sparse patch to a regimen. The patched result
// is re-validated as a whole before anything is written, so a patch can
// never leave a regimen inconsistent with its frequency kind.
func (s *SQLiteStore) UpdateRegimen(
	ctx context.Context,
	id string,
	patch model.RegimenPatch,
) error {
	if err := s.ready(); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	current, err := s.GetRegimenByID(ctx, id)
	if err != nil {
		return err
	}

	next := patch.Apply(*current)
	if err := next.Validate(); err != nil {
		return validationErr(err)
	}

	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if patch.DoseAmount != nil {
		sets = append(sets, "dose_amount = ?")
		args = append(args, next.DoseAmount)
	}
	if patch.Frequency != nil {
		sets = append(sets, "frequency = ?")
		args = append(args, string(next.Frequency))
	}
	if patch.Frequency != nil || patch.DaysOfWeek != nil {
		days, err := encodeIntList(next.DaysOfWeek)
		if err != nil {
			return err
		}
		sets = append(sets, "days_of_week = ?")
		args = append(args, days)
	}
	if patch.Frequency != nil || patch.IntervalHours != nil {
		sets = append(sets, "interval_hours = ?")
		args = append(args, next.IntervalHours)
	}
	if patch.Frequency != nil || patch.TimesPerDay != nil {
		sets = append(sets, "times_per_day = ?")
		args = append(args, next.TimesPerDay)
	}
	if patch.StartDate != nil {
		sets = append(sets, "start_date = ?")
		args = append(args, next.StartDate.UTC())
	}
	if patch.EndDate != nil {
		sets = append(sets, "end_date = ?")
		args = append(args, next.EndDate)
	}
	if patch.PRN != nil {
		sets = append(sets, "prn = ?")
		args = append(args, boolToInt(next.PRN))
	}
	if patch.PRNMaxPerDay != nil {
		sets = append(sets, "prn_max_per_day = ?")
		args = append(args, next.PRNMaxPerDay)
	}
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE regimens SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		err = fmt.Errorf("updating regimen %s: %w", id, err)
		s.logStoreError("UpdateRegimen", err)
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return notFoundErr("regimen", id)
	}
	return nil
}

// DeleteRegimen removes a regimen. Cascades to its constraints and
// dose events.
func (s *SQLiteStore) DeleteRegimen(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM regimens WHERE id = ?", id)
	if err != nil {
		err = fmt.Errorf("deleting regimen %s: %w", id, err)
		s.logStoreError("DeleteRegimen", err)
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return notFoundErr("regimen", id)
	}
	return nil
}

// GetRegimenByID retrieves a single regimen with its constraints loaded.
func (s *SQLiteStore) GetRegimenByID(
	ctx context.Context,
	id string,
) (*model.Regimen, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM regimens WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting regimen %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting regimen %s: %w", id, err)
		}
		return nil, notFoundErr("regimen", id)
	}
	r, err := scanRegimen(rows)
	if err != nil {
		return nil, err
	}

	constraints, err := s.GetConstraintsForRegimen(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading constraints for regimen %s: %w", id, err)
	}
	r.Constraints = constraints

	return &r, nil
}

// GetRegimensForMedication retrieves all regimens for a medication,
// sorted by start date, with constraints loaded.
func (s *SQLiteStore) GetRegimensForMedication(
	ctx context.Context,
	medicationID string,
) ([]model.Regimen, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.queryRegimens(ctx,
		"SELECT * FROM regimens WHERE medication_id = ? ORDER BY start_date, id",
		medicationID,
	)
}

// GetActiveRegimens retrieves all regimens whose validity window
// contains the given instant, sorted by start date.
func (s *SQLiteStore) GetActiveRegimens(
	ctx context.Context,
	on time.Time,
) ([]model.Regimen, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.queryRegimens(ctx, `
		SELECT * FROM regimens
		WHERE start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		ORDER BY start_date, id`,
		on.UTC(), on.UTC(),
	)
}

// SetRegimenLastTaken advances a regimen's last-taken baseline.
// last_taken_at only moves forward: an earlier timestamp than the
// stored one is ignored.
func (s *SQLiteStore) SetRegimenLastTaken(
	ctx context.Context,
	id string,
	takenAt time.Time,
) error {
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE regimens
		SET last_taken_at = ?, updated_at = ?
		WHERE id = ? AND (last_taken_at IS NULL OR last_taken_at <= ?)`,
		takenAt.UTC(), time.Now().UTC(), id, takenAt.UTC(),
	)
	if err != nil {
		err = fmt.Errorf("setting last taken for regimen %s: %w", id, err)
		s.logStoreError("SetRegimenLastTaken", err)
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Either the regimen is missing or the timestamp is stale;
		// distinguish so callers can surface the right condition.
		var count int
		if err := s.db.GetContext(ctx, &count,
			"SELECT COUNT(*) FROM regimens WHERE id = ?", id); err != nil {
			return fmt.Errorf("checking regimen %s: %w", id, err)
		}
		if count == 0 {
			return notFoundErr("regimen", id)
		}
	}
	return nil
}

// CreateConstraint validates and inserts a new constraint for a regimen.
func (s *SQLiteStore) CreateConstraint(
	ctx context.Context,
	c model.Constraint,
) (model.Constraint, error) {
	if err := s.ready(); err != nil {
		return model.Constraint{}, err
	}
	if c.RegimenID == "" {
		return model.Constraint{}, validationErr(fmt.Errorf("constraint requires a regimen id"))
	}
	if c.Anchor == "" {
		c.Anchor = model.AnchorMeal
	}
	if err := c.Validate(); err != nil {
		return model.Constraint{}, validationErr(err)
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	substances, err := encodeStringList(c.AvoidSubstances)
	if err != nil {
		return model.Constraint{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO constraints (
			id, regimen_id, with_food, no_food_before_minutes, after_food_minutes,
			avoid_substances, spacing_hours, earliest_time, latest_time,
			quiet_hours, anchor, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.RegimenID, boolToInt(c.WithFood), c.NoFoodBeforeMinutes, c.AfterFoodMinutes,
		substances, c.SpacingHours, encodeClock(c.EarliestTime), encodeClock(c.LatestTime),
		boolToInt(c.QuietHours), string(c.Anchor), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		err = fmt.Errorf("creating constraint: %w", err)
		s.logStoreError("CreateConstraint", err)
		return model.Constraint{}, err
	}
	return c, nil
}

// DeleteConstraint removes a constraint by ID.
func (s *SQLiteStore) DeleteConstraint(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM constraints WHERE id = ?", id)
	if err != nil {
		err = fmt.Errorf("deleting constraint %s: %w", id, err)
		s.logStoreError("DeleteConstraint", err)
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return notFoundErr("constraint", id)
	}
	return nil
}

// GetConstraintsForRegimen retrieves all constraints attached to a
// regimen, sorted by creation time.
func (s *SQLiteStore) GetConstraintsForRegimen(
	ctx context.Context,
	regimenID string,
) ([]model.Constraint, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM constraints WHERE regimen_id = ? ORDER BY created_at, id",
		regimenID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying constraints for regimen %s: %w", regimenID, err)
	}
	defer rows.Close()

	var constraints []model.Constraint
	for rows.Next() {
		c, err := scanConstraint(rows)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, c)
	}
	return constraints, rows.Err()
}

// queryRegimens runs a regimen query and loads constraints for each row.
func (s *SQLiteStore) queryRegimens(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]model.Regimen, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying regimens: %w", err)
	}
	defer rows.Close()

	var regimens []model.Regimen
	for rows.Next() {
		r, err := scanRegimen(rows)
		if err != nil {
			return nil, err
		}
		regimens = append(regimens, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range regimens {
		constraints, err := s.GetConstraintsForRegimen(ctx, regimens[i].ID)
		if err != nil {
			return nil, fmt.Errorf("loading constraints for regimen %s: %w", regimens[i].ID, err)
		}
		regimens[i].Constraints = constraints
	}

	return regimens, nil
}

// scanRegimen scans a regimen row from a sqlx.Rows result set.
func scanRegimen(rows *sqlx.Rows) (model.Regimen, error) {
	var (
		r         model.Regimen
		frequency string
		days      string
		prn       int
	)

	err := rows.Scan(
		&r.ID, &r.MedicationID, &r.DoseAmount, &frequency, &days,
		&r.IntervalHours, &r.TimesPerDay, &r.StartDate, &r.EndDate,
		&prn, &r.PRNMaxPerDay, &r.LastTakenAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return model.Regimen{}, fmt.Errorf("scanning regimen row: %w", err)
	}

	r.Frequency = model.FrequencyKind(frequency)
	r.PRN = prn != 0
	r.DaysOfWeek, err = decodeIntList(days)
	if err != nil {
		return model.Regimen{}, err
	}

	return r, nil
}

// scanConstraint scans a constraint row from a sqlx.Rows result set.
func scanConstraint(rows *sqlx.Rows) (model.Constraint, error) {
	var (
		c          model.Constraint
		withFood   int
		substances string
		earliest   *string
		latest     *string
		quietHours int
		anchor     string
	)

	err := rows.Scan(
		&c.ID, &c.RegimenID, &withFood, &c.NoFoodBeforeMinutes, &c.AfterFoodMinutes,
		&substances, &c.SpacingHours, &earliest, &latest,
		&quietHours, &anchor, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return model.Constraint{}, fmt.Errorf("scanning constraint row: %w", err)
	}

	c.WithFood = withFood != 0
	c.QuietHours = quietHours != 0
	c.Anchor = model.AnchorMode(anchor)
	c.AvoidSubstances, err = decodeStringList(substances)
	if err != nil {
		return model.Constraint{}, err
	}
	c.EarliestTime, err = decodeClock(earliest)
	if err != nil {
		return model.Constraint{}, err
	}
	c.LatestTime, err = decodeClock(latest)
	if err != nil {
		return model.Constraint{}, err
	}

	return c, nil
}
