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

// CreateMealEvent records that a meal was eaten.
func (s *SQLiteStore) CreateMealEvent(
	ctx context.Context,
	e model.MealEvent,
) (model.MealEvent, error) {
	if err := s.ready(); err != nil {
		return model.MealEvent{}, err
	}
	switch e.MealType {
	case model.MealBreakfast, model.MealLunch, model.MealDinner, model.MealSnack:
	default:
		return model.MealEvent{}, validationErr(fmt.Errorf("unknown meal type %q", e.MealType))
	}
	if e.OccurredAt.IsZero() {
		return model.MealEvent{}, validationErr(fmt.Errorf("meal event requires occurred_at"))
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meal_events (id, meal_type, occurred_at, created_at)
		VALUES (?, ?, ?, ?)`,
		e.ID, e.MealType, e.OccurredAt.UTC(), e.CreatedAt,
	)
	if err != nil {
		err = fmt.Errorf("creating meal event: %w", err)
		s.logStoreError("CreateMealEvent", err)
		return model.MealEvent{}, err
	}
	return e, nil
}

// GetMealEvents retrieves meal events in [from, to), sorted by
// occurrence time.
func (s *SQLiteStore) GetMealEvents(
	ctx context.Context,
	from, to time.Time,
) ([]model.MealEvent, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM meal_events
		WHERE occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at, id`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying meal events: %w", err)
	}
	defer rows.Close()

	var events []model.MealEvent
	for rows.Next() {
		var e model.MealEvent
		if err := rows.Scan(&e.ID, &e.MealType, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning meal event row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CreateDoseEvent appends an entry to the dosing audit log. Dose events
// are never updated or deleted individually; they go away only when
// their regimen does.
func (s *SQLiteStore) CreateDoseEvent(
	ctx context.Context,
	e model.DoseEvent,
) (model.DoseEvent, error) {
	if err := s.ready(); err != nil {
		return model.DoseEvent{}, err
	}
	if e.RegimenID == "" {
		return model.DoseEvent{}, validationErr(fmt.Errorf("dose event requires a regimen id"))
	}
	if err := e.Validate(); err != nil {
		return model.DoseEvent{}, validationErr(err)
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dose_events (id, regimen_id, scheduled_at, taken_at, status, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RegimenID, e.ScheduledAt.UTC(), e.TakenAt, e.Status, e.Reason, e.CreatedAt,
	)
	if err != nil {
		err = fmt.Errorf("creating dose event: %w", err)
		s.logStoreError("CreateDoseEvent", err)
		return model.DoseEvent{}, err
	}
	return e, nil
}

// GetDoseEvents retrieves dose events matching the filter, sorted by
// scheduled time ascending.
func (s *SQLiteStore) GetDoseEvents(
	ctx context.Context,
	filter DoseEventFilter,
) ([]model.DoseEvent, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var conditions []string
	var args []interface{}

	if filter.RegimenID != nil {
		conditions = append(conditions, "regimen_id = ?")
		args = append(args, *filter.RegimenID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, "scheduled_at >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		conditions = append(conditions, "scheduled_at < ?")
		args = append(args, filter.To.UTC())
	}

	query := "SELECT * FROM dose_events"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY scheduled_at, id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying dose events: %w", err)
	}
	defer rows.Close()

	var events []model.DoseEvent
	for rows.Next() {
		e, err := scanDoseEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// scanDoseEvent scans a dose event row from a sqlx.Rows result set.
func scanDoseEvent(rows *sqlx.Rows) (model.DoseEvent, error) {
	var e model.DoseEvent
	err := rows.Scan(
		&e.ID, &e.RegimenID, &e.ScheduledAt, &e.TakenAt,
		&e.Status, &e.Reason, &e.CreatedAt,
	)
	if err != nil {
		return model.DoseEvent{}, fmt.Errorf("scanning dose event row: %w", err)
	}
	return e, nil
}
