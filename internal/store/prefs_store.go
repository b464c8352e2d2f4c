package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/pillbox/internal/model"
)

// GetUserPrefs retrieves the singleton preferences record, or nil when
// none has been created yet. Absence is an expected first-run state,
// not an error.
func (s *SQLiteStore) GetUserPrefs(ctx context.Context) (*model.UserPrefs, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM user_prefs LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("querying user prefs: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	prefs, err := scanUserPrefs(rows)
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// GetOrCreateUserPrefs returns the singleton preferences record,
// creating it from the supplied defaults when none exists. Defaults are
// passed in by the caller (from configuration), not baked in here.
func (s *SQLiteStore) GetOrCreateUserPrefs(
	ctx context.Context,
	defaults model.UserPrefs,
) (model.UserPrefs, error) {
	existing, err := s.GetUserPrefs(ctx)
	if err != nil {
		return model.UserPrefs{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	defaults.ID = uuid.New().String()
	now := time.Now().UTC()
	defaults.CreatedAt = now
	defaults.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_prefs (
			id, sleep_window, work_hours, notification_style, timezone_policy,
			breakfast_time, lunch_time, dinner_time, snack_time,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		defaults.ID, defaults.SleepWindow.String(), defaults.WorkHours.String(),
		string(defaults.NotificationStyle), string(defaults.TimezonePolicy),
		defaults.BreakfastTime.String(), defaults.LunchTime.String(),
		defaults.DinnerTime.String(), defaults.SnackTime.String(),
		defaults.CreatedAt, defaults.UpdatedAt,
	)
	if err != nil {
		err = fmt.Errorf("creating user prefs: %w", err)
		s.logStoreError("GetOrCreateUserPrefs", err)
		return model.UserPrefs{}, err
	}
	return defaults, nil
}

// UpdateUserPrefs rewrites the singleton preferences record in place.
func (s *SQLiteStore) UpdateUserPrefs(ctx context.Context, prefs model.UserPrefs) error {
	if err := s.ready(); err != nil {
		return err
	}
	if prefs.ID == "" {
		return validationErr(fmt.Errorf("user prefs record has no id"))
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE user_prefs SET
			sleep_window = ?, work_hours = ?,
			notification_style = ?, timezone_policy = ?,
			breakfast_time = ?, lunch_time = ?, dinner_time = ?, snack_time = ?,
			updated_at = ?
		WHERE id = ?`,
		prefs.SleepWindow.String(), prefs.WorkHours.String(),
		string(prefs.NotificationStyle), string(prefs.TimezonePolicy),
		prefs.BreakfastTime.String(), prefs.LunchTime.String(),
		prefs.DinnerTime.String(), prefs.SnackTime.String(),
		time.Now().UTC(), prefs.ID,
	)
	if err != nil {
		err = fmt.Errorf("updating user prefs: %w", err)
		s.logStoreError("UpdateUserPrefs", err)
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return notFoundErr("user prefs", prefs.ID)
	}
	return nil
}

// scanUserPrefs scans a user prefs row from a sqlx.Rows result set.
func scanUserPrefs(rows *sqlx.Rows) (model.UserPrefs, error) {
	var (
		p                      model.UserPrefs
		sleepWindow, workHours string
		style, policy          string
		breakfast, lunch       string
		dinner, snack          string
	)

	err := rows.Scan(
		&p.ID, &sleepWindow, &workHours, &style, &policy,
		&breakfast, &lunch, &dinner, &snack,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return model.UserPrefs{}, fmt.Errorf("scanning user prefs row: %w", err)
	}

	p.NotificationStyle = model.NotificationStyle(style)
	p.TimezonePolicy = model.TimezonePolicy(policy)

	if p.SleepWindow, err = model.ParseTimeWindow(sleepWindow); err != nil {
		return model.UserPrefs{}, err
	}
	if p.WorkHours, err = model.ParseTimeWindow(workHours); err != nil {
		return model.UserPrefs{}, err
	}
	if p.BreakfastTime, err = model.ParseClockTime(breakfast); err != nil {
		return model.UserPrefs{}, err
	}
	if p.LunchTime, err = model.ParseClockTime(lunch); err != nil {
		return model.UserPrefs{}, err
	}
	if p.DinnerTime, err = model.ParseClockTime(dinner); err != nil {
		return model.UserPrefs{}, err
	}
	if p.SnackTime, err = model.ParseClockTime(snack); err != nil {
		return model.UserPrefs{}, err
	}

	return p, nil
}
