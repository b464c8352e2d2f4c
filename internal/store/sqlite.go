package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nhle/pillbox/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite
// database.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode and foreign keys, and runs any pending schema
// migrations.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Cascade deletes depend on this pragma.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ready fails fast when the store was never opened.
func (s *SQLiteStore) ready() error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	return nil
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// logStoreError logs a mutating-path failure before it is rethrown.
func (s *SQLiteStore) logStoreError(op string, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
		return
	}
	s.logger.Error("store operation failed", zap.String("op", op), zap.Error(err))
}

// validationErr wraps an entity-level validation failure in the
// ErrValidation sentinel.
func validationErr(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// notFoundErr wraps a missing-row condition in the ErrNotFound sentinel.
func notFoundErr(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// isNoRows reports whether err is the driver's empty-result error.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// encodeIntList serializes an int slice (e.g. weekday indices) as JSON
// text for storage.
func encodeIntList(v []int) (string, error) {
	if v == nil {
		v = []int{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding int list: %w", err)
	}
	return string(b), nil
}

// decodeIntList parses a JSON int array column. Empty text decodes to nil.
func decodeIntList(s string) ([]int, error) {
	if s == "" || s == "[]" {
		return nil, nil
	}
	var v []int
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decoding int list %q: %w", s, err)
	}
	return v, nil
}

// encodeStringList serializes a string slice as JSON text for storage.
func encodeStringList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding string list: %w", err)
	}
	return string(b), nil
}

// decodeStringList parses a JSON string array column.
func decodeStringList(s string) ([]string, error) {
	if s == "" || s == "[]" {
		return nil, nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decoding string list %q: %w", s, err)
	}
	return v, nil
}

// encodeClock serializes an optional clock time as "HH:mm" text; nil
// becomes a NULL column.
func encodeClock(c *model.ClockTime) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}

// decodeClock parses an optional "HH:mm" column.
func decodeClock(s *string) (*model.ClockTime, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	c, err := model.ParseClockTime(*s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
