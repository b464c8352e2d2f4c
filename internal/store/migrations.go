package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
//
// Dates are stored as ISO-8601 text, weekday and substance sets as
// JSON-encoded text, booleans as 0/1, clock times as "HH:mm" text.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS medications (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	form       TEXT NOT NULL DEFAULT 'tablet',
	strength   TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS regimens (
	id              TEXT PRIMARY KEY,
	medication_id   TEXT NOT NULL REFERENCES medications(id) ON DELETE CASCADE,
	dose_amount     TEXT NOT NULL DEFAULT '',
	frequency       TEXT NOT NULL
		CHECK(frequency IN ('daily', 'weekly', 'interval', 'timesPerDay', 'cycles')),
	days_of_week    TEXT NOT NULL DEFAULT '[]',
	interval_hours  INTEGER,
	times_per_day   INTEGER,
	start_date      DATETIME NOT NULL,
	end_date        DATETIME,
	prn             INTEGER NOT NULL DEFAULT 0 CHECK(prn IN (0, 1)),
	prn_max_per_day INTEGER,
	last_taken_at   DATETIME,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS constraints (
	id                     TEXT PRIMARY KEY,
	regimen_id             TEXT NOT NULL REFERENCES regimens(id) ON DELETE CASCADE,
	with_food              INTEGER NOT NULL DEFAULT 0 CHECK(with_food IN (0, 1)),
	no_food_before_minutes INTEGER,
	after_food_minutes     INTEGER,
	avoid_substances       TEXT NOT NULL DEFAULT '[]',
	spacing_hours          INTEGER,
	earliest_time          TEXT,
	latest_time            TEXT,
	quiet_hours            INTEGER NOT NULL DEFAULT 0 CHECK(quiet_hours IN (0, 1)),
	anchor                 TEXT NOT NULL DEFAULT 'meal' CHECK(anchor IN ('meal', 'clock')),
	created_at             DATETIME NOT NULL,
	updated_at             DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS meal_events (
	id          TEXT PRIMARY KEY,
	meal_type   TEXT NOT NULL
		CHECK(meal_type IN ('breakfast', 'lunch', 'dinner', 'snack')),
	occurred_at DATETIME NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS dose_events (
	id           TEXT PRIMARY KEY,
	regimen_id   TEXT NOT NULL REFERENCES regimens(id) ON DELETE CASCADE,
	scheduled_at DATETIME NOT NULL,
	taken_at     DATETIME,
	status       TEXT NOT NULL DEFAULT 'scheduled'
		CHECK(status IN ('scheduled', 'taken', 'skipped', 'missed')),
	reason       TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS inventory (
	id                  TEXT PRIMARY KEY,
	medication_id       TEXT NOT NULL UNIQUE REFERENCES medications(id) ON DELETE CASCADE,
	units_remaining     REAL NOT NULL DEFAULT 0,
	low_stock_threshold REAL NOT NULL DEFAULT 0,
	created_at          DATETIME NOT NULL,
	updated_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS user_prefs (
	id                 TEXT PRIMARY KEY,
	sleep_window       TEXT NOT NULL DEFAULT '22:00-07:00',
	work_hours         TEXT NOT NULL DEFAULT '09:00-17:00',
	notification_style TEXT NOT NULL DEFAULT 'gentle'
		CHECK(notification_style IN ('gentle', 'persistent', 'urgent')),
	timezone_policy    TEXT NOT NULL DEFAULT 'relative'
		CHECK(timezone_policy IN ('relative', 'absolute')),
	breakfast_time     TEXT NOT NULL DEFAULT '08:00',
	lunch_time         TEXT NOT NULL DEFAULT '12:00',
	dinner_time        TEXT NOT NULL DEFAULT '18:00',
	snack_time         TEXT NOT NULL DEFAULT '15:00',
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_medications_name ON medications(name);
CREATE INDEX IF NOT EXISTS idx_regimens_medication_id ON regimens(medication_id);
CREATE INDEX IF NOT EXISTS idx_regimens_start_date ON regimens(start_date);
CREATE INDEX IF NOT EXISTS idx_constraints_regimen_id ON constraints(regimen_id);
CREATE INDEX IF NOT EXISTS idx_meal_events_occurred_at ON meal_events(occurred_at);
CREATE INDEX IF NOT EXISTS idx_dose_events_regimen_id ON dose_events(regimen_id);
CREATE INDEX IF NOT EXISTS idx_dose_events_scheduled_at ON dose_events(scheduled_at);
CREATE INDEX IF NOT EXISTS idx_dose_events_status ON dose_events(status);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
