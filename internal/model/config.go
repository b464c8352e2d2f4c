package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ScheduleConfig holds scheduling defaults that are configuration, not
// user preferences: the fallback dose time for daily/weekly regimens
// without constraints and the daytime window for timesPerDay regimens.
type ScheduleConfig struct {
	DefaultDoseTime string `mapstructure:"default_dose_time" yaml:"default_dose_time"`
	DayWindowStart  string `mapstructure:"day_window_start" yaml:"day_window_start"`
	DayWindowEnd    string `mapstructure:"day_window_end" yaml:"day_window_end"`
}

// PrefsConfig holds the defaults used when the user preferences record
// is created on first Settings access.
type PrefsConfig struct {
	SleepWindow       string `mapstructure:"sleep_window" yaml:"sleep_window"`
	WorkHours         string `mapstructure:"work_hours" yaml:"work_hours"`
	NotificationStyle string `mapstructure:"notification_style" yaml:"notification_style"`
	TimezonePolicy    string `mapstructure:"timezone_policy" yaml:"timezone_policy"`
	BreakfastTime     string `mapstructure:"breakfast_time" yaml:"breakfast_time"`
	LunchTime         string `mapstructure:"lunch_time" yaml:"lunch_time"`
	DinnerTime        string `mapstructure:"dinner_time" yaml:"dinner_time"`
	SnackTime         string `mapstructure:"snack_time" yaml:"snack_time"`
}

// NotifyConfig holds reminder dispatcher settings.
type NotifyConfig struct {
	TickSeconds int `mapstructure:"tick_seconds" yaml:"tick_seconds"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	DatabasePath string         `mapstructure:"database_path" yaml:"database_path"`
	Schedule     ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	Prefs        PrefsConfig    `mapstructure:"prefs" yaml:"prefs"`
	Notify       NotifyConfig   `mapstructure:"notify" yaml:"notify"`
	Display      DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/pillbox/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "pillbox", "config.yaml")
}

// DefaultDatabasePath returns the default sqlite database location,
// ~/.local/share/pillbox/pillbox.db.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "pillbox.db")
	}
	return filepath.Join(home, ".local", "share", "pillbox", "pillbox.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		DatabasePath: DefaultDatabasePath(),
		Schedule: ScheduleConfig{
			DefaultDoseTime: "09:00",
			DayWindowStart:  "07:00",
			DayWindowEnd:    "22:00",
		},
		Prefs: PrefsConfig{
			SleepWindow:       "22:00-07:00",
			WorkHours:         "09:00-17:00",
			NotificationStyle: string(NotifyGentle),
			TimezonePolicy:    string(TimezoneRelative),
			BreakfastTime:     "08:00",
			LunchTime:         "12:00",
			DinnerTime:        "18:00",
			SnackTime:         "15:00",
		},
		Notify:  NotifyConfig{TickSeconds: 30},
		Display: DisplayConfig{Theme: "default"},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. If the file does not exist, it returns the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	def := defaultAppConfig()
	v.SetDefault("database_path", def.DatabasePath)
	v.SetDefault("schedule.default_dose_time", def.Schedule.DefaultDoseTime)
	v.SetDefault("schedule.day_window_start", def.Schedule.DayWindowStart)
	v.SetDefault("schedule.day_window_end", def.Schedule.DayWindowEnd)
	v.SetDefault("prefs.sleep_window", def.Prefs.SleepWindow)
	v.SetDefault("prefs.work_hours", def.Prefs.WorkHours)
	v.SetDefault("prefs.notification_style", def.Prefs.NotificationStyle)
	v.SetDefault("prefs.timezone_policy", def.Prefs.TimezonePolicy)
	v.SetDefault("prefs.breakfast_time", def.Prefs.BreakfastTime)
	v.SetDefault("prefs.lunch_time", def.Prefs.LunchTime)
	v.SetDefault("prefs.dinner_time", def.Prefs.DinnerTime)
	v.SetDefault("prefs.snack_time", def.Prefs.SnackTime)
	v.SetDefault("notify.tick_seconds", def.Notify.TickSeconds)
	v.SetDefault("display.theme", def.Display.Theme)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database_path", cfg.DatabasePath)
	v.Set("schedule", cfg.Schedule)
	v.Set("prefs", cfg.Prefs)
	v.Set("notify", cfg.Notify)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// DefaultUserPrefs builds the UserPrefs record used when none exists,
// from the configured defaults. Malformed config values fall back to
// the built-in defaults.
func (c PrefsConfig) DefaultUserPrefs() UserPrefs {
	parseWindow := func(s, fallback string) TimeWindow {
		if w, err := ParseTimeWindow(s); err == nil {
			return w
		}
		w, _ := ParseTimeWindow(fallback)
		return w
	}
	parseClock := func(s, fallback string) ClockTime {
		if t, err := ParseClockTime(s); err == nil {
			return t
		}
		t, _ := ParseClockTime(fallback)
		return t
	}

	style := NotificationStyle(c.NotificationStyle)
	switch style {
	case NotifyGentle, NotifyPersistent, NotifyUrgent:
	default:
		style = NotifyGentle
	}
	policy := TimezonePolicy(c.TimezonePolicy)
	switch policy {
	case TimezoneRelative, TimezoneAbsolute:
	default:
		policy = TimezoneRelative
	}

	return UserPrefs{
		SleepWindow:       parseWindow(c.SleepWindow, "22:00-07:00"),
		WorkHours:         parseWindow(c.WorkHours, "09:00-17:00"),
		NotificationStyle: style,
		TimezonePolicy:    policy,
		BreakfastTime:     parseClock(c.BreakfastTime, "08:00"),
		LunchTime:         parseClock(c.LunchTime, "12:00"),
		DinnerTime:        parseClock(c.DinnerTime, "18:00"),
		SnackTime:         parseClock(c.SnackTime, "15:00"),
	}
}
