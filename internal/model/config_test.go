package model

import (
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Schedule.DefaultDoseTime != "09:00" {
		t.Errorf("default dose time = %q, want 09:00", cfg.Schedule.DefaultDoseTime)
	}
	if cfg.Notify.TickSeconds != 30 {
		t.Errorf("tick seconds = %d, want 30", cfg.Notify.TickSeconds)
	}
	if cfg.Prefs.SleepWindow != "22:00-07:00" {
		t.Errorf("sleep window = %q", cfg.Prefs.SleepWindow)
	}
}

func TestSaveAndLoadConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.Schedule.DefaultDoseTime = "10:30"
	cfg.Prefs.DinnerTime = "19:00"

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reloading config: %v", err)
	}
	if loaded.Schedule.DefaultDoseTime != "10:30" {
		t.Errorf("dose time = %q, want 10:30", loaded.Schedule.DefaultDoseTime)
	}
	if loaded.Prefs.DinnerTime != "19:00" {
		t.Errorf("dinner time = %q, want 19:00", loaded.Prefs.DinnerTime)
	}
}

func TestDefaultUserPrefsFallsBackOnMalformedValues(t *testing.T) {
	c := PrefsConfig{
		SleepWindow:       "not a window",
		NotificationStyle: "shouting",
		BreakfastTime:     "99:99",
	}

	prefs := c.DefaultUserPrefs()
	if prefs.SleepWindow.String() != "22:00-07:00" {
		t.Errorf("sleep window = %q, want the built-in fallback", prefs.SleepWindow)
	}
	if prefs.NotificationStyle != NotifyGentle {
		t.Errorf("style = %q, want gentle", prefs.NotificationStyle)
	}
	if prefs.BreakfastTime.Hour != 8 {
		t.Errorf("breakfast = %v, want 08:00", prefs.BreakfastTime)
	}
}
