package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "daygrid", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.WeekStart != "monday" || cfg.RefreshCron != "*/15 * * * *" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perms = %o, want 600", perm)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	want := DefaultConfig()
	want.Listen = "0.0.0.0:9090"
	want.Timezone = "Europe/Berlin"
	want.WeekStart = "sunday"
	want.TasksFile = "/tmp/tasks.json"
	want.Feeds = []FeedConfig{{ID: "work", Name: "Work", URL: "https://example.com/cal.ics"}}
	want.Urgency.HorizonDays = 3
	want.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}

	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Listen != want.Listen || got.Timezone != want.Timezone || got.WeekStart != want.WeekStart {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.TasksFile != want.TasksFile {
		t.Errorf("tasks_file = %q, want %q", got.TasksFile, want.TasksFile)
	}
	if len(got.Feeds) != 1 || got.Feeds[0].URL != want.Feeds[0].URL {
		t.Errorf("feeds = %+v", got.Feeds)
	}
	if got.Urgency.HorizonDays != 3 {
		t.Errorf("urgency horizon = %d, want 3", got.Urgency.HorizonDays)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "u" {
		t.Errorf("basic auth = %+v", got.BasicAuth)
	}
}

func TestLoadFillsPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "listen: 127.0.0.1:7000\nweek_start: friday\n"
	if err := os.WriteFile(path, []byte(partial), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:7000" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.WeekStart != "monday" {
		t.Errorf("unknown week_start should fall back to monday, got %q", cfg.WeekStart)
	}
	if cfg.HorizonDays != 7 || cfg.Urgency.HorizonDays != 2 || cfg.Urgency.ImportantMin != "medium" {
		t.Errorf("missing sections not normalized: %+v", cfg)
	}
	if cfg.Layout.MinHeightPercent != 1.4 || cfg.Layout.EventMinutes != 60 || cfg.Layout.TaskMinutes != 30 {
		t.Errorf("layout defaults not applied: %+v", cfg.Layout)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestSaveArguments(t *testing.T) {
	if err := Save("", DefaultConfig()); err == nil {
		t.Error("empty path should error")
	}
	if err := Save(filepath.Join(t.TempDir(), "c.yaml"), nil); err == nil {
		t.Error("nil config should error")
	}
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "path") {
		t.Errorf("empty load path error = %v", err)
	}
}
