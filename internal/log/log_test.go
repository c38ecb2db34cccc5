package log

import "testing"

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{" error ", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, c := range cases {
		if got := ParseLevel(c.in); got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestEnabled(t *testing.T) {
	prev := minLevel
	t.Cleanup(func() { minLevel = prev })

	SetLevel(LevelInfo)
	if enabled(LevelDebug) {
		t.Error("debug should be suppressed at info level")
	}
	if !enabled(LevelInfo) || !enabled(LevelError) {
		t.Error("info and error should pass at info level")
	}

	SetLevel(LevelError)
	if enabled(LevelInfo) {
		t.Error("info should be suppressed at error level")
	}

	SetLevel(LevelDebug)
	if !enabled(LevelDebug) {
		t.Error("debug should pass at debug level")
	}
}

func TestFormatKVs(t *testing.T) {
	if got := formatKVs("a", 1, "b", "x"); got != " a=1 b=x" {
		t.Errorf("formatKVs = %q", got)
	}
	// Odd trailing argument is dropped.
	if got := formatKVs("a", 1, "dangling"); got != " a=1" {
		t.Errorf("odd args = %q", got)
	}
	// Non-string keys are skipped.
	if got := formatKVs(7, "x", "b", 2); got != " b=2" {
		t.Errorf("non-string key = %q", got)
	}
}
