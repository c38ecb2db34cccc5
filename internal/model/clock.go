package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Clock is a wall-clock time of day. It carries no date and no timezone;
// items pair it with a Date to place themselves on the timeline.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "H:MM" or "HH:MM" with strict ranges (0-23 hours,
// 0-59 minutes). Anything else is an error; callers decide whether a bad
// value means "untimed" or a rejected record.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Clock{}, errors.New("empty time")
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("invalid time %q", s)
	}
	hs, ms := parts[0], parts[1]
	if len(hs) < 1 || len(hs) > 2 || len(ms) != 2 || !allDigits(hs) || !allDigits(ms) {
		return Clock{}, fmt.Errorf("invalid time %q", s)
	}

	h, err := strconv.Atoi(hs)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time %q", s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("time %q out of range", s)
	}

	return Clock{Hour: h, Minute: m}, nil
}

// ClockFromMinutes converts minutes since midnight into a Clock. The value
// is clamped into [0, 1439].
func ClockFromMinutes(m int) Clock {
	if m < 0 {
		m = 0
	}
	if m > 23*60+59 {
		m = 23*60 + 59
	}
	return Clock{Hour: m / 60, Minute: m % 60}
}

// Minutes returns the offset from midnight in minutes.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MarshalJSON encodes the clock as "HH:MM".
func (c Clock) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON accepts the same strict "HH:MM" form ParseClock does.
func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
