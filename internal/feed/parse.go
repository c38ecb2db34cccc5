package feed

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "daygrid/internal/log"
)

// Event is one VEVENT as read from a feed, before recurrence expansion.
// Start and End carry the location the library resolved from VTIMEZONE/TZID.
type Event struct {
	Source Source

	UID     string
	Summary string

	Start  time.Time
	End    time.Time
	AllDay bool

	// RRule is the raw recurrence rule; expansion happens in expand.go.
	RRule   string
	ExDates []time.Time

	// RecurrenceID marks this VEVENT as the override for one instance of a
	// recurring event with the same UID.
	RecurrenceID *time.Time
	IsOverride   bool
}

// Parse reads an ICS payload into events. Individual VEVENTs that fail to
// parse are logged and skipped; one broken event must not hide the rest of
// the calendar.
func Parse(src Source, body []byte) ([]Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("feed parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	events := make([]Event, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(src, ve)
		if perr != nil {
			appLog.Error("feed vevent skipped", perr, "id", src.ID)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("feed parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (Event, error) {
	var out Event
	out.Source = src

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	// The library's helpers handle VTIMEZONE/TZID resolution.
	start, _ := ve.GetStartAt()
	end, _ := ve.GetEndAt()
	out.Start = start
	out.End = end

	// All-day when DTSTART is VALUE=DATE or a bare date with no time part.
	if dtStart := ve.GetProperty(ical.ComponentPropertyDtStart); dtStart != nil {
		if params := dtStart.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
		}
		if !strings.Contains(dtStart.Value, "T") {
			out.AllDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}

	// EXDATE may appear multiple times, each with a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			out.RecurrenceID = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// parseICSTime covers the basic DATE / DATE-TIME / UTC forms that EXDATE
// and RECURRENCE-ID values take. Expansion aligns locations afterwards.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g. 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	// Floating local date-time, e.g. 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}

	// Date only (all-day), e.g. 20250101
	return time.ParseInLocation("20060102", v, time.Local)
}
