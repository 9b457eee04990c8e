package store

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"calcore/internal/interval"
	appLog "calcore/internal/log"
	"calcore/internal/model"
)

// ParseICS imports the timed VEVENTs of an ICS payload as single events.
//
//   - RRULE/EXDATE are not interpreted; each VEVENT becomes one event.
//   - All-day events (DATE values) are skipped.
//   - Events ending on a later day are clipped to 23:59 of their start day.
//   - Overrides (RECURRENCE-ID) are imported as their own event with id
//     UID_YYYY-MM-DD of the replaced date.
//   - Invalid VEVENTs are logged and skipped.
func ParseICS(body []byte) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		ev, ok, perr := fromVEvent(ve)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr)
			continue
		}
		if !ok {
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics import completed", "event_count", len(events))
	return events, nil
}

// fromVEvent converts one VEVENT. ok is false for events that are skipped
// without being an error (all-day, or starting at 23:59 and running past
// midnight).
func fromVEvent(ve *ical.VEvent) (model.Event, bool, error) {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return model.Event{}, false, errors.New("missing UID")
	}
	uid := uidProp.Value

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return model.Event{}, false, errors.New("missing DTSTART: " + uid)
	}
	if isDateValue(dtStart) {
		appLog.Debug("ics all-day event skipped", "uid", uid)
		return model.Event{}, false, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return model.Event{}, false, err
	}
	end, err := eventEnd(ve, start)
	if err != nil {
		return model.Event{}, false, fmt.Errorf("%s: %w", uid, err)
	}

	// A moved occurrence of a series shares the master's UID; key it by
	// the date it replaces.
	id := uid
	if rid := ve.GetProperty("RECURRENCE-ID"); rid != nil {
		ridDate, err := parseICSDate(rid.Value)
		if err != nil {
			return model.Event{}, false, fmt.Errorf("%s: RECURRENCE-ID: %w", uid, err)
		}
		id = uid + "_" + ridDate.String()
	}

	ev := model.Event{
		ID:        id,
		Date:      model.DateOf(start),
		StartTime: interval.FormatClock(start.Hour()*60 + start.Minute()),
		EndTime:   interval.FormatClock(end.Hour()*60 + end.Minute()),
	}
	if model.DateOf(end) != ev.Date {
		if ev.StartTime == "23:59" {
			appLog.Debug("ics event starting at 23:59 past midnight skipped", "uid", uid)
			return model.Event{}, false, nil
		}
		ev.EndTime = "23:59"
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}
	if ve.GetProperty(ical.ComponentPropertyRrule) != nil {
		appLog.Debug("ics RRULE ignored; importing first occurrence only", "uid", uid)
	}

	if err := Validate(ev); err != nil {
		return model.Event{}, false, err
	}
	return ev, true, nil
}

// isDateValue reports whether a DTSTART carries a DATE (all-day) value.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// eventEnd returns DTEND, or DTSTART plus DURATION when DTEND is absent.
func eventEnd(ve *ical.VEvent, start time.Time) (time.Time, error) {
	if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
		return ve.GetEndAt()
	}
	p := ve.GetProperty("DURATION")
	if p == nil {
		return time.Time{}, errors.New("missing DTEND and DURATION")
	}
	d, err := parseICSDuration(p.Value)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(d), nil
}

// parseICSDuration parses an RFC 5545 dur-value such as "PT1H30M",
// "P1DT2H" or "-P2W".
func parseICSDuration(v string) (time.Duration, error) {
	s := strings.TrimSpace(v)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) < 3 {
		return 0, fmt.Errorf("malformed duration %q", v)
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
			continue
		case r == 'T' && !inTime && num == "":
			inTime = true
			continue
		}

		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, fmt.Errorf("malformed duration %q", v)
		}
		num = ""

		var unit time.Duration
		switch {
		case r == 'W' && !inTime:
			unit = 7 * 24 * time.Hour
		case r == 'D' && !inTime:
			unit = 24 * time.Hour
		case r == 'H' && inTime:
			unit = time.Hour
		case r == 'M' && inTime:
			unit = time.Minute
		case r == 'S' && inTime:
			unit = time.Second
		default:
			return 0, fmt.Errorf("malformed duration %q", v)
		}
		total += time.Duration(n) * unit
	}
	if num != "" {
		return 0, fmt.Errorf("malformed duration %q", v)
	}
	if neg {
		total = -total
	}
	return total, nil
}

// parseICSDate takes the date part of a DATE or DATE-TIME value
// ("20250310", "20250310T090000", "20250310T090000Z").
func parseICSDate(v string) (model.Date, error) {
	v = strings.TrimSpace(v)
	if len(v) < 8 {
		return model.Date{}, fmt.Errorf("malformed date %q", v)
	}
	t, err := time.Parse("20060102", v[:8])
	if err != nil {
		return model.Date{}, fmt.Errorf("malformed date %q", v)
	}
	return model.DateOf(t), nil
}
