package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Frequency is the base step of a recurrence rule.
type Frequency int

const (
	FrequencyDaily Frequency = iota
	FrequencyWeekly
	FrequencyMonthly
	FrequencyYearly
)

var frequencyNames = [...]string{"daily", "weekly", "monthly", "yearly"}

func (f Frequency) String() string {
	if f < 0 || int(f) >= len(frequencyNames) {
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
	return frequencyNames[f]
}

// ParseFrequency accepts "daily", "weekly", "monthly" or "yearly".
func ParseFrequency(s string) (Frequency, error) {
	for i, name := range frequencyNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Frequency(i), nil
		}
	}
	return 0, fmt.Errorf("unknown frequency %q", s)
}

// EndType selects how a recurrence terminates.
type EndType int

const (
	EndNever EndType = iota
	EndAfterCount
	EndOnDate
)

var endTypeNames = [...]string{"never", "after", "until"}

func (e EndType) String() string {
	if e < 0 || int(e) >= len(endTypeNames) {
		return fmt.Sprintf("EndType(%d)", int(e))
	}
	return endTypeNames[e]
}

// ParseEndType accepts "never", "after" or "until". Empty means never.
func ParseEndType(s string) (EndType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EndNever, nil
	}
	for i, name := range endTypeNames {
		if strings.EqualFold(s, name) {
			return EndType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown end type %q", s)
}

// End is the termination condition of a rule. Only the field matching
// Type is meaningful; use NeverEnds, EndAfter or EndUntil to build one.
type End struct {
	Type  EndType
	Count int
	Until Date
}

func NeverEnds() End { return End{Type: EndNever} }

// EndAfter stops after n occurrences. n < 0 is treated as 0.
func EndAfter(n int) End {
	if n < 0 {
		n = 0
	}
	return End{Type: EndAfterCount, Count: n}
}

// EndUntil stops once the occurrence date passes until (inclusive).
func EndUntil(until Date) End { return End{Type: EndOnDate, Until: until} }

// RecurrenceRule is a reduced recurrence model. Fields are unexported so a
// rule can only be built through Daily, Weekly, Monthly or Yearly, which
// keeps frequency-specific fields off the wrong frequency.
type RecurrenceRule struct {
	freq       Frequency
	interval   int
	end        End
	weekdays   []time.Weekday // weekly only
	dayOfMonth int            // monthly only, 0 = unset
}

func newRule(f Frequency, interval int) RecurrenceRule {
	if interval < 1 {
		interval = 1
	}
	return RecurrenceRule{freq: f, interval: interval, end: NeverEnds()}
}

// Daily repeats every interval days.
func Daily(interval int) RecurrenceRule {
	return newRule(FrequencyDaily, interval)
}

// Weekly repeats every interval weeks, on the given weekdays if any.
// Weekdays are deduplicated and sorted Sunday first.
func Weekly(interval int, days ...time.Weekday) RecurrenceRule {
	r := newRule(FrequencyWeekly, interval)
	seen := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday || seen[d] {
			continue
		}
		seen[d] = true
		r.weekdays = append(r.weekdays, d)
	}
	sort.Slice(r.weekdays, func(i, j int) bool { return r.weekdays[i] < r.weekdays[j] })
	return r
}

// Monthly repeats every interval months. dayOfMonth in 1..31 pins the
// day (clamped to the month's last day); 0 keeps the running day.
func Monthly(interval int, dayOfMonth int) RecurrenceRule {
	r := newRule(FrequencyMonthly, interval)
	if dayOfMonth >= 1 && dayOfMonth <= 31 {
		r.dayOfMonth = dayOfMonth
	}
	return r
}

// Yearly repeats every interval years.
func Yearly(interval int) RecurrenceRule {
	return newRule(FrequencyYearly, interval)
}

// WithEnd returns a copy of r terminating per end.
func (r RecurrenceRule) WithEnd(end End) RecurrenceRule {
	r.weekdays = append([]time.Weekday(nil), r.weekdays...)
	r.end = end
	return r
}

func (r RecurrenceRule) Frequency() Frequency { return r.freq }

// Interval is always >= 1.
func (r RecurrenceRule) Interval() int { return r.interval }

func (r RecurrenceRule) End() End { return r.end }

// Weekdays returns a copy of the weekly day set, nil when unset.
func (r RecurrenceRule) Weekdays() []time.Weekday {
	if len(r.weekdays) == 0 {
		return nil
	}
	return append([]time.Weekday(nil), r.weekdays...)
}

// DayOfMonth returns the pinned day, or 0 when unset.
func (r RecurrenceRule) DayOfMonth() int { return r.dayOfMonth }

func (r RecurrenceRule) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%d", r.freq, r.interval)
	if len(r.weekdays) > 0 {
		parts := make([]string, len(r.weekdays))
		for i, d := range r.weekdays {
			parts[i] = d.String()[:3]
		}
		fmt.Fprintf(&b, " on %s", strings.Join(parts, ","))
	}
	if r.dayOfMonth > 0 {
		fmt.Fprintf(&b, " day %d", r.dayOfMonth)
	}
	switch r.end.Type {
	case EndAfterCount:
		fmt.Fprintf(&b, " x%d", r.end.Count)
	case EndOnDate:
		fmt.Fprintf(&b, " until %s", r.end.Until)
	}
	return b.String()
}
