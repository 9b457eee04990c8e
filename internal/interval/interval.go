// Package interval holds wall-clock helpers shared by recurrence expansion
// and day layout. Intervals are half-open [start, end) in minutes since
// midnight.
package interval

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the exclusive upper bound for a clock value.
const MinutesPerDay = 24 * 60

var (
	ErrMalformedClock = errors.New("malformed HH:MM time")
	ErrClockRange     = errors.New("HH:MM time out of range")
	ErrEmptyInterval  = errors.New("end time must be after start time")
)

// ParseClock converts "HH:MM" into minutes since midnight, rejecting
// anything that is not two colon-separated integers within 00:00..23:59.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || hh == "" || mm == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrClockRange, s)
	}
	return h*60 + m, nil
}

// ToMinutes returns hours*60+minutes for a well-formed "HH:MM".
// Input must be validated by the caller; malformed input yields -1.
func ToMinutes(s string) int {
	n, err := ParseClock(s)
	if err != nil {
		return -1
	}
	return n
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps reports whether [startA, endA) and [startB, endB) intersect.
// Touching endpoints do not overlap.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

// OverlapMinutes returns the length of the intersection, never negative.
func OverlapMinutes(startA, endA, startB, endB int) int {
	return max(0, min(endA, endB)-max(startA, startB))
}

// Duration returns end-start. Inverted intervals give a non-positive result.
func Duration(start, end int) int {
	return end - start
}

// Validate checks that both clocks parse and that end is after start.
func Validate(start, end string) error {
	s, err := ParseClock(start)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if e <= s {
		return fmt.Errorf("%w: %s-%s", ErrEmptyInterval, start, end)
	}
	return nil
}
