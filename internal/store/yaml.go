package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"calcore/internal/interval"
	"calcore/internal/model"
)

var (
	ErrInvalidEvent = errors.New("invalid event")
	ErrInvalidRule  = errors.New("invalid recurrence rule")
	ErrDuplicateID  = errors.New("duplicate event id")
)

// eventsFile is the on-disk shape of a YAML events file.
type eventsFile struct {
	Events []fileEvent `yaml:"events"`
}

type fileEvent struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description,omitempty"`
	Location    string    `yaml:"location,omitempty"`
	Date        string    `yaml:"date"`
	Start       string    `yaml:"start"`
	End         string    `yaml:"end"`
	Recurring   bool      `yaml:"recurring,omitempty"`
	Recurrence  *fileRule `yaml:"recurrence,omitempty"`
}

type fileRule struct {
	Frequency  string `yaml:"frequency"`
	Interval   int    `yaml:"interval"`
	DaysOfWeek []int  `yaml:"days_of_week,omitempty"`
	DayOfMonth int    `yaml:"day_of_month,omitempty"`
	EndType    string `yaml:"end_type,omitempty"`
	// EndValue is a count for "after" and a YYYY-MM-DD date for "until".
	EndValue string `yaml:"end_value,omitempty"`
}

// ParseYAML decodes and validates a YAML events file. Events without an id
// get a random one.
func ParseYAML(data []byte) ([]model.Event, error) {
	var f eventsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode events yaml: %w", err)
	}

	out := make([]model.Event, 0, len(f.Events))
	seen := make(map[string]bool, len(f.Events))
	for i, fe := range f.Events {
		ev, err := fe.toEvent()
		if err != nil {
			return nil, fmt.Errorf("event #%d (%s): %w", i, fe.ID, err)
		}
		if seen[ev.ID] {
			return nil, fmt.Errorf("event #%d: %w: %s", i, ErrDuplicateID, ev.ID)
		}
		seen[ev.ID] = true
		out = append(out, ev)
	}
	return out, nil
}

func (fe fileEvent) toEvent() (model.Event, error) {
	id := strings.TrimSpace(fe.ID)
	if id == "" {
		id = uuid.New().String()
	}

	date, err := model.ParseDate(strings.TrimSpace(fe.Date))
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	ev := model.Event{
		ID:          id,
		Title:       fe.Title,
		Description: fe.Description,
		Location:    fe.Location,
		Date:        date,
		StartTime:   strings.TrimSpace(fe.Start),
		EndTime:     strings.TrimSpace(fe.End),
		IsRecurring: fe.Recurring || fe.Recurrence != nil,
	}
	if err := Validate(ev); err != nil {
		return model.Event{}, err
	}

	if fe.Recurrence != nil {
		rule, err := fe.Recurrence.toRule()
		if err != nil {
			return model.Event{}, err
		}
		ev.Recurrence = &rule
	}
	return ev, nil
}

func (fr fileRule) toRule() (model.RecurrenceRule, error) {
	freq, err := model.ParseFrequency(fr.Frequency)
	if err != nil {
		return model.RecurrenceRule{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if fr.Interval < 0 {
		return model.RecurrenceRule{}, fmt.Errorf("%w: interval %d", ErrInvalidRule, fr.Interval)
	}
	if len(fr.DaysOfWeek) > 0 && freq != model.FrequencyWeekly {
		return model.RecurrenceRule{}, fmt.Errorf("%w: days_of_week on a %s rule", ErrInvalidRule, freq)
	}
	if fr.DayOfMonth != 0 && freq != model.FrequencyMonthly {
		return model.RecurrenceRule{}, fmt.Errorf("%w: day_of_month on a %s rule", ErrInvalidRule, freq)
	}

	var rule model.RecurrenceRule
	switch freq {
	case model.FrequencyDaily:
		rule = model.Daily(fr.Interval)
	case model.FrequencyWeekly:
		days := make([]time.Weekday, 0, len(fr.DaysOfWeek))
		for _, n := range fr.DaysOfWeek {
			if n < 0 || n > 6 {
				return model.RecurrenceRule{}, fmt.Errorf("%w: weekday %d", ErrInvalidRule, n)
			}
			days = append(days, time.Weekday(n))
		}
		rule = model.Weekly(fr.Interval, days...)
	case model.FrequencyMonthly:
		if fr.DayOfMonth < 0 || fr.DayOfMonth > 31 {
			return model.RecurrenceRule{}, fmt.Errorf("%w: day_of_month %d", ErrInvalidRule, fr.DayOfMonth)
		}
		rule = model.Monthly(fr.Interval, fr.DayOfMonth)
	case model.FrequencyYearly:
		rule = model.Yearly(fr.Interval)
	}

	end, err := fr.toEnd()
	if err != nil {
		return model.RecurrenceRule{}, err
	}
	return rule.WithEnd(end), nil
}

func (fr fileRule) toEnd() (model.End, error) {
	endType, err := model.ParseEndType(fr.EndType)
	if err != nil {
		return model.End{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	value := strings.TrimSpace(fr.EndValue)

	switch endType {
	case model.EndAfterCount:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return model.End{}, fmt.Errorf("%w: end_value %q is not a count", ErrInvalidRule, value)
		}
		return model.EndAfter(n), nil
	case model.EndOnDate:
		until, err := model.ParseDate(value)
		if err != nil {
			return model.End{}, fmt.Errorf("%w: end_value: %v", ErrInvalidRule, err)
		}
		return model.EndUntil(until), nil
	default:
		if value != "" {
			return model.End{}, fmt.Errorf("%w: end_value set on a never-ending rule", ErrInvalidRule)
		}
		return model.NeverEnds(), nil
	}
}

// Validate rejects events the scheduling core cannot lay out: a missing
// date, malformed clock strings, and empty or inverted intervals.
func Validate(ev model.Event) error {
	if ev.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidEvent)
	}
	if err := interval.Validate(ev.StartTime, ev.EndTime); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return nil
}
