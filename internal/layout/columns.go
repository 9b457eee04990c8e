package layout

import (
	"sort"

	"calcore/internal/model"
)

// AssignColumns gives every event of one conflict group a zero-based column
// such that overlapping events never share a column, and returns the number
// of columns used. Events are taken by (start, end); each goes to the first
// column whose occupant has ended by its start, or to a new column.
//
// Event ids must be unique within the group.
func AssignColumns(group []model.Event) (int, map[string]Position) {
	spans := spansOf(group)
	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.start != b.start {
			return a.start < b.start
		}
		return a.end < b.end
	})

	positions := make(map[string]Position, len(spans))
	// columnEnds holds the end of the latest event placed in each column.
	var columnEnds []int

	for _, s := range spans {
		placed := false
		for c := range columnEnds {
			if columnEnds[c] <= s.start {
				columnEnds[c] = s.end
				positions[s.ev.ID] = Position{Column: c, Span: 1}
				placed = true
				break
			}
		}
		if !placed {
			columnEnds = append(columnEnds, s.end)
			positions[s.ev.ID] = Position{Column: len(columnEnds) - 1, Span: 1}
		}
	}

	return len(columnEnds), positions
}

// LayoutDay groups one day's events and assigns columns within each group.
func LayoutDay(events []model.Event) []ConflictGroup {
	groups := GroupConflicts(events)
	for i := range groups {
		groups[i].Columns, groups[i].Positions = AssignColumns(groups[i].Events)
	}
	return groups
}

// Day is the set of events falling on one date.
type Day struct {
	Date   model.Date
	Events []model.Event
}

// SplitByDate buckets events by date, in ascending date order. Within a
// day, events keep their input order.
func SplitByDate(events []model.Event) []Day {
	index := make(map[model.Date]int)
	var days []Day
	for _, ev := range events {
		i, ok := index[ev.Date]
		if !ok {
			i = len(days)
			index[ev.Date] = i
			days = append(days, Day{Date: ev.Date})
		}
		days[i].Events = append(days[i].Events, ev)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// EventsOn returns the events dated d, in input order.
func EventsOn(events []model.Event, d model.Date) []model.Event {
	var out []model.Event
	for _, ev := range events {
		if ev.Date == d {
			out = append(out, ev)
		}
	}
	return out
}
