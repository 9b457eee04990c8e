// Package layout packs one day's timed events into side-by-side columns.
//
// Events are first split into conflict groups (connected components of the
// overlap relation), then each group is assigned columns greedily so that
// overlapping events never share one.
package layout

import (
	"sort"

	"calcore/internal/interval"
	"calcore/internal/model"
)

// Position is where an event sits inside its conflict group.
type Position struct {
	Column int `json:"column"`
	// Span is always 1: events do not widen into freed neighbor columns.
	Span int `json:"span"`
}

// ConflictGroup is a maximal set of same-day events connected by overlap.
// Columns and Positions are filled by LayoutDay.
type ConflictGroup struct {
	Date      model.Date
	Events    []model.Event
	Columns   int
	Positions map[string]Position
}

// Conflicting reports whether the group holds more than one event.
func (g ConflictGroup) Conflicting() bool {
	return len(g.Events) > 1
}

// span is an event with its clock values resolved once.
type span struct {
	ev    model.Event
	start int
	end   int
}

func spansOf(events []model.Event) []span {
	out := make([]span, len(events))
	for i, ev := range events {
		out[i] = span{
			ev:    ev,
			start: interval.ToMinutes(ev.StartTime),
			end:   interval.ToMinutes(ev.EndTime),
		}
	}
	return out
}

func (s span) overlaps(o span) bool {
	return interval.Overlaps(s.start, s.end, o.start, o.end)
}

// GroupConflicts partitions events that share one date into overlap-connected
// groups. Every event lands in exactly one group; a single-event group means
// no conflict. Input is not modified.
//
// Events are visited by start time, longer first on ties, so the group
// order and the membership order are stable for a given input.
func GroupConflicts(events []model.Event) []ConflictGroup {
	if len(events) == 0 {
		return nil
	}

	spans := spansOf(events)
	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if da, db := interval.Duration(a.start, a.end), interval.Duration(b.start, b.end); da != db {
			return da > db
		}
		return a.ev.ID < b.ev.ID
	})

	visited := make([]bool, len(spans))
	var groups []ConflictGroup

	for i := range spans {
		if visited[i] {
			continue
		}
		visited[i] = true

		queue := []int{i}
		var members []model.Event
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, spans[cur].ev)

			for j := range spans {
				if visited[j] || !spans[cur].overlaps(spans[j]) {
					continue
				}
				visited[j] = true
				queue = append(queue, j)
			}
		}

		groups = append(groups, ConflictGroup{
			Date:   spans[i].ev.Date,
			Events: members,
		})
	}

	return groups
}
