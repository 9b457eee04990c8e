package layout

import (
	"fmt"
	"testing"
	"time"

	"calcore/internal/interval"
	"calcore/internal/model"
)

var day = model.NewDate(2025, time.March, 10)

func ev(id, start, end string) model.Event {
	return model.Event{ID: id, Title: id, Date: day, StartTime: start, EndTime: end}
}

func groupIDs(g ConflictGroup) []string {
	ids := make([]string, len(g.Events))
	for i, e := range g.Events {
		ids[i] = e.ID
	}
	return ids
}

func TestGroupConflictsChain(t *testing.T) {
	a := ev("A", "09:00", "10:00")
	b := ev("B", "09:30", "10:30")
	c := ev("C", "10:00", "11:00")

	groups := GroupConflicts([]model.Event{c, a, b})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if got := fmt.Sprint(groupIDs(groups[0])); got != "[A B C]" {
		t.Errorf("unexpected membership order %s", got)
	}

	cols, pos := AssignColumns(groups[0].Events)
	if cols != 2 {
		t.Errorf("expected 2 columns, got %d", cols)
	}
	if pos["A"].Column == pos["B"].Column {
		t.Errorf("A and B share column %d", pos["A"].Column)
	}
	if pos["C"].Column != pos["A"].Column {
		t.Errorf("C should reuse A's column %d, got %d", pos["A"].Column, pos["C"].Column)
	}
	for id, p := range pos {
		if p.Span != 1 {
			t.Errorf("%s: span %d, want 1", id, p.Span)
		}
	}
}

func TestGroupConflictsTouching(t *testing.T) {
	groups := GroupConflicts([]model.Event{
		ev("D", "09:00", "10:00"),
		ev("E", "10:00", "11:00"),
	})
	if len(groups) != 2 {
		t.Fatalf("expected 2 singleton groups, got %d", len(groups))
	}
	for _, g := range groups {
		if g.Conflicting() {
			t.Errorf("group %v should not be conflicting", groupIDs(g))
		}
	}
	if groups[0].Events[0].ID != "D" || groups[1].Events[0].ID != "E" {
		t.Errorf("unexpected group order %v %v", groupIDs(groups[0]), groupIDs(groups[1]))
	}
}

func TestGroupConflictsOrdering(t *testing.T) {
	// Equal starts: longer first.
	groups := GroupConflicts([]model.Event{
		ev("short", "09:00", "09:30"),
		ev("long", "09:00", "11:00"),
		ev("late", "10:30", "11:30"),
	})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if got := fmt.Sprint(groupIDs(groups[0])); got != "[long short late]" {
		t.Errorf("unexpected order %s", got)
	}
}

func TestGroupConflictsCompleteness(t *testing.T) {
	events := []model.Event{
		ev("a", "08:00", "09:00"),
		ev("b", "08:30", "09:15"),
		ev("c", "09:15", "10:00"),
		ev("d", "11:00", "12:00"),
		ev("e", "11:00", "11:30"),
		ev("f", "11:45", "13:00"),
		ev("g", "14:00", "15:00"),
		ev("inverted", "16:00", "15:00"),
	}

	groups := GroupConflicts(events)
	seen := make(map[string]int)
	for _, g := range groups {
		if g.Date != day {
			t.Errorf("group dated %s, want %s", g.Date, day)
		}
		for _, e := range g.Events {
			seen[e.ID]++
		}
	}
	if len(seen) != len(events) {
		t.Fatalf("expected %d events across groups, got %d", len(events), len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("%s appears in %d groups", id, n)
		}
	}

	// a-b overlap, c touches b; d-e-f chain; g alone; inverted alone.
	if len(groups) != 5 {
		t.Errorf("expected 5 groups, got %d", len(groups))
	}

	// Groups must be internally connected and mutually non-overlapping.
	for i, g := range groups {
		for j, h := range groups {
			if i == j {
				continue
			}
			for _, x := range g.Events {
				for _, y := range h.Events {
					if overlapping(x, y) {
						t.Errorf("%s and %s overlap but are in different groups", x.ID, y.ID)
					}
				}
			}
		}
	}
}

func TestGroupConflictsEmpty(t *testing.T) {
	if got := GroupConflicts(nil); len(got) != 0 {
		t.Errorf("expected no groups, got %d", len(got))
	}
	if cols, pos := AssignColumns(nil); cols != 0 || len(pos) != 0 {
		t.Errorf("expected empty assignment, got %d %v", cols, pos)
	}
}

func overlapping(a, b model.Event) bool {
	return interval.Overlaps(
		interval.ToMinutes(a.StartTime), interval.ToMinutes(a.EndTime),
		interval.ToMinutes(b.StartTime), interval.ToMinutes(b.EndTime),
	)
}

func TestAssignColumnsSafety(t *testing.T) {
	tests := []struct {
		name     string
		events   []model.Event
		wantCols int
	}{
		{
			name:     "single",
			events:   []model.Event{ev("a", "09:00", "10:00")},
			wantCols: 1,
		},
		{
			name: "three simultaneous",
			events: []model.Event{
				ev("a", "09:00", "10:00"),
				ev("b", "09:00", "10:00"),
				ev("c", "09:00", "10:00"),
			},
			wantCols: 3,
		},
		{
			name: "staircase reuses columns",
			events: []model.Event{
				ev("a", "09:00", "10:00"),
				ev("b", "09:30", "10:30"),
				ev("c", "10:00", "11:00"),
				ev("d", "10:30", "11:30"),
			},
			wantCols: 2,
		},
		{
			name: "long event pins a column",
			events: []model.Event{
				ev("all", "08:00", "18:00"),
				ev("m1", "09:00", "10:00"),
				ev("m2", "10:00", "11:00"),
				ev("m3", "10:30", "12:00"),
			},
			wantCols: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, pos := AssignColumns(tt.events)
			if cols != tt.wantCols {
				t.Errorf("expected %d columns, got %d", tt.wantCols, cols)
			}
			if len(pos) != len(tt.events) {
				t.Fatalf("expected %d positions, got %d", len(tt.events), len(pos))
			}
			for i, x := range tt.events {
				px := pos[x.ID]
				if px.Column < 0 || px.Column >= cols {
					t.Errorf("%s: column %d out of range [0,%d)", x.ID, px.Column, cols)
				}
				for _, y := range tt.events[i+1:] {
					if pos[y.ID].Column == px.Column && overlapping(x, y) {
						t.Errorf("%s and %s overlap in column %d", x.ID, y.ID, px.Column)
					}
				}
			}
		})
	}
}

func TestAssignColumnsFirstFreeColumn(t *testing.T) {
	_, pos := AssignColumns([]model.Event{
		ev("a", "09:00", "09:30"),
		ev("b", "09:00", "11:00"),
		ev("c", "09:00", "12:00"),
		ev("d", "09:45", "10:15"),
	})
	// a ends first, so d takes column 0 rather than a new column.
	if pos["a"].Column != 0 || pos["b"].Column != 1 || pos["c"].Column != 2 {
		t.Errorf("unexpected initial columns %v", pos)
	}
	if pos["d"].Column != 0 {
		t.Errorf("d should reuse column 0, got %d", pos["d"].Column)
	}
}

func TestLayoutDay(t *testing.T) {
	groups := LayoutDay([]model.Event{
		ev("A", "09:00", "10:00"),
		ev("B", "09:30", "10:30"),
		ev("lunch", "12:00", "13:00"),
	})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Columns != 2 || len(groups[0].Positions) != 2 {
		t.Errorf("first group: %d columns, %d positions", groups[0].Columns, len(groups[0].Positions))
	}
	if groups[1].Columns != 1 || groups[1].Positions["lunch"].Column != 0 {
		t.Errorf("second group: %d columns, %+v", groups[1].Columns, groups[1].Positions)
	}
}

func TestSplitByDate(t *testing.T) {
	next := day.AddDays(1)
	a := ev("a", "09:00", "10:00")
	b := ev("b", "09:00", "10:00")
	b.Date = next
	c := ev("c", "11:00", "12:00")

	days := SplitByDate([]model.Event{b, a, c})
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Date != day || len(days[0].Events) != 2 || days[0].Events[0].ID != "a" {
		t.Errorf("unexpected first day %+v", days[0])
	}
	if days[1].Date != next || days[1].Events[0].ID != "b" {
		t.Errorf("unexpected second day %+v", days[1])
	}

	if got := EventsOn([]model.Event{a, b, c}, next); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("EventsOn: got %v", got)
	}
}
