package recurrence

import (
	"errors"
	"sort"
	"time"

	"calcore/internal/interval"
	appLog "calcore/internal/log"
	"calcore/internal/model"
)

// MaxIterations bounds the work done for a single base event. A rule that
// has not terminated after this many steps is cut off silently.
const MaxIterations = 1000

// Window is an inclusive date range [Start, End] for expansion.
type Window struct {
	Start model.Date
	End   model.Date
}

// Contains reports whether d lies within w, bounds included.
func (w Window) Contains(d model.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// WindowAround returns the window spanning back months before today to
// forward months after it. today is supplied by the caller; expansion
// never reads the clock.
func WindowAround(today model.Date, back, forward int) Window {
	return Window{
		Start: today.AddMonths(-back),
		End:   today.AddMonths(forward),
	}
}

// Result wraps the expanded instances of a base event set.
type Result struct {
	Instances []model.Event
	// Truncated records base ids whose expansion hit MaxIterations.
	Truncated []string
}

// InstanceID is the stable key of the instance of baseID on date.
func InstanceID(baseID string, date model.Date) string {
	return baseID + "_" + date.String()
}

// Expand turns one base event into the instances whose date falls in
// [windowStart, windowEnd], in non-decreasing date order.
//
// Events without a usable rule pass through unchanged when their own date
// is in the window. The base event is never modified.
func Expand(base model.Event, windowStart, windowEnd model.Date) []model.Event {
	out, _ := expandEvent(base, Window{Start: windowStart, End: windowEnd})
	return out
}

// ExpandAll expands every base event over w and merges recurring and single
// events into one list ordered by (date, start time, id).
func ExpandAll(events []model.Event, w Window) (Result, error) {
	var result Result

	if w.End.Before(w.Start) {
		return result, errors.New("expand: window end is before window start")
	}

	all := make([]model.Event, 0, len(events))
	for _, ev := range events {
		occ, hitCap := expandEvent(ev, w)
		if hitCap {
			result.Truncated = append(result.Truncated, ev.ID)
			appLog.Error("expand: truncated occurrences due to iteration cap",
				errors.New("max iterations reached"),
				"id", ev.ID,
				"cap", MaxIterations,
			)
		}
		all = append(all, occ...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		if sa, sb := interval.ToMinutes(a.StartTime), interval.ToMinutes(b.StartTime); sa != sb {
			return sa < sb
		}
		return a.ID < b.ID
	})
	sort.Strings(result.Truncated)

	result.Instances = all
	return result, nil
}

// expandEvent returns the instances of ev within w and whether the
// iteration cap was hit.
func expandEvent(ev model.Event, w Window) ([]model.Event, bool) {
	if !ev.HasRule() {
		if w.Contains(ev.Date) {
			return []model.Event{ev}, false
		}
		return nil, false
	}
	return expandRule(ev, *ev.Recurrence, w)
}

func expandRule(base model.Event, rule model.RecurrenceRule, w Window) ([]model.Event, bool) {
	var out []model.Event
	end := rule.End()
	current := base.Date
	count := 0

	for iter := 0; ; iter++ {
		if end.Type == model.EndAfterCount && count >= end.Count {
			break
		}
		if end.Type == model.EndOnDate && current.After(end.Until) {
			break
		}
		if current.After(w.End) {
			break
		}
		// Only a rule that would still produce occurrences is cut off.
		if iter >= MaxIterations {
			return out, true
		}

		if !current.Before(w.Start) {
			out = append(out, makeInstance(base, current))
		}
		count++
		current = next(rule, current)
	}

	return out, false
}

// makeInstance copies base onto date. The copy is shallow; the rule pointer
// is shared with the base event.
func makeInstance(base model.Event, date model.Date) model.Event {
	inst := base
	inst.ID = InstanceID(base.ID, date)
	inst.Date = date
	inst.InstanceDate = date
	inst.OriginalEventID = base.ID
	return inst
}

// next returns the occurrence following current under rule.
func next(rule model.RecurrenceRule, current model.Date) model.Date {
	n := rule.Interval()

	switch rule.Frequency() {
	case model.FrequencyDaily:
		return current.AddDays(n)

	case model.FrequencyWeekly:
		days := rule.Weekdays()
		if len(days) == 0 {
			return current.AddDays(7 * n)
		}
		wd := current.Weekday()
		for _, d := range days {
			if d > wd {
				return current.AddDays(int(d - wd))
			}
		}
		// Past the last listed day: jump n weeks from this week's Sunday.
		weekStart := current.AddDays(-int(wd))
		return weekStart.AddDays(7*n + int(days[0]))

	case model.FrequencyMonthly:
		dom := rule.DayOfMonth()
		if dom == 0 {
			return current.AddMonths(n)
		}
		first := model.NewDate(current.Year, current.Month+time.Month(n), 1)
		return model.NewDate(first.Year, first.Month, min(dom, model.DaysIn(first.Year, first.Month)))

	case model.FrequencyYearly:
		return current.AddYears(n)
	}

	// Unknown frequencies cannot be built through the model constructors;
	// step a day so the loop still terminates.
	return current.AddDays(1)
}
