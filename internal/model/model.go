package model

// Event is a calendar event as consumed by recurrence expansion and day
// layout. Times are naive local wall-clock values ("HH:MM", 24-hour).
//
// A base event carries its recurrence rule (if any); instances produced by
// expansion carry OriginalEventID and InstanceDate instead.
type Event struct {
	ID string

	Title       string
	Description string
	Location    string

	Date      Date
	StartTime string // "HH:MM"
	EndTime   string // "HH:MM", after StartTime for a well-formed event

	IsRecurring bool
	// Recurrence is meaningful only when IsRecurring is set. A recurring
	// event with a nil rule is handled as a single event.
	Recurrence *RecurrenceRule

	// OriginalEventID references the base event on generated instances.
	OriginalEventID string
	// InstanceDate equals Date on generated instances.
	InstanceDate Date
}

// HasRule reports whether e should be expanded as a recurring event.
func (e Event) HasRule() bool {
	return e.IsRecurring && e.Recurrence != nil
}

// IsInstance reports whether e was generated from a recurring base event.
func (e Event) IsInstance() bool {
	return e.OriginalEventID != ""
}
