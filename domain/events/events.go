package events

import (
	"meritbot/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeMeritCredited EventType = "merit_credited"
	EventTypeWeeklyReset   EventType = "weekly_reset"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// MeritCreditedEvent is emitted after a credit has been committed to the
// ledger. Report fan-out hangs off this event.
type MeritCreditedEvent struct {
	ActorID        int64
	GuildID        int64
	Kind           entities.ActionKind
	Points         int64
	NewTotal       int64
	NewWeeklyTotal int64
	TargetID       int64 // zero when the action has no target
	Reason         string
}

func (e MeritCreditedEvent) Type() EventType {
	return EventTypeMeritCredited
}

// WeeklyResetEvent is emitted after a guild's weekly counters were zeroed
type WeeklyResetEvent struct {
	GuildID int64
}

func (e WeeklyResetEvent) Type() EventType {
	return EventTypeWeeklyReset
}
