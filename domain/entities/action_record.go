package entities

import (
	"time"
)

// ActionKind identifies a catalog-registered category of moderator activity
type ActionKind string

const (
	ActionWarn ActionKind = "WARN"
	ActionMute ActionKind = "MUTE"
	ActionKick ActionKind = "KICK"
	ActionBan  ActionKind = "BAN"

	ActionWelcome ActionKind = "WELCOME"
	ActionReport  ActionKind = "REPORT"
)

// ActionRecord is one append-only audit log entry. Points are snapshotted at
// commit time; later catalog changes never rewrite history.
type ActionRecord struct {
	ID         int64      `db:"id"`
	ActorID    int64      `db:"actor_id"`
	GuildID    int64      `db:"guild_id"`
	Kind       ActionKind `db:"action_kind"`
	Points     int64      `db:"points"`
	WeekNumber int        `db:"week_number"`
	CreatedAt  time.Time  `db:"created_at"`
}

// WeekNumber returns the ISO week number for a point in time. Weekly totals
// and the audit log use it so a rotation boundary is unambiguous.
func WeekNumber(t time.Time) int {
	_, week := t.UTC().ISOWeek()
	return week
}
