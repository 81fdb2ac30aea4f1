package entities

import (
	"time"
)

// ReportRecipient is a (guild, user) pair subscribed to action reports.
// Membership only; recipients that can no longer be messaged are pruned.
type ReportRecipient struct {
	GuildID   int64     `db:"guild_id"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}
