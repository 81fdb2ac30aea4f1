package entities

import (
	"time"
)

// MeritAccount tracks a moderator's merit points within a specific guild.
// Accounts are created lazily on the first credit and never deleted.
type MeritAccount struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	GuildID      int64     `db:"guild_id"`
	TotalPoints  int64     `db:"total_points"`
	WeeklyPoints int64     `db:"weekly_points"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ZeroAccount returns an empty account for a user that has never earned
// points. Absence of a row is not an error anywhere in the system.
func ZeroAccount(userID, guildID int64) *MeritAccount {
	return &MeritAccount{
		UserID:  userID,
		GuildID: guildID,
	}
}

// HasPoints reports whether the account has earned anything at all
func (a *MeritAccount) HasPoints() bool {
	return a.TotalPoints > 0
}
