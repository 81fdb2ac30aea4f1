package entities

import (
	"strconv"
	"strings"
	"time"
)

// DefaultRotationSchedule publishes and resets weekly totals every Sunday at
// midnight UTC, in standard 5-field cron form.
const DefaultRotationSchedule = "0 0 * * 0"

// Default welcome template used when a guild has not configured its own
const (
	DefaultWelcomeTitle   = "Welcome aboard, {user}!"
	DefaultWelcomeContent = "{user} just joined {server}. You are member #{memberCount}!"
)

// GuildConfig holds per-guild configuration. All fields besides the guild ID
// are optional; nil means "never configured".
type GuildConfig struct {
	GuildID              int64     `db:"guild_id"`
	ModRoleID            *int64    `db:"mod_role_id"`
	LeaderboardChannelID *int64    `db:"leaderboard_channel_id"`
	WelcomeChannelID     *int64    `db:"welcome_channel_id"`
	WelcomeTitle         *string   `db:"welcome_title"`
	WelcomeContent       *string   `db:"welcome_content"`
	WelcomeImage         *string   `db:"welcome_image"`
	RotationSchedule     *string   `db:"rotation_schedule"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

// GuildConfigPatch carries the fields of a partial update. Nil fields keep
// whatever is already stored; set fields overwrite.
type GuildConfigPatch struct {
	ModRoleID            *int64
	LeaderboardChannelID *int64
	WelcomeChannelID     *int64
	WelcomeTitle         *string
	WelcomeContent       *string
	WelcomeImage         *string
	RotationSchedule     *string
}

// HasLeaderboardChannel checks if a leaderboard channel is configured
func (c *GuildConfig) HasLeaderboardChannel() bool {
	return c.LeaderboardChannelID != nil && *c.LeaderboardChannelID > 0
}

// HasModRole checks if a moderator role is configured
func (c *GuildConfig) HasModRole() bool {
	return c.ModRoleID != nil && *c.ModRoleID > 0
}

// Schedule returns the rotation schedule expression, falling back to the
// weekly default when unset.
func (c *GuildConfig) Schedule() string {
	if c.RotationSchedule != nil && *c.RotationSchedule != "" {
		return *c.RotationSchedule
	}
	return DefaultRotationSchedule
}

// RenderWelcome expands the welcome template placeholders {user}, {server}
// and {memberCount} and returns the rendered title and body.
func (c *GuildConfig) RenderWelcome(userMention, serverName string, memberCount int) (string, string) {
	title := DefaultWelcomeTitle
	if c.WelcomeTitle != nil && *c.WelcomeTitle != "" {
		title = *c.WelcomeTitle
	}
	content := DefaultWelcomeContent
	if c.WelcomeContent != nil && *c.WelcomeContent != "" {
		content = *c.WelcomeContent
	}

	expand := func(s string) string {
		s = strings.ReplaceAll(s, "{user}", userMention)
		s = strings.ReplaceAll(s, "{server}", serverName)
		s = strings.ReplaceAll(s, "{memberCount}", strconv.Itoa(memberCount))
		return s
	}

	return expand(title), expand(content)
}
