package interfaces

import (
	"context"

	"meritbot/domain/entities"
)

// LedgerService applies recognized moderator actions to the ledger. Both the
// point credit and the audit append happen inside the unit of work the
// service was built from, so they commit or roll back together.
type LedgerService interface {
	// ApplyAction credits the actor for one action kind and appends the
	// audit record. Returns entities.ErrUnknownActionKind for kinds the
	// catalog does not know, before any mutation.
	ApplyAction(ctx context.Context, actorID int64, kind entities.ActionKind, targetID int64, reason string) (*entities.DeclareResult, error)

	// CreditPassiveMessage credits the current per-message points to a
	// moderator. No audit record is written for passive activity.
	CreditPassiveMessage(ctx context.Context, actorID int64) error
}

// RankService computes leaderboards and individual ranks. Pure reads.
type RankService interface {
	TopN(ctx context.Context, field entities.PointsField, n int) ([]entities.Standing, error)

	// RankOf returns the 1-based dense rank of a user. A user without an
	// account ranks as value zero, after every account with points.
	RankOf(ctx context.Context, userID int64, field entities.PointsField) (int, error)
}

// GuildConfigService manages per-guild configuration with partial-update
// semantics: setting one field never clobbers another.
type GuildConfigService interface {
	GetOrCreate(ctx context.Context, guildID int64) (*entities.GuildConfig, error)
	UpdateModRole(ctx context.Context, guildID int64, roleID *int64) error
	UpdateLeaderboardChannel(ctx context.Context, guildID int64, channelID *int64) error
	UpdateWelcomeChannel(ctx context.Context, guildID int64, channelID *int64) error
	UpdateWelcomeMessage(ctx context.Context, guildID int64, title, content string) error
	UpdateWelcomeImage(ctx context.Context, guildID int64, imageURL string) error

	// UpdateRotationSchedule validates expr as a 5-field cron expression
	// and rejects it with entities.ErrInvalidScheduleExpression before
	// anything is persisted or swapped.
	UpdateRotationSchedule(ctx context.Context, guildID int64, expr string) error
}

// ActionReport is the summary delivered to report recipients after a commit
type ActionReport struct {
	GuildID  int64
	ActorID  int64
	Kind     entities.ActionKind
	Points   int64
	TargetID int64
	Reason   string
}

// ReportDeliverer sends one report to one recipient. Implementations wrap
// entities.ErrRecipientBlocked when the recipient cannot be messaged.
type ReportDeliverer interface {
	DeliverReport(ctx context.Context, userID int64, report ActionReport) error
}

// DispatchResult summarizes a report fan-out
type DispatchResult struct {
	Delivered int
	Pruned    []int64
	Failed    int
}

// ReportService fans an action report out to every subscribed recipient,
// pruning recipients that can no longer be messaged
type ReportService interface {
	Dispatch(ctx context.Context, report ActionReport) (*DispatchResult, error)
}

// LeaderboardPublisher renders and sends a weekly leaderboard to the guild's
// configured channel. Implemented by the bot layer.
type LeaderboardPublisher interface {
	PublishWeekly(ctx context.Context, guildID int64, channelID int64, standings []entities.Standing) error
}
