package interfaces

import (
	"context"

	"meritbot/domain/entities"
	"meritbot/domain/events"
)

// MeritAccountRepository is guild-scoped durable storage for merit accounts
type MeritAccountRepository interface {
	// Get returns the account for a user, or nil when none exists.
	// Absence is not an error.
	Get(ctx context.Context, userID int64) (*entities.MeritAccount, error)

	// Credit increments both total and weekly points by amount, creating
	// the account when missing. Atomic per call. Returns the updated
	// account. No business validation happens here; that is the caller's
	// responsibility.
	Credit(ctx context.Context, userID int64, amount int64) (*entities.MeritAccount, error)

	// ResetWeekly zeroes weekly points for every account in the guild.
	// Idempotent.
	ResetWeekly(ctx context.Context) error

	// TopN returns up to n accounts ordered by the given field descending,
	// ties broken by account creation order (earliest first).
	TopN(ctx context.Context, field entities.PointsField, n int) ([]*entities.MeritAccount, error)

	// GetAll returns every account in the guild ordered like TopN
	GetAll(ctx context.Context, field entities.PointsField) ([]*entities.MeritAccount, error)
}

// ActionLogRepository is the guild-scoped append-only audit log
type ActionLogRepository interface {
	Record(ctx context.Context, record *entities.ActionRecord) error
	ListByActor(ctx context.Context, actorID int64, limit int) ([]*entities.ActionRecord, error)
}

// GuildConfigRepository stores per-guild configuration. Not guild-scoped:
// the scheduler walks every guild's config at startup.
type GuildConfigRepository interface {
	// GetOrCreate returns the config row, inserting an all-defaults row
	// when none exists
	GetOrCreate(ctx context.Context, guildID int64) (*entities.GuildConfig, error)

	// Upsert merges the patch into the stored row, preserving fields the
	// patch leaves nil, and returns the merged result
	Upsert(ctx context.Context, guildID int64, patch entities.GuildConfigPatch) (*entities.GuildConfig, error)

	// ListGuildIDs returns every guild that has a config row
	ListGuildIDs(ctx context.Context) ([]int64, error)
}

// ReportRecipientRepository is the guild-scoped report subscription set
type ReportRecipientRepository interface {
	Add(ctx context.Context, userID int64) error
	Remove(ctx context.Context, userID int64) error
	List(ctx context.Context) ([]*entities.ReportRecipient, error)
}

// EventPublisher publishes domain events. Inside a unit of work the events
// are held until the transaction commits.
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork scopes repositories to one guild and one transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	MeritAccountRepository() MeritAccountRepository
	ActionLogRepository() ActionLogRepository
	GuildConfigRepository() GuildConfigRepository
	ReportRecipientRepository() ReportRecipientRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates guild-scoped units of work
type UnitOfWorkFactory interface {
	CreateForGuild(guildID int64) UnitOfWork
}
