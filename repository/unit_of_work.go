package repository

import (
	"context"
	"fmt"

	"meritbot/database"
	"meritbot/domain/events"
	"meritbot/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db            *database.DB
	tx            pgx.Tx
	ctx           context.Context
	guildID       int64
	txBus         *events.TransactionalBus
	accountRepo   interfaces.MeritAccountRepository
	actionLogRepo interfaces.ActionLogRepository
	configRepo    interfaces.GuildConfigRepository
	recipientRepo interfaces.ReportRecipientRepository
}

type unitOfWorkFactory struct {
	db  *database.DB
	bus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory. Every unit of work
// it creates publishes through the given bus after its transaction commits.
func NewUnitOfWorkFactory(db *database.DB, bus *events.Bus) interfaces.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:  db,
		bus: bus,
	}
}

// CreateForGuild creates a new UnitOfWork scoped to one guild
func (f *unitOfWorkFactory) CreateForGuild(guildID int64) interfaces.UnitOfWork {
	return &unitOfWork{
		db:      f.db,
		guildID: guildID,
		txBus:   events.NewTransactionalBus(f.bus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create guild-scoped repositories with the transaction
	u.accountRepo = NewMeritAccountRepositoryScoped(tx, u.guildID)
	u.actionLogRepo = NewActionLogRepositoryScoped(tx, u.guildID)
	u.configRepo = NewGuildConfigRepositoryWithTx(tx) // config is keyed explicitly
	u.recipientRepo = NewReportRecipientRepositoryScoped(tx, u.guildID)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil
	u.txBus.Flush(u.ctx)

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil
	u.txBus.Discard()

	return nil
}

// MeritAccountRepository returns the merit account repository for this unit of work
func (u *unitOfWork) MeritAccountRepository() interfaces.MeritAccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// ActionLogRepository returns the action log repository for this unit of work
func (u *unitOfWork) ActionLogRepository() interfaces.ActionLogRepository {
	if u.actionLogRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.actionLogRepo
}

// GuildConfigRepository returns the guild config repository for this unit of work
func (u *unitOfWork) GuildConfigRepository() interfaces.GuildConfigRepository {
	if u.configRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.configRepo
}

// ReportRecipientRepository returns the report recipient repository for this unit of work
func (u *unitOfWork) ReportRecipientRepository() interfaces.ReportRecipientRepository {
	if u.recipientRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.recipientRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	return u.txBus
}
