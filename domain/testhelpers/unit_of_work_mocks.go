package testhelpers

import (
	"context"

	"meritbot/domain/interfaces"
)

// FakeUnitOfWork is an in-memory unit of work for service and scheduler
// tests. It hands out the configured mocks and records transaction calls.
type FakeUnitOfWork struct {
	Accounts   *MockMeritAccountRepository
	ActionLog  *MockActionLogRepository
	Configs    *MockGuildConfigRepository
	Recipients *MockReportRecipientRepository
	Publisher  *MockEventPublisher

	Began      bool
	Committed  bool
	RolledBack bool
	BeginErr   error
	CommitErr  error
}

// NewFakeUnitOfWork creates a fake unit of work with fresh mocks
func NewFakeUnitOfWork() *FakeUnitOfWork {
	return &FakeUnitOfWork{
		Accounts:   new(MockMeritAccountRepository),
		ActionLog:  new(MockActionLogRepository),
		Configs:    new(MockGuildConfigRepository),
		Recipients: new(MockReportRecipientRepository),
		Publisher:  new(MockEventPublisher),
	}
}

func (u *FakeUnitOfWork) Begin(ctx context.Context) error {
	if u.BeginErr != nil {
		return u.BeginErr
	}
	u.Began = true
	return nil
}

func (u *FakeUnitOfWork) Commit() error {
	if u.CommitErr != nil {
		return u.CommitErr
	}
	u.Committed = true
	return nil
}

func (u *FakeUnitOfWork) Rollback() error {
	if !u.Committed {
		u.RolledBack = true
	}
	return nil
}

func (u *FakeUnitOfWork) MeritAccountRepository() interfaces.MeritAccountRepository {
	return u.Accounts
}

func (u *FakeUnitOfWork) ActionLogRepository() interfaces.ActionLogRepository {
	return u.ActionLog
}

func (u *FakeUnitOfWork) GuildConfigRepository() interfaces.GuildConfigRepository {
	return u.Configs
}

func (u *FakeUnitOfWork) ReportRecipientRepository() interfaces.ReportRecipientRepository {
	return u.Recipients
}

func (u *FakeUnitOfWork) EventBus() interfaces.EventPublisher {
	return u.Publisher
}

// FakeUnitOfWorkFactory returns the same fake unit of work for every guild
type FakeUnitOfWorkFactory struct {
	UoW *FakeUnitOfWork
}

func (f *FakeUnitOfWorkFactory) CreateForGuild(guildID int64) interfaces.UnitOfWork {
	return f.UoW
}
