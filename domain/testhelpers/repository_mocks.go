package testhelpers

import (
	"context"

	"meritbot/domain/entities"
	"meritbot/domain/events"
	"meritbot/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockMeritAccountRepository is a mock implementation of MeritAccountRepository
type MockMeritAccountRepository struct {
	mock.Mock
}

func (m *MockMeritAccountRepository) Get(ctx context.Context, userID int64) (*entities.MeritAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MeritAccount), args.Error(1)
}

func (m *MockMeritAccountRepository) Credit(ctx context.Context, userID int64, amount int64) (*entities.MeritAccount, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MeritAccount), args.Error(1)
}

func (m *MockMeritAccountRepository) ResetWeekly(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMeritAccountRepository) TopN(ctx context.Context, field entities.PointsField, n int) ([]*entities.MeritAccount, error) {
	args := m.Called(ctx, field, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MeritAccount), args.Error(1)
}

func (m *MockMeritAccountRepository) GetAll(ctx context.Context, field entities.PointsField) ([]*entities.MeritAccount, error) {
	args := m.Called(ctx, field)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MeritAccount), args.Error(1)
}

// MockActionLogRepository is a mock implementation of ActionLogRepository
type MockActionLogRepository struct {
	mock.Mock
}

func (m *MockActionLogRepository) Record(ctx context.Context, record *entities.ActionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockActionLogRepository) ListByActor(ctx context.Context, actorID int64, limit int) ([]*entities.ActionRecord, error) {
	args := m.Called(ctx, actorID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ActionRecord), args.Error(1)
}

// MockGuildConfigRepository is a mock implementation of GuildConfigRepository
type MockGuildConfigRepository struct {
	mock.Mock
}

func (m *MockGuildConfigRepository) GetOrCreate(ctx context.Context, guildID int64) (*entities.GuildConfig, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuildConfig), args.Error(1)
}

func (m *MockGuildConfigRepository) Upsert(ctx context.Context, guildID int64, patch entities.GuildConfigPatch) (*entities.GuildConfig, error) {
	args := m.Called(ctx, guildID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuildConfig), args.Error(1)
}

func (m *MockGuildConfigRepository) ListGuildIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockReportRecipientRepository is a mock implementation of ReportRecipientRepository
type MockReportRecipientRepository struct {
	mock.Mock
}

func (m *MockReportRecipientRepository) Add(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockReportRecipientRepository) Remove(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockReportRecipientRepository) List(ctx context.Context) ([]*entities.ReportRecipient, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ReportRecipient), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockReportDeliverer is a mock implementation of ReportDeliverer
type MockReportDeliverer struct {
	mock.Mock
}

func (m *MockReportDeliverer) DeliverReport(ctx context.Context, userID int64, report interfaces.ActionReport) error {
	args := m.Called(ctx, userID, report)
	return args.Error(0)
}

// MockLeaderboardPublisher is a mock implementation of LeaderboardPublisher
type MockLeaderboardPublisher struct {
	mock.Mock
}

func (m *MockLeaderboardPublisher) PublishWeekly(ctx context.Context, guildID int64, channelID int64, standings []entities.Standing) error {
	args := m.Called(ctx, guildID, channelID, standings)
	return args.Error(0)
}
