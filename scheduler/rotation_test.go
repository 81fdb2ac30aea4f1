package scheduler

import (
	"context"
	"errors"
	"testing"

	"meritbot/domain/entities"
	"meritbot/domain/events"
	"meritbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRotationScheduler_Set(t *testing.T) {
	t.Parallel()

	t.Run("valid expression installs a timer", func(t *testing.T) {
		t.Parallel()

		s := NewRotationScheduler(&testhelpers.FakeUnitOfWorkFactory{}, new(testhelpers.MockLeaderboardPublisher))

		require.NoError(t, s.Set(555, "0 0 * * 0"))
		assert.True(t, s.HasTimer(555))
	})

	t.Run("invalid expression is rejected before the swap", func(t *testing.T) {
		t.Parallel()

		s := NewRotationScheduler(&testhelpers.FakeUnitOfWorkFactory{}, new(testhelpers.MockLeaderboardPublisher))
		require.NoError(t, s.Set(555, "0 0 * * 0"))
		installed := s.entries[555]

		err := s.Set(555, "not a schedule")
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrInvalidScheduleExpression)

		// The running timer is untouched
		assert.True(t, s.HasTimer(555))
		assert.Equal(t, installed, s.entries[555])
	})

	t.Run("replacing a timer drops the old entry", func(t *testing.T) {
		t.Parallel()

		s := NewRotationScheduler(&testhelpers.FakeUnitOfWorkFactory{}, new(testhelpers.MockLeaderboardPublisher))
		require.NoError(t, s.Set(555, "0 0 * * 0"))
		first := s.entries[555]

		require.NoError(t, s.Set(555, "30 9 * * 1"))
		assert.NotEqual(t, first, s.entries[555])
		assert.Len(t, s.cron.Entries(), 1)
	})

	t.Run("remove is safe for unknown guilds", func(t *testing.T) {
		t.Parallel()

		s := NewRotationScheduler(&testhelpers.FakeUnitOfWorkFactory{}, new(testhelpers.MockLeaderboardPublisher))
		s.Remove(999)

		require.NoError(t, s.Set(555, "0 0 * * 0"))
		s.Remove(555)
		assert.False(t, s.HasTimer(555))
		assert.Empty(t, s.cron.Entries())
	})
}

func TestRotationScheduler_Bootstrap(t *testing.T) {
	t.Parallel()

	strPtr := func(s string) *string { return &s }

	t.Run("installs a timer per configured guild", func(t *testing.T) {
		t.Parallel()

		configs := new(testhelpers.MockGuildConfigRepository)
		configs.On("ListGuildIDs", context.Background()).Return([]int64{1, 2}, nil)
		configs.On("GetOrCreate", context.Background(), int64(1)).Return(&entities.GuildConfig{GuildID: 1}, nil)
		configs.On("GetOrCreate", context.Background(), int64(2)).Return(&entities.GuildConfig{
			GuildID:          2,
			RotationSchedule: strPtr("30 9 * * 1"),
		}, nil)

		s := NewRotationScheduler(&testhelpers.FakeUnitOfWorkFactory{}, new(testhelpers.MockLeaderboardPublisher))
		require.NoError(t, s.Bootstrap(context.Background(), configs))

		assert.True(t, s.HasTimer(1))
		assert.True(t, s.HasTimer(2))
	})

	t.Run("unparseable stored schedule falls back to the default", func(t *testing.T) {
		t.Parallel()

		configs := new(testhelpers.MockGuildConfigRepository)
		configs.On("ListGuildIDs", context.Background()).Return([]int64{1}, nil)
		configs.On("GetOrCreate", context.Background(), int64(1)).Return(&entities.GuildConfig{
			GuildID:          1,
			RotationSchedule: strPtr("corrupted"),
		}, nil)

		s := NewRotationScheduler(&testhelpers.FakeUnitOfWorkFactory{}, new(testhelpers.MockLeaderboardPublisher))
		require.NoError(t, s.Bootstrap(context.Background(), configs))
		assert.True(t, s.HasTimer(1))
	})

	t.Run("listing failure aborts", func(t *testing.T) {
		t.Parallel()

		configs := new(testhelpers.MockGuildConfigRepository)
		configs.On("ListGuildIDs", context.Background()).Return(([]int64)(nil), errors.New("query failed"))

		s := NewRotationScheduler(&testhelpers.FakeUnitOfWorkFactory{}, new(testhelpers.MockLeaderboardPublisher))
		err := s.Bootstrap(context.Background(), configs)
		require.Error(t, err)
	})
}

func TestRotationScheduler_Rotate(t *testing.T) {
	t.Parallel()

	channelID := int64(9000)

	t.Run("publishes then resets", func(t *testing.T) {
		t.Parallel()

		uow := testhelpers.NewFakeUnitOfWork()
		uow.Configs.On("GetOrCreate", context.Background(), int64(555)).Return(&entities.GuildConfig{
			GuildID:              555,
			LeaderboardChannelID: &channelID,
		}, nil)
		uow.Accounts.On("TopN", context.Background(), entities.FieldWeekly, 10).Return([]*entities.MeritAccount{
			{UserID: 1, WeeklyPoints: 20},
			{UserID: 2, WeeklyPoints: 10},
		}, nil)
		uow.Accounts.On("ResetWeekly", context.Background()).Return(nil)
		uow.Publisher.On("Publish", events.WeeklyResetEvent{GuildID: 555}).Return()

		publisher := new(testhelpers.MockLeaderboardPublisher)
		publisher.On("PublishWeekly", context.Background(), int64(555), channelID, []entities.Standing{
			{Rank: 1, UserID: 1, Points: 20},
			{Rank: 2, UserID: 2, Points: 10},
		}).Return(nil)

		s := NewRotationScheduler(&testhelpers.FakeUnitOfWorkFactory{UoW: uow}, publisher)
		s.rotate(context.Background(), 555)

		assert.True(t, uow.Committed)
		uow.Accounts.AssertCalled(t, "ResetWeekly", context.Background())
		publisher.AssertExpectations(t)
		uow.Publisher.AssertExpectations(t)
	})

	t.Run("publish failure skips the reset", func(t *testing.T) {
		t.Parallel()

		uow := testhelpers.NewFakeUnitOfWork()
		uow.Configs.On("GetOrCreate", context.Background(), int64(555)).Return(&entities.GuildConfig{
			GuildID:              555,
			LeaderboardChannelID: &channelID,
		}, nil)
		uow.Accounts.On("TopN", context.Background(), entities.FieldWeekly, 10).Return([]*entities.MeritAccount{}, nil)

		publisher := new(testhelpers.MockLeaderboardPublisher)
		publisher.On("PublishWeekly", context.Background(), int64(555), channelID, mock.Anything).Return(errors.New("channel gone"))

		s := NewRotationScheduler(&testhelpers.FakeUnitOfWorkFactory{UoW: uow}, publisher)
		s.rotate(context.Background(), 555)

		assert.False(t, uow.Committed)
		assert.True(t, uow.RolledBack)
		uow.Accounts.AssertNotCalled(t, "ResetWeekly", context.Background())
	})

	t.Run("no leaderboard channel skips the rotation", func(t *testing.T) {
		t.Parallel()

		uow := testhelpers.NewFakeUnitOfWork()
		uow.Configs.On("GetOrCreate", context.Background(), int64(555)).Return(&entities.GuildConfig{GuildID: 555}, nil)

		publisher := new(testhelpers.MockLeaderboardPublisher)

		s := NewRotationScheduler(&testhelpers.FakeUnitOfWorkFactory{UoW: uow}, publisher)
		s.rotate(context.Background(), 555)

		assert.False(t, uow.Committed)
		publisher.AssertNotCalled(t, "PublishWeekly", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		uow.Accounts.AssertNotCalled(t, "ResetWeekly", context.Background())
	})
}
