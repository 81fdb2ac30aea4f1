package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"meritbot/domain/entities"
	"meritbot/domain/events"
	"meritbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_ApplyAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		kind        entities.ActionKind
		setupMocks  func(*testhelpers.MockMeritAccountRepository, *testhelpers.MockActionLogRepository, *testhelpers.MockEventPublisher)
		want        *entities.DeclareResult
		wantErr     error
		errContains string
	}{
		{
			name: "kick credits five points and records the action",
			kind: entities.ActionKick,
			setupMocks: func(accounts *testhelpers.MockMeritAccountRepository, actionLog *testhelpers.MockActionLogRepository, publisher *testhelpers.MockEventPublisher) {
				accounts.On("Credit", context.Background(), int64(100), int64(5)).Return(&entities.MeritAccount{
					UserID:       100,
					GuildID:      555,
					TotalPoints:  42,
					WeeklyPoints: 7,
				}, nil)
				actionLog.On("Record", context.Background(), mock.MatchedBy(func(r *entities.ActionRecord) bool {
					return r.ActorID == 100 &&
						r.GuildID == 555 &&
						r.Kind == entities.ActionKick &&
						r.Points == 5 &&
						r.WeekNumber == entities.WeekNumber(time.Now())
				})).Return(nil)
				publisher.On("Publish", mock.MatchedBy(func(e events.MeritCreditedEvent) bool {
					return e.ActorID == 100 && e.Points == 5 && e.TargetID == 200
				})).Return()
			},
			want: &entities.DeclareResult{
				PointsAwarded:  5,
				NewTotal:       42,
				NewWeeklyTotal: 7,
			},
		},
		{
			name:       "unknown kind aborts before any mutation",
			kind:       entities.ActionKind("SHADOWREALM"),
			setupMocks: func(*testhelpers.MockMeritAccountRepository, *testhelpers.MockActionLogRepository, *testhelpers.MockEventPublisher) {},
			wantErr:    entities.ErrUnknownActionKind,
		},
		{
			name: "credit failure does not record or publish",
			kind: entities.ActionWarn,
			setupMocks: func(accounts *testhelpers.MockMeritAccountRepository, actionLog *testhelpers.MockActionLogRepository, publisher *testhelpers.MockEventPublisher) {
				accounts.On("Credit", context.Background(), int64(100), int64(2)).Return((*entities.MeritAccount)(nil), errors.New("connection refused"))
			},
			errContains: "failed to credit 2 points to actor 100",
		},
		{
			name: "record failure surfaces without publishing",
			kind: entities.ActionBan,
			setupMocks: func(accounts *testhelpers.MockMeritAccountRepository, actionLog *testhelpers.MockActionLogRepository, publisher *testhelpers.MockEventPublisher) {
				accounts.On("Credit", context.Background(), int64(100), int64(10)).Return(&entities.MeritAccount{
					UserID:       100,
					GuildID:      555,
					TotalPoints:  10,
					WeeklyPoints: 10,
				}, nil)
				actionLog.On("Record", context.Background(), mock.Anything).Return(errors.New("insert failed"))
			},
			errContains: "failed to record action BAN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accounts := new(testhelpers.MockMeritAccountRepository)
			actionLog := new(testhelpers.MockActionLogRepository)
			publisher := new(testhelpers.MockEventPublisher)
			tt.setupMocks(accounts, actionLog, publisher)

			service := NewLedgerService(accounts, actionLog, publisher)

			got, err := service.ApplyAction(context.Background(), 100, tt.kind, 200, "spamming invites")

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, got)
				publisher.AssertNotCalled(t, "Publish", mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			accounts.AssertExpectations(t)
			actionLog.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestLedgerService_ApplyAction_PointConservation(t *testing.T) {
	t.Parallel()

	// The points awarded must equal the catalog value for the kind, and the
	// audit record must snapshot exactly that value.
	accounts := new(testhelpers.MockMeritAccountRepository)
	actionLog := new(testhelpers.MockActionLogRepository)
	publisher := new(testhelpers.MockEventPublisher)

	total := int64(0)
	for _, tc := range []struct {
		kind   entities.ActionKind
		points int64
	}{
		{entities.ActionWarn, 2},
		{entities.ActionMute, 3},
		{entities.ActionKick, 5},
		{entities.ActionBan, 10},
		{entities.ActionWelcome, 1},
		{entities.ActionReport, 2},
	} {
		total += tc.points
		accounts.On("Credit", context.Background(), int64(7), tc.points).Return(&entities.MeritAccount{
			UserID:       7,
			GuildID:      555,
			TotalPoints:  total,
			WeeklyPoints: total,
		}, nil).Once()
	}
	actionLog.On("Record", context.Background(), mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything).Return()

	service := NewLedgerService(accounts, actionLog, publisher)

	var awarded int64
	for _, kind := range []entities.ActionKind{
		entities.ActionWarn, entities.ActionMute, entities.ActionKick,
		entities.ActionBan, entities.ActionWelcome, entities.ActionReport,
	} {
		result, err := service.ApplyAction(context.Background(), 7, kind, 0, "")
		require.NoError(t, err)
		awarded += result.PointsAwarded
	}

	assert.Equal(t, total, awarded, "sum of awards must match sum of catalog values")
	accounts.AssertExpectations(t)
}

func TestLedgerService_CreditPassiveMessage(t *testing.T) {
	t.Parallel()

	t.Run("credits the current message rate", func(t *testing.T) {
		t.Parallel()

		accounts := new(testhelpers.MockMeritAccountRepository)
		accounts.On("Credit", context.Background(), int64(42), int64(1)).Return(&entities.MeritAccount{
			UserID:      42,
			GuildID:     555,
			TotalPoints: 1,
		}, nil)

		service := NewLedgerService(accounts, new(testhelpers.MockActionLogRepository), new(testhelpers.MockEventPublisher))

		err := service.CreditPassiveMessage(context.Background(), 42)
		require.NoError(t, err)
		accounts.AssertExpectations(t)
	})

	t.Run("repository failure is wrapped", func(t *testing.T) {
		t.Parallel()

		accounts := new(testhelpers.MockMeritAccountRepository)
		accounts.On("Credit", context.Background(), int64(42), int64(1)).Return((*entities.MeritAccount)(nil), errors.New("timeout"))

		service := NewLedgerService(accounts, new(testhelpers.MockActionLogRepository), new(testhelpers.MockEventPublisher))

		err := service.CreditPassiveMessage(context.Background(), 42)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to credit message activity for actor 42")
	})
}
