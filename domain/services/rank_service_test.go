package services

import (
	"context"
	"errors"
	"testing"

	"meritbot/domain/entities"
	"meritbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankService_TopN(t *testing.T) {
	t.Parallel()

	t.Run("ranks follow repository ordering", func(t *testing.T) {
		t.Parallel()

		accounts := new(testhelpers.MockMeritAccountRepository)
		accounts.On("TopN", context.Background(), entities.FieldWeekly, 10).Return([]*entities.MeritAccount{
			{UserID: 1, WeeklyPoints: 100},
			{UserID: 2, WeeklyPoints: 100},
			{UserID: 3, WeeklyPoints: 50},
		}, nil)

		service := NewRankService(accounts)

		got, err := service.TopN(context.Background(), entities.FieldWeekly, 10)
		require.NoError(t, err)

		want := []entities.Standing{
			{Rank: 1, UserID: 1, Points: 100},
			{Rank: 2, UserID: 2, Points: 100},
			{Rank: 3, UserID: 3, Points: 50},
		}
		assert.Equal(t, want, got)
	})

	t.Run("tied scores keep a deterministic order", func(t *testing.T) {
		t.Parallel()

		// The repository breaks ties by account creation order, so two
		// queries over the same data must return identical standings.
		rows := []*entities.MeritAccount{
			{UserID: 11, TotalPoints: 100},
			{UserID: 12, TotalPoints: 100},
			{UserID: 13, TotalPoints: 50},
		}
		accounts := new(testhelpers.MockMeritAccountRepository)
		accounts.On("TopN", context.Background(), entities.FieldTotal, 3).Return(rows, nil)

		service := NewRankService(accounts)

		first, err := service.TopN(context.Background(), entities.FieldTotal, 3)
		require.NoError(t, err)
		second, err := service.TopN(context.Background(), entities.FieldTotal, 3)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("empty board yields empty standings", func(t *testing.T) {
		t.Parallel()

		accounts := new(testhelpers.MockMeritAccountRepository)
		accounts.On("TopN", context.Background(), entities.FieldTotal, 10).Return([]*entities.MeritAccount{}, nil)

		service := NewRankService(accounts)

		got, err := service.TopN(context.Background(), entities.FieldTotal, 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("repository error is wrapped", func(t *testing.T) {
		t.Parallel()

		accounts := new(testhelpers.MockMeritAccountRepository)
		accounts.On("TopN", context.Background(), entities.FieldTotal, 10).Return(([]*entities.MeritAccount)(nil), errors.New("query failed"))

		service := NewRankService(accounts)

		got, err := service.TopN(context.Background(), entities.FieldTotal, 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query top 10 by total")
		assert.Nil(t, got)
	})
}

func TestRankService_RankOf(t *testing.T) {
	t.Parallel()

	board := []*entities.MeritAccount{
		{UserID: 1, TotalPoints: 100},
		{UserID: 2, TotalPoints: 100},
		{UserID: 3, TotalPoints: 50},
		{UserID: 4, TotalPoints: 50},
		{UserID: 5, TotalPoints: 10},
	}

	tests := []struct {
		name   string
		userID int64
		rows   []*entities.MeritAccount
		want   int
	}{
		{
			name:   "top score shares rank one",
			userID: 2,
			rows:   board,
			want:   1,
		},
		{
			name:   "dense ranks skip no numbers",
			userID: 4,
			rows:   board,
			want:   2,
		},
		{
			name:   "lowest unique score",
			userID: 5,
			rows:   board,
			want:   3,
		},
		{
			name:   "absent user ranks after everyone with points",
			userID: 999,
			rows:   board,
			want:   4,
		},
		{
			name:   "absent user shares an existing zero tier",
			userID: 999,
			rows: []*entities.MeritAccount{
				{UserID: 1, TotalPoints: 10},
				{UserID: 2, TotalPoints: 0},
			},
			want: 2,
		},
		{
			name:   "empty board ranks the user first",
			userID: 999,
			rows:   []*entities.MeritAccount{},
			want:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			accounts := new(testhelpers.MockMeritAccountRepository)
			accounts.On("GetAll", context.Background(), entities.FieldTotal).Return(tt.rows, nil)

			service := NewRankService(accounts)

			got, err := service.RankOf(context.Background(), tt.userID, entities.FieldTotal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
