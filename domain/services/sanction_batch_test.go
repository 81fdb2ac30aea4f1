package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"meritbot/domain/entities"
	"meritbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func batchKey(operatorID, targetID int64) BatchKey {
	return BatchKey{GuildID: 555, OperatorID: operatorID, TargetID: targetID}
}

func TestSanctionBatchArena_Add(t *testing.T) {
	t.Parallel()

	t.Run("accumulates kinds in selection order", func(t *testing.T) {
		t.Parallel()

		arena := NewSanctionBatchArena()
		key := batchKey(100, 200)

		size, err := arena.Add(key, entities.ActionWarn)
		require.NoError(t, err)
		assert.Equal(t, 1, size)

		size, err = arena.Add(key, entities.ActionBan)
		require.NoError(t, err)
		assert.Equal(t, 2, size)

		assert.Equal(t, []entities.ActionKind{entities.ActionWarn, entities.ActionBan}, arena.Kinds(key))
	})

	t.Run("duplicate kinds count separately", func(t *testing.T) {
		t.Parallel()

		arena := NewSanctionBatchArena()
		key := batchKey(100, 200)

		for i := 0; i < 3; i++ {
			_, err := arena.Add(key, entities.ActionWarn)
			require.NoError(t, err)
		}
		assert.Len(t, arena.Kinds(key), 3)
	})

	t.Run("unknown kind is rejected without creating a batch", func(t *testing.T) {
		t.Parallel()

		arena := NewSanctionBatchArena()
		key := batchKey(100, 200)

		_, err := arena.Add(key, entities.ActionKind("DEFENESTRATE"))
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrUnknownActionKind)
		assert.Nil(t, arena.Kinds(key))
	})

	t.Run("batches with different keys never merge", func(t *testing.T) {
		t.Parallel()

		arena := NewSanctionBatchArena()

		// Same target, two operators
		_, err := arena.Add(batchKey(100, 200), entities.ActionWarn)
		require.NoError(t, err)
		_, err = arena.Add(batchKey(101, 200), entities.ActionBan)
		require.NoError(t, err)

		// Same operator, two targets
		_, err = arena.Add(batchKey(100, 201), entities.ActionMute)
		require.NoError(t, err)

		assert.Equal(t, []entities.ActionKind{entities.ActionWarn}, arena.Kinds(batchKey(100, 200)))
		assert.Equal(t, []entities.ActionKind{entities.ActionBan}, arena.Kinds(batchKey(101, 200)))
		assert.Equal(t, []entities.ActionKind{entities.ActionMute}, arena.Kinds(batchKey(100, 201)))
	})
}

func TestSanctionBatchArena_Cancel(t *testing.T) {
	t.Parallel()

	arena := NewSanctionBatchArena()
	key := batchKey(100, 200)

	_, err := arena.Add(key, entities.ActionKick)
	require.NoError(t, err)

	arena.Cancel(key)
	assert.Nil(t, arena.Kinds(key))

	// Cancelling an absent batch is a no-op
	arena.Cancel(key)
}

func TestSanctionBatchArena_Sweep(t *testing.T) {
	t.Parallel()

	arena := NewSanctionBatchArena()
	stale := batchKey(100, 200)
	fresh := batchKey(100, 201)

	_, err := arena.Add(stale, entities.ActionWarn)
	require.NoError(t, err)

	// Age the first batch past the TTL by hand
	arena.mu.Lock()
	arena.batches[stale].updatedAt = time.Now().Add(-20 * time.Minute)
	arena.mu.Unlock()

	_, err = arena.Add(fresh, entities.ActionWarn)
	require.NoError(t, err)

	removed := arena.Sweep(15 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.Nil(t, arena.Kinds(stale))
	assert.NotNil(t, arena.Kinds(fresh))
}

func TestSanctionService_Commit(t *testing.T) {
	t.Parallel()

	newPublisher := func() *testhelpers.MockEventPublisher {
		publisher := new(testhelpers.MockEventPublisher)
		publisher.On("Publish", mock.Anything).Return().Maybe()
		return publisher
	}

	t.Run("commit applies every accumulated kind and clears the batch", func(t *testing.T) {
		t.Parallel()

		arena := NewSanctionBatchArena()
		key := batchKey(100, 200)
		_, err := arena.Add(key, entities.ActionWarn)
		require.NoError(t, err)
		_, err = arena.Add(key, entities.ActionBan)
		require.NoError(t, err)

		accounts := new(testhelpers.MockMeritAccountRepository)
		accounts.On("Credit", context.Background(), int64(100), int64(2)).Return(&entities.MeritAccount{
			UserID: 100, GuildID: 555, TotalPoints: 2, WeeklyPoints: 2,
		}, nil)
		accounts.On("Credit", context.Background(), int64(100), int64(10)).Return(&entities.MeritAccount{
			UserID: 100, GuildID: 555, TotalPoints: 12, WeeklyPoints: 12,
		}, nil)
		actionLog := new(testhelpers.MockActionLogRepository)
		actionLog.On("Record", context.Background(), mock.Anything).Return(nil)
		publisher := newPublisher()

		service := NewSanctionService(arena, NewLedgerService(accounts, actionLog, publisher))

		result, err := service.Commit(context.Background(), key, "rule 3")
		require.NoError(t, err)
		assert.Equal(t, int64(12), result.TotalAwarded)
		assert.Equal(t, []entities.ActionAward{
			{Kind: entities.ActionWarn, Points: 2},
			{Kind: entities.ActionBan, Points: 10},
		}, result.Breakdown)

		// A committed batch is gone; a second commit has nothing to apply
		_, err = service.Commit(context.Background(), key, "rule 3")
		assert.ErrorIs(t, err, entities.ErrEmptyBatch)
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		t.Parallel()

		arena := NewSanctionBatchArena()
		accounts := new(testhelpers.MockMeritAccountRepository)
		actionLog := new(testhelpers.MockActionLogRepository)
		publisher := newPublisher()

		service := NewSanctionService(arena, NewLedgerService(accounts, actionLog, publisher))

		result, err := service.Commit(context.Background(), batchKey(100, 200), "")
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrEmptyBatch)
		assert.Nil(t, result)
		accounts.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed commit keeps the batch for retry", func(t *testing.T) {
		t.Parallel()

		arena := NewSanctionBatchArena()
		key := batchKey(100, 200)
		_, err := arena.Add(key, entities.ActionWarn)
		require.NoError(t, err)
		_, err = arena.Add(key, entities.ActionKick)
		require.NoError(t, err)

		accounts := new(testhelpers.MockMeritAccountRepository)
		accounts.On("Credit", context.Background(), int64(100), int64(2)).Return(&entities.MeritAccount{
			UserID: 100, GuildID: 555, TotalPoints: 2, WeeklyPoints: 2,
		}, nil)
		accounts.On("Credit", context.Background(), int64(100), int64(5)).Return((*entities.MeritAccount)(nil), errors.New("connection reset"))
		actionLog := new(testhelpers.MockActionLogRepository)
		actionLog.On("Record", context.Background(), mock.Anything).Return(nil)
		publisher := newPublisher()

		service := NewSanctionService(arena, NewLedgerService(accounts, actionLog, publisher))

		result, err := service.Commit(context.Background(), key, "")
		require.Error(t, err)
		assert.Nil(t, result)

		// The accumulated kinds survive for a retry or cancel
		assert.Equal(t, []entities.ActionKind{entities.ActionWarn, entities.ActionKick}, arena.Kinds(key))
	})
}
