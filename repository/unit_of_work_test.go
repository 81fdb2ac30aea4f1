package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"meritbot/domain/entities"
	"meritbot/domain/events"
	"meritbot/domain/services"
	"meritbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitAppliesActionAtomically(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	var mu sync.Mutex
	var received []events.Event
	bus.Subscribe(events.EventTypeMeritCredited, func(ctx context.Context, e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e)
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	uow := factory.CreateForGuild(testGuildID)
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	ledger := services.NewLedgerService(
		uow.MeritAccountRepository(),
		uow.ActionLogRepository(),
		uow.EventBus(),
	)

	result, err := ledger.ApplyAction(ctx, 100, entities.ActionKick, 200, "spamming")
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.PointsAwarded)

	// Nothing is visible or emitted before the commit
	outside := NewMeritAccountRepository(testDB.DB, testGuildID)
	account, err := outside.Get(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, account)
	mu.Lock()
	assert.Empty(t, received)
	mu.Unlock()

	require.NoError(t, uow.Commit())

	account, err = outside.Get(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, int64(5), account.TotalPoints)

	outsideLog := NewActionLogRepository(testDB.DB, testGuildID)
	records, err := outsideLog.ListByActor(ctx, 100, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entities.ActionKick, records[0].Kind)
	assert.Equal(t, int64(5), records[0].Points)

	// Handlers run asynchronously after the flush
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUnitOfWork_RollbackDiscardsEverything(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	var mu sync.Mutex
	emitted := 0
	bus.Subscribe(events.EventTypeMeritCredited, func(ctx context.Context, e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		emitted++
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	uow := factory.CreateForGuild(testGuildID)
	require.NoError(t, uow.Begin(ctx))

	ledger := services.NewLedgerService(
		uow.MeritAccountRepository(),
		uow.ActionLogRepository(),
		uow.EventBus(),
	)

	_, err := ledger.ApplyAction(ctx, 100, entities.ActionBan, 200, "")
	require.NoError(t, err)

	require.NoError(t, uow.Rollback())

	outside := NewMeritAccountRepository(testDB.DB, testGuildID)
	account, err := outside.Get(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, account)

	outsideLog := NewActionLogRepository(testDB.DB, testGuildID)
	records, err := outsideLog.ListByActor(ctx, 100, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	// Discarded events never reach subscribers
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Zero(t, emitted)
	mu.Unlock()
}

func TestReportRecipientRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := NewReportRecipientRepository(testDB.DB, testGuildID)

	t.Run("add, list and remove", func(t *testing.T) {
		require.NoError(t, repo.Add(ctx, 1))
		require.NoError(t, repo.Add(ctx, 2))
		// Duplicate subscription is a no-op
		require.NoError(t, repo.Add(ctx, 1))

		recipients, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, recipients, 2)

		require.NoError(t, repo.Remove(ctx, 1))
		recipients, err = repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, recipients, 1)
		assert.Equal(t, int64(2), recipients[0].UserID)

		// Removing an absent recipient is a no-op
		require.NoError(t, repo.Remove(ctx, 99))
	})

	t.Run("scoped to its guild", func(t *testing.T) {
		otherRepo := NewReportRecipientRepository(testDB.DB, testGuildID+1)
		recipients, err := otherRepo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, recipients)
	})
}
