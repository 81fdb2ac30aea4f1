package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"meritbot/domain/entities"
	"meritbot/domain/interfaces"
	"meritbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_Dispatch(t *testing.T) {
	t.Parallel()

	report := interfaces.ActionReport{
		GuildID:  555,
		ActorID:  100,
		Kind:     entities.ActionBan,
		Points:   10,
		TargetID: 200,
		Reason:   "repeated raids",
	}

	t.Run("delivers to every recipient", func(t *testing.T) {
		t.Parallel()

		recipients := new(testhelpers.MockReportRecipientRepository)
		recipients.On("List", context.Background()).Return([]*entities.ReportRecipient{
			{UserID: 1}, {UserID: 2}, {UserID: 3},
		}, nil)

		deliverer := new(testhelpers.MockReportDeliverer)
		for _, id := range []int64{1, 2, 3} {
			deliverer.On("DeliverReport", context.Background(), id, report).Return(nil)
		}

		service := NewReportService(recipients, deliverer)

		result, err := service.Dispatch(context.Background(), report)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Delivered)
		assert.Empty(t, result.Pruned)
		assert.Zero(t, result.Failed)
		deliverer.AssertExpectations(t)
	})

	t.Run("blocked recipient is pruned and the fan-out continues", func(t *testing.T) {
		t.Parallel()

		recipients := new(testhelpers.MockReportRecipientRepository)
		recipients.On("List", context.Background()).Return([]*entities.ReportRecipient{
			{UserID: 1}, {UserID: 2}, {UserID: 3},
		}, nil)
		recipients.On("Remove", context.Background(), int64(2)).Return(nil)

		deliverer := new(testhelpers.MockReportDeliverer)
		deliverer.On("DeliverReport", context.Background(), int64(1), report).Return(nil)
		deliverer.On("DeliverReport", context.Background(), int64(2), report).Return(
			fmt.Errorf("dm closed: %w", entities.ErrRecipientBlocked))
		deliverer.On("DeliverReport", context.Background(), int64(3), report).Return(nil)

		service := NewReportService(recipients, deliverer)

		result, err := service.Dispatch(context.Background(), report)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Delivered)
		assert.Equal(t, []int64{2}, result.Pruned)
		assert.Zero(t, result.Failed)
		recipients.AssertExpectations(t)
	})

	t.Run("transient delivery failure counts as failed without pruning", func(t *testing.T) {
		t.Parallel()

		recipients := new(testhelpers.MockReportRecipientRepository)
		recipients.On("List", context.Background()).Return([]*entities.ReportRecipient{
			{UserID: 1}, {UserID: 2},
		}, nil)

		deliverer := new(testhelpers.MockReportDeliverer)
		deliverer.On("DeliverReport", context.Background(), int64(1), report).Return(errors.New("rate limited"))
		deliverer.On("DeliverReport", context.Background(), int64(2), report).Return(nil)

		service := NewReportService(recipients, deliverer)

		result, err := service.Dispatch(context.Background(), report)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Delivered)
		assert.Equal(t, 1, result.Failed)
		assert.Empty(t, result.Pruned)
		recipients.AssertNotCalled(t, "Remove", context.Background(), int64(1))
	})

	t.Run("listing failure aborts the dispatch", func(t *testing.T) {
		t.Parallel()

		recipients := new(testhelpers.MockReportRecipientRepository)
		recipients.On("List", context.Background()).Return(([]*entities.ReportRecipient)(nil), errors.New("query failed"))

		service := NewReportService(recipients, new(testhelpers.MockReportDeliverer))

		result, err := service.Dispatch(context.Background(), report)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list report recipients for guild 555")
		assert.Nil(t, result)
	})
}
