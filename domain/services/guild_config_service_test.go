package services

import (
	"context"
	"testing"

	"meritbot/domain/entities"
	"meritbot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildConfigService_PartialUpdates(t *testing.T) {
	t.Parallel()

	t.Run("updating the mod role patches only that field", func(t *testing.T) {
		t.Parallel()

		roleID := int64(987654321)
		configRepo := new(testhelpers.MockGuildConfigRepository)
		configRepo.On("Upsert", context.Background(), int64(555), entities.GuildConfigPatch{
			ModRoleID: &roleID,
		}).Return(&entities.GuildConfig{GuildID: 555, ModRoleID: &roleID}, nil)

		service := NewGuildConfigService(configRepo)

		err := service.UpdateModRole(context.Background(), 555, &roleID)
		require.NoError(t, err)
		configRepo.AssertExpectations(t)
	})

	t.Run("updating the welcome message patches title and content together", func(t *testing.T) {
		t.Parallel()

		title := "Welcome {user}!"
		content := "You are member #{memberCount} of {server}."
		configRepo := new(testhelpers.MockGuildConfigRepository)
		configRepo.On("Upsert", context.Background(), int64(555), entities.GuildConfigPatch{
			WelcomeTitle:   &title,
			WelcomeContent: &content,
		}).Return(&entities.GuildConfig{GuildID: 555}, nil)

		service := NewGuildConfigService(configRepo)

		err := service.UpdateWelcomeMessage(context.Background(), 555, title, content)
		require.NoError(t, err)
		configRepo.AssertExpectations(t)
	})

	t.Run("nil channel patch leaves the stored value untouched", func(t *testing.T) {
		t.Parallel()

		configRepo := new(testhelpers.MockGuildConfigRepository)
		configRepo.On("Upsert", context.Background(), int64(555), entities.GuildConfigPatch{
			LeaderboardChannelID: nil,
		}).Return(&entities.GuildConfig{GuildID: 555}, nil)

		service := NewGuildConfigService(configRepo)

		err := service.UpdateLeaderboardChannel(context.Background(), 555, nil)
		require.NoError(t, err)
		configRepo.AssertExpectations(t)
	})
}

func TestGuildConfigService_UpdateRotationSchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{
			name: "weekly sunday midnight",
			expr: "0 0 * * 0",
		},
		{
			name: "every monday at nine thirty",
			expr: "30 9 * * 1",
		},
		{
			name:    "six fields rejected",
			expr:    "0 0 0 * * 0",
			wantErr: true,
		},
		{
			name:    "garbage rejected",
			expr:    "whenever",
			wantErr: true,
		},
		{
			name:    "out of range minute rejected",
			expr:    "61 0 * * 0",
			wantErr: true,
		},
		{
			name:    "empty expression rejected",
			expr:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			configRepo := new(testhelpers.MockGuildConfigRepository)
			if !tt.wantErr {
				expr := tt.expr
				configRepo.On("Upsert", context.Background(), int64(555), entities.GuildConfigPatch{
					RotationSchedule: &expr,
				}).Return(&entities.GuildConfig{GuildID: 555, RotationSchedule: &expr}, nil)
			}

			service := NewGuildConfigService(configRepo)

			err := service.UpdateRotationSchedule(context.Background(), 555, tt.expr)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, entities.ErrInvalidScheduleExpression)
				// A rejected expression must never reach storage
				configRepo.AssertNotCalled(t, "Upsert", context.Background(), int64(555), entities.GuildConfigPatch{RotationSchedule: &tt.expr})
			} else {
				require.NoError(t, err)
			}
			configRepo.AssertExpectations(t)
		})
	}
}
