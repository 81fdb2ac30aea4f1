package services

import (
	"context"
	"fmt"

	"meritbot/domain/entities"
	"meritbot/domain/interfaces"

	"github.com/robfig/cron/v3"
)

// guildConfigService implements the GuildConfigService interface
type guildConfigService struct {
	configRepo interfaces.GuildConfigRepository
}

// NewGuildConfigService creates a new guild config service
func NewGuildConfigService(configRepo interfaces.GuildConfigRepository) interfaces.GuildConfigService {
	return &guildConfigService{configRepo: configRepo}
}

// GetOrCreate retrieves guild config or creates a default row if not found
func (s *guildConfigService) GetOrCreate(ctx context.Context, guildID int64) (*entities.GuildConfig, error) {
	config, err := s.configRepo.GetOrCreate(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create guild config: %w", err)
	}
	return config, nil
}

// UpdateModRole updates the moderator role for a guild
func (s *guildConfigService) UpdateModRole(ctx context.Context, guildID int64, roleID *int64) error {
	return s.patch(ctx, guildID, entities.GuildConfigPatch{ModRoleID: roleID})
}

// UpdateLeaderboardChannel updates the leaderboard channel for a guild
func (s *guildConfigService) UpdateLeaderboardChannel(ctx context.Context, guildID int64, channelID *int64) error {
	return s.patch(ctx, guildID, entities.GuildConfigPatch{LeaderboardChannelID: channelID})
}

// UpdateWelcomeChannel updates the welcome channel for a guild
func (s *guildConfigService) UpdateWelcomeChannel(ctx context.Context, guildID int64, channelID *int64) error {
	return s.patch(ctx, guildID, entities.GuildConfigPatch{WelcomeChannelID: channelID})
}

// UpdateWelcomeMessage updates the welcome template title and body
func (s *guildConfigService) UpdateWelcomeMessage(ctx context.Context, guildID int64, title, content string) error {
	return s.patch(ctx, guildID, entities.GuildConfigPatch{
		WelcomeTitle:   &title,
		WelcomeContent: &content,
	})
}

// UpdateWelcomeImage updates the welcome image reference
func (s *guildConfigService) UpdateWelcomeImage(ctx context.Context, guildID int64, imageURL string) error {
	return s.patch(ctx, guildID, entities.GuildConfigPatch{WelcomeImage: &imageURL})
}

// UpdateRotationSchedule validates and stores a rotation schedule expression.
// Validation comes first: a malformed expression is rejected before anything
// is persisted, so the running timer is never swapped for a broken one.
func (s *guildConfigService) UpdateRotationSchedule(ctx context.Context, guildID int64, expr string) error {
	if err := ValidateSchedule(expr); err != nil {
		return err
	}
	return s.patch(ctx, guildID, entities.GuildConfigPatch{RotationSchedule: &expr})
}

func (s *guildConfigService) patch(ctx context.Context, guildID int64, patch entities.GuildConfigPatch) error {
	if _, err := s.configRepo.Upsert(ctx, guildID, patch); err != nil {
		return fmt.Errorf("failed to update guild config: %w", err)
	}
	return nil
}

// ValidateSchedule checks a 5-field cron expression (minute, hour,
// day-of-month, month, day-of-week)
func ValidateSchedule(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("%w: %q: %v", entities.ErrInvalidScheduleExpression, expr, err)
	}
	return nil
}
