package scheduler

import (
	"context"
	"fmt"
	"sync"

	"meritbot/domain/entities"
	"meritbot/domain/events"
	"meritbot/domain/interfaces"
	"meritbot/domain/services"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// RotationScheduler runs each guild's weekly rotation on its configured cron
// schedule: publish the weekly top standings, then zero the weekly counters.
// One shared cron runner carries a timer per guild.
type RotationScheduler struct {
	cron       *cron.Cron
	uowFactory interfaces.UnitOfWorkFactory
	publisher  interfaces.LeaderboardPublisher

	mu      sync.Mutex
	entries map[int64]cron.EntryID
}

// NewRotationScheduler creates a rotation scheduler. Call Start to begin
// firing timers.
func NewRotationScheduler(uowFactory interfaces.UnitOfWorkFactory, publisher interfaces.LeaderboardPublisher) *RotationScheduler {
	return &RotationScheduler{
		cron:       cron.New(),
		uowFactory: uowFactory,
		publisher:  publisher,
		entries:    make(map[int64]cron.EntryID),
	}
}

// Start begins firing scheduled rotations
func (s *RotationScheduler) Start() {
	s.cron.Start()
	log.Info("Rotation scheduler started")
}

// Stop stops the scheduler and waits for a running rotation to finish
func (s *RotationScheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("Rotation scheduler stopped")
}

// Bootstrap installs a timer for every guild that has a config row, using
// each guild's stored schedule. A guild whose stored expression no longer
// parses keeps running on the default schedule rather than silently losing
// its rotation.
func (s *RotationScheduler) Bootstrap(ctx context.Context, configRepo interfaces.GuildConfigRepository) error {
	guildIDs, err := configRepo.ListGuildIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list guilds for rotation bootstrap: %w", err)
	}

	for _, guildID := range guildIDs {
		config, err := configRepo.GetOrCreate(ctx, guildID)
		if err != nil {
			return fmt.Errorf("failed to load config for guild %d: %w", guildID, err)
		}

		if err := s.Set(guildID, config.Schedule()); err != nil {
			log.WithFields(log.Fields{
				"guildID":  guildID,
				"schedule": config.Schedule(),
			}).Warnf("Stored schedule invalid, falling back to default: %v", err)
			if err := s.Set(guildID, entities.DefaultRotationSchedule); err != nil {
				return fmt.Errorf("failed to install default schedule for guild %d: %w", guildID, err)
			}
		}
	}

	log.WithField("guildCount", len(guildIDs)).Info("Rotation timers installed")
	return nil
}

// Set installs or replaces the guild's rotation timer. The expression is
// parsed before anything is touched: a malformed one returns
// entities.ErrInvalidScheduleExpression and the running timer keeps firing
// on its old schedule.
func (s *RotationScheduler) Set(guildID int64, expr string) error {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", entities.ErrInvalidScheduleExpression, expr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[guildID]; ok {
		s.cron.Remove(old)
	}

	s.entries[guildID] = s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.rotate(context.Background(), guildID)
	}))

	log.WithFields(log.Fields{
		"guildID":  guildID,
		"schedule": expr,
	}).Info("Rotation timer set")
	return nil
}

// Remove drops the guild's timer, if any
func (s *RotationScheduler) Remove(guildID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[guildID]; ok {
		s.cron.Remove(old)
		delete(s.entries, guildID)
	}
}

// HasTimer reports whether a timer is installed for the guild
func (s *RotationScheduler) HasTimer(guildID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[guildID]
	return ok
}

// rotate runs one weekly rotation for a guild. The publish happens before
// the reset: if the standings cannot be delivered the counters stay intact
// and the rotation is retried on the next fire.
func (s *RotationScheduler) rotate(ctx context.Context, guildID int64) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning rotation transaction for guild %d: %v", guildID, err)
		return
	}
	defer uow.Rollback()

	config, err := uow.GuildConfigRepository().GetOrCreate(ctx, guildID)
	if err != nil {
		log.Errorf("Error loading config for guild %d rotation: %v", guildID, err)
		return
	}

	if !config.HasLeaderboardChannel() {
		log.WithField("guildID", guildID).Debug("No leaderboard channel configured, skipping rotation")
		return
	}

	rankService := services.NewRankService(uow.MeritAccountRepository())
	standings, err := rankService.TopN(ctx, entities.FieldWeekly, 10)
	if err != nil {
		log.Errorf("Error loading weekly standings for guild %d: %v", guildID, err)
		return
	}

	if err := s.publisher.PublishWeekly(ctx, guildID, *config.LeaderboardChannelID, standings); err != nil {
		// Counters stay intact so the next fire retries the same week
		log.Errorf("Error publishing weekly standings for guild %d, reset skipped: %v", guildID, err)
		return
	}

	if err := uow.MeritAccountRepository().ResetWeekly(ctx); err != nil {
		log.Errorf("Error resetting weekly points for guild %d: %v", guildID, err)
		return
	}

	uow.EventBus().Publish(events.WeeklyResetEvent{GuildID: guildID})

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing rotation for guild %d: %v", guildID, err)
		return
	}

	log.WithFields(log.Fields{
		"guildID":   guildID,
		"standings": len(standings),
	}).Info("Weekly rotation completed")
}
