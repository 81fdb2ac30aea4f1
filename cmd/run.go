package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"meritbot/bot"
	"meritbot/config"
	"meritbot/database"
	"meritbot/domain/events"
	"meritbot/repository"
	"meritbot/scheduler"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting merit bot...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	// Initialize event bus and unit of work factory
	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize Discord bot
	log.Info("Initializing Discord bot...")
	discordBot, err := bot.New(bot.Config{Token: cfg.DiscordToken}, uowFactory, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Info("Discord bot initialized")

	// Arm per-guild weekly rotation timers from the stored schedules. The
	// scheduler publishes leaderboards through the bot's merits feature.
	rotations := scheduler.NewRotationScheduler(uowFactory, discordBot.WeeklyPublisher())
	if err := rotations.Bootstrap(ctx, repository.NewGuildConfigRepository(db)); err != nil {
		return fmt.Errorf("failed to bootstrap rotation timers: %w", err)
	}
	rotations.Start()
	discordBot.AttachScheduler(rotations)
	log.Info("Rotation scheduler started")

	// Wait for context cancellation
	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down bot...")

	rotations.Stop()

	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Info("Shutdown completed")
	}

	return nil
}
