package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"meritbot/bot/common"
	"meritbot/bot/features/dashboard"
	"meritbot/bot/features/discipline"
	"meritbot/bot/features/merits"
	"meritbot/bot/features/reports"
	"meritbot/bot/features/settings"
	"meritbot/bot/features/welcome"
	"meritbot/domain/catalog"
	"meritbot/domain/events"
	"meritbot/domain/interfaces"
	"meritbot/domain/services"
	"meritbot/scheduler"
)

// Config holds bot configuration
type Config struct {
	Token string
}

// Bot manages the Discord session and all feature modules
type Bot struct {
	// Core components
	config     Config
	session    *discordgo.Session
	uowFactory interfaces.UnitOfWorkFactory
	bus        *events.Bus
	arena      *services.SanctionBatchArena
	dispatcher *Dispatcher
	rotations  *scheduler.RotationScheduler

	// Feature modules
	dashboard  *dashboard.Feature
	discipline *discipline.Feature
	merits     *merits.Feature
	settings   *settings.Feature
	welcome    *welcome.Feature

	// Passive message crediting
	cooldowns *cooldownTracker

	// Worker cleanup functions
	stopJanitorWorker func()
}

// New creates a bot instance with all features wired and the session open
func New(config Config, uowFactory interfaces.UnitOfWorkFactory, bus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAllWithoutPrivileged |
		discordgo.IntentsGuildMembers | discordgo.IntentsMessageContent

	bot := &Bot{
		config:     config,
		session:    dg,
		uowFactory: uowFactory,
		bus:        bus,
		arena:      services.NewSanctionBatchArena(),
		dispatcher: NewDispatcher(),
		cooldowns:  newCooldownTracker(),
	}

	// Create feature modules
	bot.discipline = discipline.New(uowFactory, bot.arena)
	bot.merits = merits.NewFeature(dg, uowFactory)
	bot.settings = settings.NewFeature(uowFactory)
	bot.welcome = welcome.NewFeature(uowFactory)
	bot.dashboard = dashboard.NewFeature(bot.discipline, bot.merits, bot.settings)

	// Component custom IDs route by prefix through the dispatch table
	bot.dispatcher.Register("dash_", bot.dashboard.HandleInteraction)
	bot.dispatcher.Register("disc_", bot.discipline.HandleInteraction)
	bot.dispatcher.Register("merit_", bot.merits.HandleInteraction)
	bot.dispatcher.Register("set_", bot.settings.HandleInteraction)
	bot.dispatcher.Register("welcome_", bot.welcome.HandleInteraction)

	// Report fan-out rides the event bus so it never blocks a commit
	bot.wireSubscriptions(reports.NewDMDeliverer(dg))

	// Register handlers
	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleInteractions)
	dg.AddHandler(bot.handleGuildCreate)
	dg.AddHandler(bot.handleMemberAdd)
	dg.AddHandler(bot.handleMessageCreate)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	// Start background workers
	bot.stopJanitorWorker = bot.StartBatchJanitorWorker(context.Background())
	log.Info("Background workers started")

	return bot, nil
}

// WeeklyPublisher exposes the merits feature as the scheduler's leaderboard
// publisher.
func (b *Bot) WeeklyPublisher() interfaces.LeaderboardPublisher {
	return b.merits
}

// AttachScheduler hands the rotation scheduler to the features that swap
// timers on configuration changes.
func (b *Bot) AttachScheduler(rotations *scheduler.RotationScheduler) {
	b.rotations = rotations
	b.settings.AttachScheduler(rotations)
}

// GetSession returns the Discord session
func (b *Bot) GetSession() *discordgo.Session {
	return b.session
}

// Close gracefully shuts down the bot
func (b *Bot) Close() error {
	if b.stopJanitorWorker != nil {
		b.stopJanitorWorker()
	}
	log.Info("Background workers stopped")

	return b.session.Close()
}

// handleCommands routes slash commands to appropriate handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "dashboard":
		b.dashboard.HandleCommand(s, i)
	}
}

// handleInteractions routes component and modal interactions
func (b *Bot) handleInteractions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		b.dispatcher.Dispatch(s, i, i.MessageComponentData().CustomID)

	case discordgo.InteractionModalSubmit:
		customID := i.ModalSubmitData().CustomID
		if strings.HasPrefix(customID, "set_") {
			b.settings.HandleModal(s, i)
		}
	}
}

// handleGuildCreate seeds the guild's configuration row and arms its
// rotation timer when the bot joins (or reconnects to) a guild.
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	ctx := context.Background()

	guildID, err := common.ParseID(g.ID)
	if err != nil {
		log.Errorf("Failed to parse guild ID %s: %v", g.ID, err)
		return
	}

	uow := b.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		return
	}
	defer uow.Rollback()

	config, err := uow.GuildConfigRepository().GetOrCreate(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to track new guild %s (%s): %v", g.Name, g.ID, err)
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Failed to commit transaction: %v", err)
		return
	}

	if b.rotations != nil && !b.rotations.HasTimer(guildID) {
		if err := b.rotations.Set(guildID, config.Schedule()); err != nil {
			log.Errorf("Failed to arm rotation timer for guild %d: %v", guildID, err)
		}
	}

	log.Infof("Bot joined guild: %s (ID: %d, schedule: %s)", g.Name, guildID, config.Schedule())
}

// handleMemberAdd delegates new-member greetings to the welcome feature
func (b *Bot) handleMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	b.welcome.HandleMemberAdd(s, m)
}

// wireSubscriptions hooks domain events to their bot-side effects. Discipline
// credits fan out as DM reports to the guild's subscribed recipients.
func (b *Bot) wireSubscriptions(deliverer interfaces.ReportDeliverer) {
	b.bus.Subscribe(events.EventTypeMeritCredited, func(ctx context.Context, event events.Event) {
		credited, ok := event.(events.MeritCreditedEvent)
		if !ok {
			return
		}
		if !catalog.IsDiscipline(credited.Kind) {
			return
		}

		uow := b.uowFactory.CreateForGuild(credited.GuildID)
		if err := uow.Begin(ctx); err != nil {
			log.Errorf("Error beginning transaction for report fan-out: %v", err)
			return
		}
		defer uow.Rollback()

		reportService := services.NewReportService(uow.ReportRecipientRepository(), deliverer)
		result, err := reportService.Dispatch(ctx, interfaces.ActionReport{
			GuildID:  credited.GuildID,
			ActorID:  credited.ActorID,
			Kind:     credited.Kind,
			Points:   credited.Points,
			TargetID: credited.TargetID,
			Reason:   credited.Reason,
		})
		if err != nil {
			log.Errorf("Failed to dispatch action report for guild %d: %v", credited.GuildID, err)
			return
		}

		if err := uow.Commit(); err != nil {
			log.Errorf("Error committing report fan-out: %v", err)
			return
		}

		if len(result.Pruned) > 0 {
			log.Infof("Pruned %d unreachable report recipient(s) in guild %d", len(result.Pruned), credited.GuildID)
		}
	})
}
