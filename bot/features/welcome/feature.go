package welcome

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"meritbot/bot/common"
	"meritbot/domain/catalog"
	"meritbot/domain/entities"
	"meritbot/domain/interfaces"
	"meritbot/domain/services"
)

// Feature greets new members in the configured welcome channel and lets
// moderators claim a welcome credit for greeting them.
type Feature struct {
	uowFactory interfaces.UnitOfWorkFactory
}

func NewFeature(uowFactory interfaces.UnitOfWorkFactory) *Feature {
	return &Feature{uowFactory: uowFactory}
}

// HandleMemberAdd posts the guild's welcome message when a member joins.
// Guilds without a welcome channel stay silent.
func (f *Feature) HandleMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}

	guildID, err := common.ParseID(m.GuildID)
	if err != nil {
		log.Errorf("Error parsing guild ID %s: %v", m.GuildID, err)
		return
	}

	config, err := f.loadConfig(context.Background(), guildID)
	if err != nil {
		log.Errorf("Failed to load config for guild %d: %v", guildID, err)
		return
	}
	serverName := m.GuildID
	memberCount := 0
	channelID := ""
	if guild, err := s.State.Guild(m.GuildID); err == nil {
		serverName = guild.Name
		memberCount = guild.MemberCount
		channelID = guild.SystemChannelID
	}
	// An explicitly configured channel beats the guild's system channel
	if config.WelcomeChannelID != nil && *config.WelcomeChannelID > 0 {
		channelID = common.FormatID(*config.WelcomeChannelID)
	}
	if channelID == "" {
		return
	}

	newMemberID, err := common.ParseID(m.User.ID)
	if err != nil {
		log.Errorf("Error parsing user ID %s: %v", m.User.ID, err)
		return
	}

	title, content := config.RenderWelcome(common.GetUserMention(newMemberID), serverName, memberCount)
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: content,
		Color:       common.ColorSuccess,
	}
	if config.WelcomeImage != nil && *config.WelcomeImage != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: *config.WelcomeImage}
	}

	_, err = s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Welcome them",
						Style:    discordgo.SuccessButton,
						CustomID: fmt.Sprintf("welcome_claim_%d", newMemberID),
						Emoji:    &discordgo.ComponentEmoji{Name: "👋"},
					},
				},
			},
		},
	})
	if err != nil {
		log.Errorf("Failed to send welcome message for guild %d: %v", guildID, err)
	}
}

// HandleInteraction credits the clicking moderator for welcoming the new
// member named in the button's custom ID.
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	suffix, ok := strings.CutPrefix(customID, "welcome_claim_")
	if !ok {
		log.Warnf("Unknown welcome interaction: %s", customID)
		return
	}

	newMemberID, err := common.ParseID(suffix)
	if err != nil {
		common.RespondWithError(s, i, "Malformed welcome button")
		return
	}

	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "This button only works in a server")
		return
	}
	moderatorID, err := common.ParseID(i.Member.User.ID)
	if err != nil {
		common.RespondWithError(s, i, "Failed to resolve your user ID")
		return
	}

	ctx := context.Background()
	config, err := f.loadConfig(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to load config for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Failed to load guild settings")
		return
	}
	if !common.IsModerator(s, i.GuildID, i.Member.User.ID, config.ModRoleID) {
		common.RespondWithError(s, i, "Only moderators earn welcome credit")
		return
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, "Failed to record the welcome")
		return
	}
	defer uow.Rollback()

	ledger := services.NewLedgerService(uow.MeritAccountRepository(), uow.ActionLogRepository(), uow.EventBus())
	result, err := ledger.ApplyAction(ctx, moderatorID, entities.ActionWelcome, newMemberID, "welcomed a new member")
	if err != nil {
		log.Errorf("Failed to credit welcome for moderator %d: %v", moderatorID, err)
		common.RespondWithError(s, i, "Failed to record the welcome")
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		common.RespondWithError(s, i, "Failed to record the welcome")
		return
	}

	entry, _ := catalog.Lookup(entities.ActionWelcome)
	common.RespondEphemeral(s, i, fmt.Sprintf("👋 %s welcomed! +%d merit (total %s)",
		common.GetUserMention(newMemberID), entry.Points, common.FormatPoints(result.NewTotal)))
}

// loadConfig reads the guild config in a short-lived read transaction.
func (f *Feature) loadConfig(ctx context.Context, guildID int64) (*entities.GuildConfig, error) {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	config, err := uow.GuildConfigRepository().GetOrCreate(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return config, nil
}
