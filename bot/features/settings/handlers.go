package settings

import (
	"context"
	"fmt"

	"meritbot/bot/common"
	"meritbot/domain/interfaces"
	"meritbot/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type channelKind int

const (
	channelKindLeaderboard channelKind = iota
	channelKindWelcome
)

// handleModRole stores the selected moderator role
func (f *Feature) handleModRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	roleID, ok := f.selectedID(s, i)
	if !ok {
		return
	}

	f.withConfigService(s, i, "Failed to update moderator role", func(ctx context.Context, svc interfaces.GuildConfigService, guildID int64) error {
		return svc.UpdateModRole(ctx, guildID, &roleID)
	}, fmt.Sprintf("✅ Moderator role updated to <@&%d>", roleID))
}

// handleChannel stores the selected leaderboard or welcome channel
func (f *Feature) handleChannel(s *discordgo.Session, i *discordgo.InteractionCreate, kind channelKind) {
	channelID, ok := f.selectedID(s, i)
	if !ok {
		return
	}

	if kind == channelKindWelcome {
		f.withConfigService(s, i, "Failed to update welcome channel", func(ctx context.Context, svc interfaces.GuildConfigService, guildID int64) error {
			return svc.UpdateWelcomeChannel(ctx, guildID, &channelID)
		}, fmt.Sprintf("✅ Welcome channel updated to <#%d>", channelID))
		return
	}

	f.withConfigService(s, i, "Failed to update leaderboard channel", func(ctx context.Context, svc interfaces.GuildConfigService, guildID int64) error {
		return svc.UpdateLeaderboardChannel(ctx, guildID, &channelID)
	}, fmt.Sprintf("✅ Leaderboard channel updated to <#%d>", channelID))
}

// handleRecipientToggle adds the selected user to the report recipient set,
// or removes them if already subscribed
func (f *Feature) handleRecipientToggle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, ok := f.selectedID(s, i)
	if !ok {
		return
	}

	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Failed to process request")
		return
	}

	ctx := context.Background()
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, "Failed to update report recipients")
		return
	}
	defer uow.Rollback()

	recipients, err := uow.ReportRecipientRepository().List(ctx)
	if err != nil {
		log.Errorf("Failed to list report recipients: %v", err)
		common.RespondWithError(s, i, "Failed to update report recipients")
		return
	}

	subscribed := false
	for _, recipient := range recipients {
		if recipient.UserID == userID {
			subscribed = true
			break
		}
	}

	var message string
	if subscribed {
		err = uow.ReportRecipientRepository().Remove(ctx, userID)
		message = fmt.Sprintf("✅ %s no longer receives action reports", common.GetUserMention(userID))
	} else {
		err = uow.ReportRecipientRepository().Add(ctx, userID)
		message = fmt.Sprintf("✅ %s now receives action reports", common.GetUserMention(userID))
	}
	if err != nil {
		log.Errorf("Failed to toggle report recipient %d: %v", userID, err)
		common.RespondWithError(s, i, "Failed to update report recipients")
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		common.RespondWithError(s, i, "Failed to update report recipients")
		return
	}

	common.RespondEphemeral(s, i, message)
}

// handleWelcomeTest renders the stored welcome template for the caller
func (f *Feature) handleWelcomeTest(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Failed to process request")
		return
	}

	ctx := context.Background()
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, "Failed to load welcome settings")
		return
	}
	defer uow.Rollback()

	config, err := uow.GuildConfigRepository().GetOrCreate(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to load guild config: %v", err)
		common.RespondWithError(s, i, "Failed to load welcome settings")
		return
	}

	serverName := i.GuildID
	memberCount := 0
	if guild, err := s.State.Guild(i.GuildID); err == nil {
		serverName = guild.Name
		memberCount = guild.MemberCount
	}

	title, content := config.RenderWelcome(common.GetUserMention(mustParseID(i.Member.User.ID)), serverName, memberCount)

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: content,
		Color:       common.ColorSuccess,
	}
	if config.WelcomeImage != nil && *config.WelcomeImage != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: *config.WelcomeImage}
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Preview of the welcome message:",
			Flags:   discordgo.MessageFlagsEphemeral,
			Embeds:  []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		log.Errorf("Failed to respond with welcome preview: %v", err)
	}
}

// withConfigService runs one config mutation in its own transaction and
// replies with successMessage
func (f *Feature) withConfigService(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	failureMessage string,
	mutate func(ctx context.Context, svc interfaces.GuildConfigService, guildID int64) error,
	successMessage string,
) {
	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		log.Errorf("Failed to parse guild ID: %v", err)
		common.RespondWithError(s, i, failureMessage)
		return
	}

	ctx := context.Background()
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, failureMessage)
		return
	}
	defer uow.Rollback()

	svc := services.NewGuildConfigService(uow.GuildConfigRepository())
	if err := mutate(ctx, svc, guildID); err != nil {
		log.Errorf("Failed to update guild config: %v", err)
		common.RespondWithError(s, i, failureMessage)
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		common.RespondWithError(s, i, failureMessage)
		return
	}

	common.RespondEphemeral(s, i, successMessage)
}

// selectedID extracts the single selected snowflake from a select-menu
// interaction
func (f *Feature) selectedID(s *discordgo.Session, i *discordgo.InteractionCreate) (int64, bool) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		common.RespondWithError(s, i, "Nothing selected")
		return 0, false
	}

	id, err := common.ParseID(values[0])
	if err != nil {
		log.Errorf("Failed to parse selected ID %q: %v", values[0], err)
		common.RespondWithError(s, i, "Invalid selection")
		return 0, false
	}
	return id, true
}

func mustParseID(id string) int64 {
	parsed, _ := common.ParseID(id)
	return parsed
}
