package settings

import (
	"context"
	"fmt"
	"strings"

	"meritbot/bot/common"
	"meritbot/domain/entities"
	"meritbot/domain/interfaces"
	"meritbot/scheduler"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature implements the guild configuration flow. Everything here is
// admin-gated; moderation itself only needs the mod role.
type Feature struct {
	uowFactory interfaces.UnitOfWorkFactory
	rotations  *scheduler.RotationScheduler
}

// NewFeature creates the settings feature. The rotation scheduler is
// attached after startup wiring completes.
func NewFeature(uowFactory interfaces.UnitOfWorkFactory) *Feature {
	return &Feature{uowFactory: uowFactory}
}

// AttachScheduler binds the running rotation scheduler so schedule updates
// swap the live timer
func (f *Feature) AttachScheduler(rotations *scheduler.RotationScheduler) {
	f.rotations = rotations
}

// OpenMenu shows the configuration overview and controls
func (f *Feature) OpenMenu(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "You need administrator permissions to configure the bot")
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
		common.RespondWithError(s, i, "Failed to load settings")
		return
	}
	defer uow.Rollback()

	config, err := uow.GuildConfigRepository().GetOrCreate(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to load guild config: %v", err)
		common.RespondWithError(s, i, "Failed to load settings")
		return
	}

	recipients, err := uow.ReportRecipientRepository().List(ctx)
	if err != nil {
		log.Errorf("Failed to load report recipients: %v", err)
		common.RespondWithError(s, i, "Failed to load settings")
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{overviewEmbed(config, recipients)},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							MenuType:    discordgo.RoleSelectMenu,
							CustomID:    "set_modrole",
							Placeholder: "Moderator role",
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							MenuType:     discordgo.ChannelSelectMenu,
							CustomID:     "set_board_channel",
							Placeholder:  "Leaderboard channel",
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							MenuType:     discordgo.ChannelSelectMenu,
							CustomID:     "set_welcome_channel",
							Placeholder:  "Welcome channel",
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							MenuType:    discordgo.UserSelectMenu,
							CustomID:    "set_recipient_toggle",
							Placeholder: "Toggle a report recipient",
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{Label: "Welcome message", Style: discordgo.SecondaryButton, CustomID: "set_welcome_open"},
						discordgo.Button{Label: "Welcome image", Style: discordgo.SecondaryButton, CustomID: "set_image_open"},
						discordgo.Button{Label: "Test welcome", Style: discordgo.PrimaryButton, CustomID: "set_welcome_test"},
						discordgo.Button{Label: "Schedule", Style: discordgo.SecondaryButton, CustomID: "set_schedule_open"},
						discordgo.Button{Label: "Rates", Style: discordgo.SecondaryButton, CustomID: "set_rates_open"},
					},
				},
			},
		},
	})
	if err != nil {
		log.Errorf("Failed to open settings menu: %v", err)
	}
}

// HandleInteraction routes settings component interactions. Every entry
// point re-checks the admin gate: custom ids are client-controlled.
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "You need administrator permissions to configure the bot")
		return
	}

	switch i.MessageComponentData().CustomID {
	case "set_modrole":
		f.handleModRole(s, i)
	case "set_board_channel":
		f.handleChannel(s, i, channelKindLeaderboard)
	case "set_welcome_channel":
		f.handleChannel(s, i, channelKindWelcome)
	case "set_recipient_toggle":
		f.handleRecipientToggle(s, i)
	case "set_welcome_open":
		f.openWelcomeModal(s, i)
	case "set_image_open":
		f.openImageModal(s, i)
	case "set_welcome_test":
		f.handleWelcomeTest(s, i)
	case "set_schedule_open":
		f.openScheduleModal(s, i)
	case "set_rates_open":
		f.openRatesModal(s, i)
	}
}

// HandleModal routes settings modal submissions
func (f *Feature) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "You need administrator permissions to configure the bot")
		return
	}

	switch i.ModalSubmitData().CustomID {
	case "set_welcome_submit":
		f.handleWelcomeSubmit(s, i)
	case "set_image_submit":
		f.handleImageSubmit(s, i)
	case "set_schedule_submit":
		f.handleScheduleSubmit(s, i)
	case "set_rates_submit":
		f.handleRatesSubmit(s, i)
	}
}

func overviewEmbed(config *entities.GuildConfig, recipients []*entities.ReportRecipient) *discordgo.MessageEmbed {
	formatRole := func(id *int64) string {
		if id == nil {
			return "not set"
		}
		return fmt.Sprintf("<@&%d>", *id)
	}
	formatChannel := func(id *int64) string {
		if id == nil {
			return "not set"
		}
		return fmt.Sprintf("<#%d>", *id)
	}

	recipientList := "none"
	if len(recipients) > 0 {
		var mentions []string
		for _, recipient := range recipients {
			mentions = append(mentions, common.GetUserMention(recipient.UserID))
		}
		recipientList = strings.Join(mentions, " ")
	}

	return &discordgo.MessageEmbed{
		Title: "⚙️ Guild configuration",
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Moderator role", Value: formatRole(config.ModRoleID), Inline: true},
			{Name: "Leaderboard channel", Value: formatChannel(config.LeaderboardChannelID), Inline: true},
			{Name: "Welcome channel", Value: formatChannel(config.WelcomeChannelID), Inline: true},
			{Name: "Rotation schedule", Value: fmt.Sprintf("`%s`", config.Schedule()), Inline: true},
			{Name: "Report recipients", Value: recipientList},
		},
	}
}
