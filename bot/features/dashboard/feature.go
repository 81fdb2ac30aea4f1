package dashboard

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"meritbot/bot/common"
)

// MenuOpener is implemented by the features reachable from the dashboard.
type MenuOpener interface {
	OpenMenu(s *discordgo.Session, i *discordgo.InteractionCreate)
}

// Feature owns the /dashboard command and the top-level menu buttons.
type Feature struct {
	discipline MenuOpener
	merits     MenuOpener
	settings   MenuOpener
}

func NewFeature(discipline, merits, settings MenuOpener) *Feature {
	return &Feature{
		discipline: discipline,
		merits:     merits,
		settings:   settings,
	}
}

// HandleCommand responds to /dashboard with the main menu.
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	embed := &discordgo.MessageEmbed{
		Title:       "🛡️ Moderation Dashboard",
		Description: "Pick a panel below.",
		Color:       common.ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Discipline", Value: "Queue sanctions against a member and commit them in one batch", Inline: false},
			{Name: "Merits", Value: "Check merit totals, ranks and leaderboards", Inline: false},
			{Name: "Settings", Value: "Configure roles, channels, schedules and rates", Inline: false},
		},
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    "Discipline",
							Style:    discordgo.DangerButton,
							CustomID: "dash_discipline",
							Emoji:    &discordgo.ComponentEmoji{Name: "⚖️"},
						},
						discordgo.Button{
							Label:    "Merits",
							Style:    discordgo.PrimaryButton,
							CustomID: "dash_merits",
							Emoji:    &discordgo.ComponentEmoji{Name: "🏅"},
						},
						discordgo.Button{
							Label:    "Settings",
							Style:    discordgo.SecondaryButton,
							CustomID: "dash_settings",
							Emoji:    &discordgo.ComponentEmoji{Name: "⚙️"},
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Errorf("Error responding to dashboard command: %v", err)
	}
}

// HandleInteraction routes dash_ button presses to the owning feature.
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	switch customID {
	case "dash_discipline":
		f.discipline.OpenMenu(s, i)
	case "dash_merits":
		f.merits.OpenMenu(s, i)
	case "dash_settings":
		f.settings.OpenMenu(s, i)
	default:
		log.Warnf("Unknown dashboard interaction: %s", customID)
	}
}
