package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"meritbot/bot/common"
	"meritbot/domain/catalog"
	"meritbot/domain/entities"
	"meritbot/domain/interfaces"
	"meritbot/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (f *Feature) openWelcomeModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.showModal(s, i, &discordgo.InteractionResponseData{
		CustomID: "set_welcome_submit",
		Title:    "Welcome message",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "welcome_title_input",
						Label:       "Title ({user}, {server}, {memberCount})",
						Style:       discordgo.TextInputShort,
						Placeholder: entities.DefaultWelcomeTitle,
						Required:    true,
						MaxLength:   256,
					},
				},
			},
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "welcome_content_input",
						Label:       "Message body",
						Style:       discordgo.TextInputParagraph,
						Placeholder: entities.DefaultWelcomeContent,
						Required:    true,
						MaxLength:   2000,
					},
				},
			},
		},
	})
}

func (f *Feature) handleWelcomeSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	title := modalValue(i, "welcome_title_input")
	content := modalValue(i, "welcome_content_input")

	f.withConfigService(s, i, "Failed to update welcome message", func(ctx context.Context, svc interfaces.GuildConfigService, guildID int64) error {
		return svc.UpdateWelcomeMessage(ctx, guildID, title, content)
	}, "✅ Welcome message updated — hit Test welcome to preview it")
}

func (f *Feature) openImageModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.showModal(s, i, &discordgo.InteractionResponseData{
		CustomID: "set_image_submit",
		Title:    "Welcome image",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "welcome_image_input",
						Label:       "Image URL (empty to remove)",
						Style:       discordgo.TextInputShort,
						Placeholder: "https://...",
						Required:    false,
						MaxLength:   512,
					},
				},
			},
		},
	})
}

func (f *Feature) handleImageSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	imageURL := modalValue(i, "welcome_image_input")

	message := "✅ Welcome image updated"
	if imageURL == "" {
		message = "✅ Welcome image removed"
	}

	f.withConfigService(s, i, "Failed to update welcome image", func(ctx context.Context, svc interfaces.GuildConfigService, guildID int64) error {
		return svc.UpdateWelcomeImage(ctx, guildID, imageURL)
	}, message)
}

func (f *Feature) openScheduleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.showModal(s, i, &discordgo.InteractionResponseData{
		CustomID: "set_schedule_submit",
		Title:    "Weekly rotation schedule",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "schedule_input",
						Label:       "Cron expression (minute hour dom month dow)",
						Style:       discordgo.TextInputShort,
						Placeholder: entities.DefaultRotationSchedule,
						Required:    true,
						MaxLength:   64,
					},
				},
			},
		},
	})
}

// handleScheduleSubmit validates, persists and then swaps the live timer.
// A malformed expression is rejected before anything changes.
func (f *Feature) handleScheduleSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	expr := modalValue(i, "schedule_input")

	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Failed to process request")
		return
	}

	ctx := context.Background()
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, "Failed to update rotation schedule")
		return
	}
	defer uow.Rollback()

	svc := services.NewGuildConfigService(uow.GuildConfigRepository())
	if err := svc.UpdateRotationSchedule(ctx, guildID, expr); err != nil {
		if errors.Is(err, entities.ErrInvalidScheduleExpression) {
			common.RespondWithError(s, i, fmt.Sprintf("`%s` is not a valid cron expression, the current schedule keeps running", expr))
			return
		}
		log.Errorf("Failed to update rotation schedule: %v", err)
		common.RespondWithError(s, i, "Failed to update rotation schedule")
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		common.RespondWithError(s, i, "Failed to update rotation schedule")
		return
	}

	if f.rotations != nil {
		if err := f.rotations.Set(guildID, expr); err != nil {
			// Persisted but not armed; the stored value is re-armed on restart
			log.Errorf("Failed to swap rotation timer for guild %d: %v", guildID, err)
		}
	}

	common.RespondEphemeral(s, i, fmt.Sprintf("✅ Rotation schedule updated to `%s`", expr))
}

func (f *Feature) openRatesModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	rates := catalog.Rates()

	f.showModal(s, i, &discordgo.InteractionResponseData{
		CustomID: "set_rates_submit",
		Title:    "Passive merit rates",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "rates_points_input",
						Label:     "Points per message",
						Style:     discordgo.TextInputShort,
						Value:     strconv.FormatInt(rates.PointsPerMessage, 10),
						Required:  true,
						MaxLength: 6,
					},
				},
			},
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "rates_multiplier_input",
						Label:     "Multiplier",
						Style:     discordgo.TextInputShort,
						Value:     strconv.FormatInt(rates.Multiplier, 10),
						Required:  true,
						MaxLength: 6,
					},
				},
			},
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "rates_cooldown_input",
						Label:     "Cooldown in seconds",
						Style:     discordgo.TextInputShort,
						Value:     strconv.FormatInt(int64(rates.Cooldown/time.Second), 10),
						Required:  true,
						MaxLength: 6,
					},
				},
			},
		},
	})
}

func (f *Feature) handleRatesSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	points, err1 := strconv.ParseInt(modalValue(i, "rates_points_input"), 10, 64)
	multiplier, err2 := strconv.ParseInt(modalValue(i, "rates_multiplier_input"), 10, 64)
	cooldownSecs, err3 := strconv.ParseInt(modalValue(i, "rates_cooldown_input"), 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || points < 0 || multiplier < 0 || cooldownSecs < 0 {
		common.RespondWithError(s, i, "Rates must be non-negative whole numbers")
		return
	}

	catalog.UpdateRates(catalog.GlobalRates{
		PointsPerMessage: points,
		Multiplier:       multiplier,
		Cooldown:         time.Duration(cooldownSecs) * time.Second,
	})

	common.RespondEphemeral(s, i, fmt.Sprintf("✅ Passive rates updated: %d point(s) × %d per message, %ds cooldown",
		points, multiplier, cooldownSecs))
}

func (f *Feature) showModal(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: data,
	})
	if err != nil {
		log.Errorf("Failed to show modal %s: %v", data.CustomID, err)
	}
}

// modalValue extracts one text input value from a modal submission
func modalValue(i *discordgo.InteractionCreate, customID string) string {
	for _, comp := range i.ModalSubmitData().Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if textInput, ok := inner.(*discordgo.TextInput); ok && textInput.CustomID == customID {
				return textInput.Value
			}
		}
	}
	return ""
}
