package merits

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"meritbot/bot/common"
	"meritbot/domain/entities"
	"meritbot/domain/interfaces"
	"meritbot/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature implements the merit views: personal totals, rank, leaderboards
// and the weekly publication. It is also the LeaderboardPublisher the
// rotation scheduler delivers through.
type Feature struct {
	session    *discordgo.Session
	uowFactory interfaces.UnitOfWorkFactory
	cards      *CardGenerator
}

// NewFeature creates the merits feature
func NewFeature(session *discordgo.Session, uowFactory interfaces.UnitOfWorkFactory) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
		cards:      NewCardGenerator(),
	}
}

// OpenMenu shows the merit view buttons
func (f *Feature) OpenMenu(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "🏅 Merit views:",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{Label: "My merit", Style: discordgo.PrimaryButton, CustomID: "merit_totals"},
						discordgo.Button{Label: "Top (all time)", Style: discordgo.SecondaryButton, CustomID: "merit_board_total"},
						discordgo.Button{Label: "Top (this week)", Style: discordgo.SecondaryButton, CustomID: "merit_board_weekly"},
						discordgo.Button{Label: "Publish weekly board", Style: discordgo.SuccessButton, CustomID: "merit_publish"},
					},
				},
			},
		},
	})
	if err != nil {
		log.Errorf("Failed to open merits menu: %v", err)
	}
}

// HandleInteraction routes merit component interactions
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.MessageComponentData().CustomID {
	case "merit_totals":
		f.handleTotals(s, i)
	case "merit_board_total":
		f.handleBoard(s, i, entities.FieldTotal)
	case "merit_board_weekly":
		f.handleBoard(s, i, entities.FieldWeekly)
	case "merit_publish":
		f.handlePublishNow(s, i)
	}
}

// handleTotals shows the caller's counters, ranks and recent actions
func (f *Feature) handleTotals(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, userID, err := parseIDs(i)
	if err != nil {
		common.RespondWithError(s, i, "Failed to process request")
		return
	}

	ctx := context.Background()
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, "Failed to load merit")
		return
	}
	defer uow.Rollback()

	account, err := uow.MeritAccountRepository().Get(ctx, userID)
	if err != nil {
		log.Errorf("Failed to load merit account for user %d: %v", userID, err)
		common.RespondWithError(s, i, "Failed to load merit")
		return
	}
	if account == nil {
		account = entities.ZeroAccount(userID, guildID)
	}

	rankService := services.NewRankService(uow.MeritAccountRepository())
	totalRank, err := rankService.RankOf(ctx, userID, entities.FieldTotal)
	if err != nil {
		log.Errorf("Failed to compute total rank for user %d: %v", userID, err)
		common.RespondWithError(s, i, "Failed to load merit")
		return
	}
	weeklyRank, err := rankService.RankOf(ctx, userID, entities.FieldWeekly)
	if err != nil {
		log.Errorf("Failed to compute weekly rank for user %d: %v", userID, err)
		common.RespondWithError(s, i, "Failed to load merit")
		return
	}

	recent, err := uow.ActionLogRepository().ListByActor(ctx, userID, common.ActionHistoryLimit)
	if err != nil {
		log.Errorf("Failed to load action history for user %d: %v", userID, err)
		common.RespondWithError(s, i, "Failed to load merit")
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Total merit", Value: fmt.Sprintf("**%s** (rank %d)", common.FormatPoints(account.TotalPoints), totalRank), Inline: true},
		{Name: "This week", Value: fmt.Sprintf("**%s** (rank %d)", common.FormatPoints(account.WeeklyPoints), weeklyRank), Inline: true},
	}

	if len(recent) > 0 {
		var lines []string
		for _, record := range recent {
			lines = append(lines, fmt.Sprintf("`%s` %s (+%d)",
				record.CreatedAt.UTC().Format("Jan 02"), record.Kind, record.Points))
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Recent actions",
			Value: strings.Join(lines, "\n"),
		})
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{{
				Title:  fmt.Sprintf("Merit — %s", common.GetDisplayName(s, i.GuildID, i.Member.User.ID)),
				Color:  common.ColorInfo,
				Fields: fields,
			}},
		},
	})
	if err != nil {
		log.Errorf("Failed to respond with merit totals: %v", err)
	}
}

// handleBoard shows the top standings inline
func (f *Feature) handleBoard(s *discordgo.Session, i *discordgo.InteractionCreate, field entities.PointsField) {
	guildID, _, err := parseIDs(i)
	if err != nil {
		common.RespondWithError(s, i, "Failed to process request")
		return
	}

	standings, err := f.loadStandings(context.Background(), guildID, field)
	if err != nil {
		log.Errorf("Failed to load %s standings for guild %d: %v", field, guildID, err)
		common.RespondWithError(s, i, "Failed to load leaderboard")
		return
	}

	title := "🏆 Top moderators — all time"
	if field == entities.FieldWeekly {
		title = "🏆 Top moderators — this week"
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{{
				Title:       title,
				Description: f.formatStandings(s, i.GuildID, standings),
				Color:       common.ColorPrimary,
			}},
		},
	})
	if err != nil {
		log.Errorf("Failed to respond with leaderboard: %v", err)
	}
}

// handlePublishNow publishes the weekly board to the configured channel
// without resetting anything
func (f *Feature) handlePublishNow(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, _, err := parseIDs(i)
	if err != nil {
		common.RespondWithError(s, i, "Failed to process request")
		return
	}

	ctx := context.Background()
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, "Failed to publish leaderboard")
		return
	}

	config, err := uow.GuildConfigRepository().GetOrCreate(ctx, guildID)
	if err != nil {
		uow.Rollback()
		log.Errorf("Failed to load guild config: %v", err)
		common.RespondWithError(s, i, "Failed to publish leaderboard")
		return
	}

	if !common.IsModerator(s, i.GuildID, i.Member.User.ID, config.ModRoleID) {
		uow.Rollback()
		common.RespondWithError(s, i, "You need the moderator role to publish the leaderboard")
		return
	}

	if !config.HasLeaderboardChannel() {
		uow.Rollback()
		common.RespondWithError(s, i, "No leaderboard channel configured — set one in settings first")
		return
	}
	channelID := *config.LeaderboardChannelID
	uow.Rollback()

	standings, err := f.loadStandings(ctx, guildID, entities.FieldWeekly)
	if err != nil {
		log.Errorf("Failed to load weekly standings for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Failed to publish leaderboard")
		return
	}

	if err := f.PublishWeekly(ctx, guildID, channelID, standings); err != nil {
		log.Errorf("Failed to publish leaderboard for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Failed to publish leaderboard")
		return
	}

	common.RespondEphemeral(s, i, fmt.Sprintf("✅ Weekly leaderboard published to <#%d>", channelID))
}

// PublishWeekly implements interfaces.LeaderboardPublisher: an embed plus a
// rendered card, sent to the guild's leaderboard channel.
func (f *Feature) PublishWeekly(ctx context.Context, guildID int64, channelID int64, standings []entities.Standing) error {
	guildIDStr := common.FormatID(guildID)

	names := make(map[int64]string, len(standings))
	for _, standing := range standings {
		names[standing.UserID] = common.GetDisplayNameInt64(f.session, guildIDStr, standing.UserID)
	}

	_, week := time.Now().UTC().ISOWeek()
	title := fmt.Sprintf("Weekly merit — week %d", week)

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏆 %s", title),
		Description: f.formatStandings(f.session, guildIDStr, standings),
		Color:       common.ColorWarning,
		Image:       &discordgo.MessageEmbedImage{URL: "attachment://leaderboard.png"},
	}

	message := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}

	card, err := f.cards.Generate(title, standings, names)
	if err != nil {
		// The publication still goes out without the card
		log.Errorf("Failed to render leaderboard card for guild %d: %v", guildID, err)
		embed.Image = nil
	} else {
		message.Files = []*discordgo.File{{
			Name:        "leaderboard.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(card),
		}}
	}

	if _, err := f.session.ChannelMessageSendComplex(common.FormatID(channelID), message); err != nil {
		return fmt.Errorf("failed to send leaderboard to channel %d in guild %d: %w", channelID, guildID, err)
	}

	return nil
}

// loadStandings reads the top standings in a short-lived read transaction
func (f *Feature) loadStandings(ctx context.Context, guildID int64, field entities.PointsField) ([]entities.Standing, error) {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rankService := services.NewRankService(uow.MeritAccountRepository())
	return rankService.TopN(ctx, field, common.LeaderboardSize)
}

func (f *Feature) formatStandings(s *discordgo.Session, guildID string, standings []entities.Standing) string {
	if len(standings) == 0 {
		return "No merit earned yet."
	}

	var lines []string
	for _, standing := range standings {
		lines = append(lines, fmt.Sprintf("%s %s — **%s**",
			common.Medal(standing.Rank),
			common.GetDisplayName(s, guildID, common.FormatID(standing.UserID)),
			common.FormatPoints(standing.Points)))
	}
	return strings.Join(lines, "\n")
}

func parseIDs(i *discordgo.InteractionCreate) (guildID, userID int64, err error) {
	guildID, err = common.ParseID(i.GuildID)
	if err != nil {
		log.Errorf("Failed to parse guild ID: %v", err)
		return 0, 0, err
	}
	userID, err = common.ParseID(i.Member.User.ID)
	if err != nil {
		log.Errorf("Failed to parse user ID: %v", err)
		return 0, 0, err
	}
	return guildID, userID, nil
}
