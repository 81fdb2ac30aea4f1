package discipline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meritbot/bot/common"
	"meritbot/domain/catalog"
	"meritbot/domain/entities"
	"meritbot/domain/interfaces"
	"meritbot/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature implements the discipline flow: pick a member, stack sanctions,
// validate or cancel. Selections live in the shared batch arena until the
// operator commits.
type Feature struct {
	uowFactory interfaces.UnitOfWorkFactory
	arena      *services.SanctionBatchArena
}

// New creates the discipline feature
func New(uowFactory interfaces.UnitOfWorkFactory, arena *services.SanctionBatchArena) *Feature {
	return &Feature{
		uowFactory: uowFactory,
		arena:      arena,
	}
}

// OpenMenu shows the member picker. Gated on the configured mod role.
func (f *Feature) OpenMenu(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !f.isModerator(s, i) {
		common.RespondWithError(s, i, "You need the moderator role to use discipline actions")
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "🛡️ Select the member to discipline:",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							MenuType: discordgo.UserSelectMenu,
							CustomID: "disc_target",
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Errorf("Failed to open discipline menu: %v", err)
	}
}

// HandleInteraction routes discipline component interactions. The mod gate
// repeats here because custom ids are client-controlled.
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !f.isModerator(s, i) {
		common.RespondWithError(s, i, "You need the moderator role to use discipline actions")
		return
	}

	customID := i.MessageComponentData().CustomID

	switch {
	case customID == "disc_target":
		f.handleTargetSelected(s, i)
	case strings.HasPrefix(customID, "disc_add_"):
		f.handleAddSanction(s, i, strings.TrimPrefix(customID, "disc_add_"))
	case strings.HasPrefix(customID, "disc_commit_"):
		f.handleCommit(s, i, strings.TrimPrefix(customID, "disc_commit_"))
	case strings.HasPrefix(customID, "disc_cancel_"):
		f.handleCancel(s, i, strings.TrimPrefix(customID, "disc_cancel_"))
	}
}

// handleTargetSelected shows the sanction buttons for the chosen member
func (f *Feature) handleTargetSelected(s *discordgo.Session, i *discordgo.InteractionCreate) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		common.RespondWithError(s, i, "No member selected")
		return
	}

	targetID, err := common.ParseID(values[0])
	if err != nil {
		log.Errorf("Failed to parse target ID %q: %v", values[0], err)
		common.RespondWithError(s, i, "Invalid member selected")
		return
	}

	var sanctionButtons []discordgo.MessageComponent
	for _, entry := range catalog.ListByCategory(catalog.CategoryDiscipline) {
		sanctionButtons = append(sanctionButtons, discordgo.Button{
			Label:    fmt.Sprintf("%s (+%d)", entry.Label, entry.Points),
			Style:    discordgo.SecondaryButton,
			CustomID: fmt.Sprintf("disc_add_%d_%s", targetID, entry.Kind),
		})
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("🛡️ Disciplining %s — stack sanctions, then validate:", common.GetUserMention(targetID)),
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: sanctionButtons},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    "Validate",
							Style:    discordgo.SuccessButton,
							CustomID: fmt.Sprintf("disc_commit_%d", targetID),
						},
						discordgo.Button{
							Label:    "Cancel",
							Style:    discordgo.DangerButton,
							CustomID: fmt.Sprintf("disc_cancel_%d", targetID),
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Errorf("Failed to show sanction buttons: %v", err)
	}
}

// handleAddSanction appends one sanction to the operator's pending batch
func (f *Feature) handleAddSanction(s *discordgo.Session, i *discordgo.InteractionCreate, suffix string) {
	targetID, kind, err := parseTargetAndKind(suffix)
	if err != nil {
		log.Errorf("Failed to parse sanction custom ID %q: %v", suffix, err)
		common.RespondWithError(s, i, "Failed to process selection")
		return
	}

	key, err := f.batchKey(i, targetID)
	if err != nil {
		common.RespondWithError(s, i, "Failed to process selection")
		return
	}

	size, err := f.arena.Add(key, kind)
	if err != nil {
		log.Errorf("Failed to add sanction %s for target %d: %v", kind, targetID, err)
		common.RespondWithError(s, i, "Unknown sanction")
		return
	}

	common.RespondEphemeral(s, i, fmt.Sprintf("Added **%s** — %d pending sanction(s) for %s. Hit Validate to apply.",
		kind, size, common.GetUserMention(targetID)))
}

// handleCommit applies the operator's pending batch in one transaction
func (f *Feature) handleCommit(s *discordgo.Session, i *discordgo.InteractionCreate, suffix string) {
	targetID, err := common.ParseID(suffix)
	if err != nil {
		common.RespondWithError(s, i, "Failed to process selection")
		return
	}

	key, err := f.batchKey(i, targetID)
	if err != nil {
		common.RespondWithError(s, i, "Failed to process selection")
		return
	}

	ctx := context.Background()
	uow := f.uowFactory.CreateForGuild(key.GuildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction: %v", err)
		common.RespondWithError(s, i, "Failed to apply sanctions")
		return
	}
	defer uow.Rollback()

	ledger := services.NewLedgerService(
		uow.MeritAccountRepository(),
		uow.ActionLogRepository(),
		uow.EventBus(),
	)
	sanctions := services.NewSanctionService(f.arena, ledger)

	result, err := sanctions.Commit(ctx, key, "")
	if err != nil {
		if errors.Is(err, entities.ErrEmptyBatch) {
			common.RespondWithError(s, i, "No sanctions selected yet")
			return
		}
		log.Errorf("Failed to commit sanctions for target %d: %v", targetID, err)
		common.RespondWithError(s, i, "Failed to apply sanctions")
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing transaction: %v", err)
		common.RespondWithError(s, i, "Failed to apply sanctions")
		return
	}

	var lines []string
	for _, award := range result.Breakdown {
		lines = append(lines, fmt.Sprintf("• %s (+%d)", award.Kind, award.Points))
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{{
				Title: "Sanctions applied",
				Description: fmt.Sprintf("%s\n\nTarget: %s\nMerit earned: **+%s**",
					strings.Join(lines, "\n"),
					common.GetUserMention(targetID),
					common.FormatPoints(result.TotalAwarded)),
				Color: common.ColorSuccess,
			}},
		},
	})
	if err != nil {
		log.Errorf("Failed to respond with sanction summary: %v", err)
	}
}

// handleCancel throws the pending batch away without touching the ledger
func (f *Feature) handleCancel(s *discordgo.Session, i *discordgo.InteractionCreate, suffix string) {
	targetID, err := common.ParseID(suffix)
	if err != nil {
		common.RespondWithError(s, i, "Failed to process selection")
		return
	}

	key, err := f.batchKey(i, targetID)
	if err != nil {
		common.RespondWithError(s, i, "Failed to process selection")
		return
	}

	f.arena.Cancel(key)
	common.RespondEphemeral(s, i, fmt.Sprintf("Pending sanctions for %s discarded.", common.GetUserMention(targetID)))
}

// batchKey builds the composite key for the acting operator
func (f *Feature) batchKey(i *discordgo.InteractionCreate, targetID int64) (services.BatchKey, error) {
	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		log.Errorf("Failed to parse guild ID: %v", err)
		return services.BatchKey{}, err
	}
	operatorID, err := common.ParseID(i.Member.User.ID)
	if err != nil {
		log.Errorf("Failed to parse operator ID: %v", err)
		return services.BatchKey{}, err
	}
	return services.BatchKey{
		GuildID:    guildID,
		OperatorID: operatorID,
		TargetID:   targetID,
	}, nil
}

// isModerator checks the configured mod role, falling back to admin-only
// when no role is configured
func (f *Feature) isModerator(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	guildID, err := common.ParseID(i.GuildID)
	if err != nil {
		return false
	}

	ctx := context.Background()
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction for mod check: %v", err)
		return false
	}
	defer uow.Rollback()

	config, err := uow.GuildConfigRepository().GetOrCreate(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to load guild config for mod check: %v", err)
		return false
	}

	return common.IsModerator(s, i.GuildID, i.Member.User.ID, config.ModRoleID)
}

// parseTargetAndKind splits a "<targetID>_<KIND>" custom-id suffix
func parseTargetAndKind(suffix string) (int64, entities.ActionKind, error) {
	parts := strings.SplitN(suffix, "_", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("malformed sanction suffix %q", suffix)
	}
	targetID, err := common.ParseID(parts[0])
	if err != nil {
		return 0, "", err
	}
	return targetID, entities.ActionKind(parts[1]), nil
}
