package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"meritbot/bot/common"
	"meritbot/domain/catalog"
	"meritbot/domain/entities"
	"meritbot/domain/interfaces"
)

// DMDeliverer sends action reports to recipients over direct messages. A
// closed DM (Discord error 50007) is surfaced as entities.ErrRecipientBlocked
// so the fan-out can prune the recipient.
type DMDeliverer struct {
	session *discordgo.Session
}

func NewDMDeliverer(session *discordgo.Session) *DMDeliverer {
	return &DMDeliverer{session: session}
}

// DeliverReport opens (or reuses) a DM channel with the recipient and sends
// the report embed.
func (d *DMDeliverer) DeliverReport(ctx context.Context, userID int64, report interfaces.ActionReport) error {
	channel, err := d.session.UserChannelCreate(common.FormatID(userID))
	if err != nil {
		return wrapDeliveryError(userID, err)
	}

	_, err = d.session.ChannelMessageSendEmbed(channel.ID, reportEmbed(d.session, report))
	if err != nil {
		return wrapDeliveryError(userID, err)
	}
	return nil
}

func wrapDeliveryError(userID int64, err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil &&
		restErr.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser {
		return fmt.Errorf("recipient %d: %w", userID, entities.ErrRecipientBlocked)
	}
	return fmt.Errorf("failed to deliver report to %d: %w", userID, err)
}

func reportEmbed(s *discordgo.Session, report interfaces.ActionReport) *discordgo.MessageEmbed {
	label := string(report.Kind)
	if entry, err := catalog.Lookup(report.Kind); err == nil {
		label = entry.Label
	}

	guildID := common.FormatID(report.GuildID)
	fields := []*discordgo.MessageEmbedField{
		{Name: "Moderator", Value: common.GetDisplayNameInt64(s, guildID, report.ActorID), Inline: true},
		{Name: "Action", Value: label, Inline: true},
		{Name: "Merit", Value: fmt.Sprintf("+%d", report.Points), Inline: true},
	}
	if report.TargetID != 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Member", Value: common.GetUserMention(report.TargetID), Inline: true,
		})
	}
	if report.Reason != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Reason", Value: report.Reason, Inline: false,
		})
	}

	serverName := guildID
	if guild, err := s.State.Guild(guildID); err == nil {
		serverName = guild.Name
	}

	return &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("⚖️ Action report — %s", serverName),
		Color:     common.ColorWarning,
		Fields:    fields,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
