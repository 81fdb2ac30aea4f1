package bot

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"meritbot/bot/common"
	"meritbot/domain/catalog"
	"meritbot/domain/services"
)

type cooldownKey struct {
	guildID int64
	userID  int64
}

// cooldownTracker remembers the last passive credit per (guild, user). It is
// in-memory only; a restart just lets everyone credit one message early.
type cooldownTracker struct {
	mu   sync.Mutex
	last map[cooldownKey]time.Time
}

func newCooldownTracker() *cooldownTracker {
	return &cooldownTracker{last: make(map[cooldownKey]time.Time)}
}

// allow reports whether the user is past the cooldown and, if so, stamps the
// current time.
func (c *cooldownTracker) allow(key cooldownKey, cooldown time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if t, ok := c.last[key]; ok && now.Sub(t) < cooldown {
		return false
	}
	c.last[key] = now
	return true
}

// handleMessageCreate credits moderators for guild chat activity, at most
// once per cooldown window.
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Skip messages from our own bot to avoid loops
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}
	if m.GuildID == "" {
		return
	}

	guildID, err := common.ParseID(m.GuildID)
	if err != nil {
		return
	}
	userID, err := common.ParseID(m.Author.ID)
	if err != nil {
		return
	}

	if !b.cooldowns.allow(cooldownKey{guildID: guildID, userID: userID}, catalog.Rates().Cooldown) {
		return
	}

	ctx := context.Background()
	uow := b.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Error beginning transaction for message credit: %v", err)
		return
	}
	defer uow.Rollback()

	config, err := uow.GuildConfigRepository().GetOrCreate(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to load config for guild %d: %v", guildID, err)
		return
	}
	// Passive credit is a moderator perk, same gate as the discipline panel
	if !common.IsModerator(s, m.GuildID, m.Author.ID, config.ModRoleID) {
		return
	}

	ledger := services.NewLedgerService(uow.MeritAccountRepository(), uow.ActionLogRepository(), uow.EventBus())
	if err := ledger.CreditPassiveMessage(ctx, userID); err != nil {
		log.Errorf("Failed to credit message activity for %d in guild %d: %v", userID, guildID, err)
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Error committing message credit: %v", err)
	}
}
