package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestDispatcher_RoutesByPrefix(t *testing.T) {
	d := NewDispatcher()

	var got string
	d.Register("disc_", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		got = "discipline"
	})
	d.Register("merit_", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		got = "merits"
	})

	assert.True(t, d.Dispatch(nil, nil, "disc_commit_42"))
	assert.Equal(t, "discipline", got)

	assert.True(t, d.Dispatch(nil, nil, "merit_totals"))
	assert.Equal(t, "merits", got)
}

func TestDispatcher_UnknownCustomID(t *testing.T) {
	d := NewDispatcher()
	d.Register("disc_", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		t.Fatal("handler should not run for an unmatched custom id")
	})

	assert.False(t, d.Dispatch(nil, nil, "lottery_draw"))
}

func TestDispatcher_DuplicatePrefixKeepsFirst(t *testing.T) {
	d := NewDispatcher()

	var got string
	d.Register("set_", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		got = "first"
	})
	d.Register("set_", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		got = "second"
	})

	d.Dispatch(nil, nil, "set_modrole")
	assert.Equal(t, "first", got)
}
