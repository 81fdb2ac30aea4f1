package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// InteractionHandler processes one component or modal interaction
type InteractionHandler func(s *discordgo.Session, i *discordgo.InteractionCreate)

// Dispatcher routes interactions to feature handlers by custom-id prefix.
// Features register their prefixes at startup; an unknown custom id is
// logged and dropped instead of crashing the router.
type Dispatcher struct {
	prefixes map[string]InteractionHandler
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		prefixes: make(map[string]InteractionHandler),
	}
}

// Register binds a custom-id prefix to a handler. Registration happens
// before the session opens, so no locking is needed.
func (d *Dispatcher) Register(prefix string, handler InteractionHandler) {
	if _, exists := d.prefixes[prefix]; exists {
		log.Warnf("Interaction prefix %q registered twice, keeping the first handler", prefix)
		return
	}
	d.prefixes[prefix] = handler
}

// Dispatch routes a custom id to its registered handler and reports whether
// one was found
func (d *Dispatcher) Dispatch(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) bool {
	for prefix, handler := range d.prefixes {
		if strings.HasPrefix(customID, prefix) {
			handler(s, i)
			return true
		}
	}

	log.WithField("customID", customID).Warn("No handler registered for interaction")
	return false
}
