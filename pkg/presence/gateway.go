package presence

import (
	"context"

	"github.com/pkg/errors"

	"github.com/korjavin/curfewbot/pkg/models"
)

// Kicker performs the platform-side disconnect action
type Kicker interface {
	KickFromVoiceChat(ctx context.Context, chatID, userID int64) error
}

// Gateway combines the membership registry with the platform kick call. It
// satisfies the enforcer's gateway contract.
type Gateway struct {
	registry *Registry
	kicker   Kicker
}

// NewGateway creates a gateway over a registry and a kicker
func NewGateway(registry *Registry, kicker Kicker) *Gateway {
	return &Gateway{registry: registry, kicker: kicker}
}

// Chats returns all chats with a tracked voice session
func (g *Gateway) Chats() []int64 {
	return g.registry.Chats()
}

// Participants returns the tracked participants of a chat
func (g *Gateway) Participants(chatID int64) []models.Participant {
	return g.registry.Participants(chatID)
}

// Disconnect kicks a user out of a chat's voice session and, on success,
// removes them from the registry. Kicking a user who already left fails on
// the platform side and is reported to the caller as a plain error.
func (g *Gateway) Disconnect(ctx context.Context, chatID, userID int64) error {
	if err := g.kicker.KickFromVoiceChat(ctx, chatID, userID); err != nil {
		return errors.Wrapf(err, "kick user %d from chat %d", userID, chatID)
	}
	g.registry.Leave(chatID, userID)
	return nil
}
