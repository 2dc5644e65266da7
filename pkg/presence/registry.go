package presence

import (
	"sync"
	"time"

	"github.com/korjavin/curfewbot/pkg/logger"
	"github.com/korjavin/curfewbot/pkg/models"
)

// Registry is the in-memory voice chat membership table
type Registry struct {
	logger *logger.Logger
	mu     sync.RWMutex
	chats  map[int64]map[int64]models.Participant
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		logger: logger.New("presence"),
		chats:  make(map[int64]map[int64]models.Participant),
	}
}

// Join registers a participant in a chat's voice session. Rejoining keeps
// the original join time.
func (r *Registry) Join(chatID int64, p models.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.chats[chatID]
	if !ok {
		members = make(map[int64]models.Participant)
		r.chats[chatID] = members
	}
	if _, ok := members[p.UserID]; ok {
		return
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	members[p.UserID] = p
	r.logger.Debug("User %d joined voice chat in %d", p.UserID, chatID)
}

// Leave removes a participant from a chat's voice session. It reports false
// if the user was not registered.
func (r *Registry) Leave(chatID, userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.chats[chatID]
	if !ok {
		return false
	}
	if _, ok := members[userID]; !ok {
		return false
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(r.chats, chatID)
	}
	r.logger.Debug("User %d left voice chat in %d", userID, chatID)
	return true
}

// ClearChat drops all participants of a chat, used when its voice session ends
func (r *Registry) ClearChat(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chats, chatID)
	r.logger.Debug("Cleared voice chat participants for %d", chatID)
}

// Chats returns the IDs of all chats with a tracked voice session
func (r *Registry) Chats() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.chats))
	for id := range r.chats {
		ids = append(ids, id)
	}
	return ids
}

// Participants returns a copy of the tracked participants of a chat
func (r *Registry) Participants(chatID int64) []models.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.chats[chatID]
	out := make([]models.Participant, 0, len(members))
	for _, p := range members {
		out = append(out, p)
	}
	return out
}
