package stats

import (
	"fmt"
	"time"

	"github.com/korjavin/curfewbot/pkg/logger"
	"github.com/korjavin/curfewbot/pkg/models"
	"github.com/korjavin/curfewbot/pkg/storage"
)

// Service provides kick statistics functionality
type Service struct {
	store  *storage.Store
	logger *logger.Logger
}

// New creates a new statistics service
func New(store *storage.Store) *Service {
	return &Service{
		store:  store,
		logger: logger.New("stats"),
	}
}

// Get retrieves the kick statistics for a chat, creating an empty record if
// none exists yet
func (s *Service) Get(chatID int64) (*models.ChatKickStats, error) {
	key := fmt.Sprintf("kicks:%d", chatID)

	var stats models.ChatKickStats
	err := s.store.Get(key, &stats)
	if err != nil {
		stats = models.ChatKickStats{
			ChatID: chatID,
			Users:  make(map[string]models.UserKickStat),
		}
	}
	if stats.Users == nil {
		stats.Users = make(map[string]models.UserKickStat)
	}

	return &stats, nil
}

// RecordKick increments the kick counter for a user in a chat
func (s *Service) RecordKick(chatID int64, userID, username string, at time.Time) error {
	stats, err := s.Get(chatID)
	if err != nil {
		return err
	}

	u, ok := stats.Users[userID]
	if !ok {
		u = models.UserKickStat{UserID: userID}
	}
	u.Username = username
	u.KickCount++
	u.LastKickedAt = at
	stats.Users[userID] = u

	key := fmt.Sprintf("kicks:%d", chatID)
	if err := s.store.Set(key, stats); err != nil {
		return fmt.Errorf("failed to save kick stats: %w", err)
	}
	return nil
}
