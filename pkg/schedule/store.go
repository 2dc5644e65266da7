package schedule

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/korjavin/curfewbot/pkg/logger"
	"github.com/korjavin/curfewbot/pkg/models"
	"github.com/korjavin/curfewbot/pkg/storage"
)

const curfewKeyPrefix = "curfew:"

// Store holds all curfew records in memory and persists every mutation to
// BadgerDB. It is the single source of truth: the enforcement loop only
// reads snapshots, mutations come from the command surface.
type Store struct {
	db      *storage.Store
	logger  *logger.Logger
	mu      sync.RWMutex
	curfews map[string]models.Curfew
}

// NewStore creates a curfew store and loads all persisted records. Records
// that fail to decode are logged and skipped; the stored bytes are left in
// place so an operator can inspect them (a later mutation for the same user
// overwrites them).
func NewStore(db *storage.Store) (*Store, error) {
	s := &Store{
		db:      db,
		logger:  logger.New("schedule"),
		curfews: make(map[string]models.Curfew),
	}

	keys, err := db.List(curfewKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to load curfews: %w", err)
	}

	for _, key := range keys {
		var c models.Curfew
		if err := db.Get(key, &c); err != nil {
			s.logger.Warn("Skipping unreadable curfew record %s: %v", key, err)
			continue
		}
		userID := strings.TrimPrefix(key, curfewKeyPrefix)
		c.UserID = userID
		s.curfews[userID] = c
	}

	s.logger.Info("Loaded %d curfew records", len(s.curfews))
	return s, nil
}

// Get returns the curfew record for a user
func (s *Store) Get(userID string) (models.Curfew, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.curfews[userID]
	return c, ok
}

// Snapshot returns a copy of all curfew records for one enforcement tick
func (s *Store) Snapshot() map[string]models.Curfew {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Curfew, len(s.curfews))
	for id, c := range s.curfews {
		out[id] = c
	}
	return out
}

// Count returns the number of stored records
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.curfews)
}

// SetExactTime sets the daily disconnect time for a user, creating the
// record if needed
func (s *Store) SetExactTime(userID string, hour, minute int) (models.Curfew, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return models.Curfew{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeFormat, hour, minute)
	}
	return s.mutate(userID, func(c *models.Curfew) {
		c.ExactTime = &models.ClockTime{Hour: hour, Minute: minute}
	})
}

// SetExactTimeString parses a "HH:MM" string and sets the daily disconnect time
func (s *Store) SetExactTimeString(userID, value string) (models.Curfew, error) {
	hour, minute, err := ParseClock(value)
	if err != nil {
		return models.Curfew{}, err
	}
	return s.SetExactTime(userID, hour, minute)
}

// SetWindow sets the recurring disconnect window for a user. Start after end
// denotes a window wrapping past midnight.
func (s *Store) SetWindow(userID string, startMinute, endMinute int) (models.Curfew, error) {
	if startMinute < 0 || startMinute > 1439 || endMinute < 0 || endMinute > 1439 {
		return models.Curfew{}, fmt.Errorf("%w: window %d-%d", ErrInvalidTimeFormat, startMinute, endMinute)
	}
	return s.mutate(userID, func(c *models.Curfew) {
		c.Window = &models.Window{StartMinute: startMinute, EndMinute: endMinute}
	})
}

// SetWindowString parses a "HH:MM-HH:MM" string and sets the disconnect window
func (s *Store) SetWindowString(userID, value string) (models.Curfew, error) {
	start, end, err := ParseWindow(value)
	if err != nil {
		return models.Curfew{}, err
	}
	return s.SetWindow(userID, start, end)
}

// SetOffset sets the user's UTC offset in minutes, rejecting values outside
// ±720 without mutating the record
func (s *Store) SetOffset(userID string, minutes int) (models.Curfew, error) {
	if minutes < -720 || minutes > 720 {
		return models.Curfew{}, fmt.Errorf("%w: %+d minutes", ErrOffsetOutOfRange, minutes)
	}
	return s.mutate(userID, func(c *models.Curfew) {
		c.OffsetMinutes = minutes
	})
}

// CalibrateOffset computes the user's UTC offset from a reported local time
// and the current UTC instant, then stores it. The difference is taken
// modulo 24h and normalized into (-720, 720], so 23:00 local against 01:00
// UTC calibrates to -2h rather than +22h.
func (s *Store) CalibrateOffset(userID string, reportedHour, reportedMinute int, nowUTC time.Time) (int, error) {
	if reportedHour < 0 || reportedHour > 23 || reportedMinute < 0 || reportedMinute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeFormat, reportedHour, reportedMinute)
	}

	reported := reportedHour*60 + reportedMinute
	utc := nowUTC.Hour()*60 + nowUTC.Minute()

	offset := (reported - utc) % minutesPerDay
	if offset < 0 {
		offset += minutesPerDay
	}
	if offset > 720 {
		offset -= minutesPerDay
	}

	if _, err := s.SetOffset(userID, offset); err != nil {
		return 0, err
	}
	return offset, nil
}

// CalibrateOffsetString parses a reported "HH:MM" local time and calibrates
// the user's UTC offset from it
func (s *Store) CalibrateOffsetString(userID, value string, nowUTC time.Time) (int, error) {
	hour, minute, err := ParseClock(value)
	if err != nil {
		return 0, err
	}
	return s.CalibrateOffset(userID, hour, minute, nowUTC)
}

// RemoveExactTime clears the daily disconnect time. It reports false when
// the user had none set, which is informational rather than an error.
func (s *Store) RemoveExactTime(userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.curfews[userID]
	if !ok || c.ExactTime == nil {
		return false, nil
	}
	c.ExactTime = nil
	c.UpdatedAt = time.Now().UTC()
	return true, s.storeLocked(c)
}

// RemoveWindow clears the disconnect window. It reports false when the user
// had none set.
func (s *Store) RemoveWindow(userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.curfews[userID]
	if !ok || c.Window == nil {
		return false, nil
	}
	c.Window = nil
	c.UpdatedAt = time.Now().UTC()
	return true, s.storeLocked(c)
}

// mutate applies fn to the user's record (creating it on first use) and
// persists the result. The in-memory state is updated even when persistence
// fails, so the returned error is reportable but non-fatal.
func (s *Store) mutate(userID string, fn func(*models.Curfew)) (models.Curfew, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.curfews[userID]
	if !ok {
		c = models.Curfew{UserID: userID}
	}
	fn(&c)
	c.UpdatedAt = time.Now().UTC()
	return c, s.storeLocked(c)
}

// storeLocked writes the record to memory and disk. Records left with no
// schedule and no offset are pruned instead. Callers must hold the write lock.
func (s *Store) storeLocked(c models.Curfew) error {
	key := curfewKeyPrefix + c.UserID

	if c.IsEmpty() {
		delete(s.curfews, c.UserID)
		if err := s.db.Delete(key); err != nil {
			s.logger.Error("Failed to delete curfew %s: %v", key, err)
			return fmt.Errorf("failed to persist curfew removal: %w", err)
		}
		return nil
	}

	s.curfews[c.UserID] = c
	if err := s.db.Set(key, c); err != nil {
		s.logger.Error("Failed to persist curfew %s: %v", key, err)
		return fmt.Errorf("failed to persist curfew: %w", err)
	}
	return nil
}
