package enforcer

import (
	"context"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/korjavin/curfewbot/pkg/logger"
	"github.com/korjavin/curfewbot/pkg/models"
	"github.com/korjavin/curfewbot/pkg/schedule"
)

// Gateway enumerates connected voice chat participants and performs the
// disconnect action. Implementations must exclude bot accounts and tolerate
// disconnecting a participant who already left.
type Gateway interface {
	Chats() []int64
	Participants(chatID int64) []models.Participant
	Disconnect(ctx context.Context, chatID, userID int64) error
}

// Schedules provides a consistent read of all curfew records for one tick
type Schedules interface {
	Snapshot() map[string]models.Curfew
}

// Notifier is called after every successful kick
type Notifier func(chatID int64, p models.Participant, at time.Time)

// Service drives the periodic curfew enforcement scan
type Service struct {
	schedules Schedules
	gateway   Gateway
	logger    *logger.Logger
	interval  time.Duration
	timeout   time.Duration
	notify    Notifier
	stopChan  chan struct{}
	inFlight  atomic.Bool

	mu       sync.Mutex
	lastKick map[int64]int64 // userID -> unix minute of last successful kick
}

// New creates a new enforcement service. interval is the tick period,
// timeout bounds each individual disconnect call.
func New(schedules Schedules, gateway Gateway, interval, timeout time.Duration, notify Notifier) *Service {
	return &Service{
		schedules: schedules,
		gateway:   gateway,
		logger:    logger.New("enforcer"),
		interval:  interval,
		timeout:   timeout,
		notify:    notify,
		stopChan:  make(chan struct{}),
		lastKick:  make(map[int64]int64),
	}
}

// Start starts the enforcement loop
func (s *Service) Start() {
	s.logger.Info("Starting curfew enforcement, tick every %v, tolerance %d minute(s)",
		s.interval, s.tolerance())
	go s.run()
}

// Stop stops the enforcement loop
func (s *Service) Stop() {
	s.logger.Info("Stopping curfew enforcement")
	close(s.stopChan)
}

func (s *Service) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(time.Now().UTC())
		case <-s.stopChan:
			return
		}
	}
}

// tolerance is the exact-time match tolerance: the tick interval in minutes,
// rounded up, never below one
func (s *Service) tolerance() int {
	m := int(math.Ceil(s.interval.Minutes()))
	if m < 1 {
		m = 1
	}
	return m
}

// tick performs one enforcement scan. A new tick is skipped while the
// previous one is still running, so the same participant is never processed
// concurrently. nowUTC is captured once so all decisions within the tick see
// the same instant.
func (s *Service) tick(nowUTC time.Time) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("Previous tick still running, skipping this one")
		return
	}
	defer s.inFlight.Store(false)

	curfews := s.schedules.Snapshot()
	if len(curfews) == 0 {
		return
	}
	tol := s.tolerance()

	for _, chatID := range s.gateway.Chats() {
		for _, p := range s.gateway.Participants(chatID) {
			c, ok := curfews[strconv.FormatInt(p.UserID, 10)]
			if !ok {
				continue
			}

			res := schedule.Match(nowUTC, c, tol)
			if !res.Any() {
				continue
			}

			if s.kickedThisMinute(p.UserID, nowUTC) {
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			err := s.gateway.Disconnect(ctx, chatID, p.UserID)
			cancel()
			if err != nil {
				// One participant's failure never aborts the tick.
				s.logger.Error("Failed to kick user %d from chat %d: %v", p.UserID, chatID, err)
				continue
			}

			s.markKicked(p.UserID, nowUTC)
			s.logger.Info("Kicked user %d (%s) from chat %d (exact=%v window=%v)",
				p.UserID, p.Username, chatID, res.ExactHit, res.WindowHit)

			if s.notify != nil {
				s.notify(chatID, p, nowUTC)
			}
		}
	}

	s.pruneKickLog(nowUTC)
}

// kickedThisMinute reports whether the user was already kicked within the
// current UTC minute
func (s *Service) kickedThisMinute(userID int64, nowUTC time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKick[userID] == nowUTC.Unix()/60
}

func (s *Service) markKicked(userID int64, nowUTC time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastKick[userID] = nowUTC.Unix() / 60
}

// pruneKickLog drops dedup entries older than the current minute so the map
// stays bounded by the number of recently kicked users
func (s *Service) pruneKickLog(nowUTC time.Time) {
	minute := nowUTC.Unix() / 60
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, m := range s.lastKick {
		if m < minute {
			delete(s.lastKick, userID)
		}
	}
}
