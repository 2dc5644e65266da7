package enforcer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/korjavin/curfewbot/pkg/models"
)

type fakeSchedules struct {
	curfews map[string]models.Curfew
}

func (f *fakeSchedules) Snapshot() map[string]models.Curfew {
	out := make(map[string]models.Curfew, len(f.curfews))
	for k, v := range f.curfews {
		out[k] = v
	}
	return out
}

type fakeGateway struct {
	mu           sync.Mutex
	chats        map[int64][]models.Participant
	disconnects  []int64
	failUsers    map[int64]error
	disconnected map[int64]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		chats:        make(map[int64][]models.Participant),
		failUsers:    make(map[int64]error),
		disconnected: make(map[int64]bool),
	}
}

func (g *fakeGateway) Chats() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]int64, 0, len(g.chats))
	for id := range g.chats {
		ids = append(ids, id)
	}
	return ids
}

func (g *fakeGateway) Participants(chatID int64) []models.Participant {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []models.Participant
	for _, p := range g.chats[chatID] {
		if !g.disconnected[p.UserID] {
			out = append(out, p)
		}
	}
	return out
}

func (g *fakeGateway) Disconnect(_ context.Context, _ int64, userID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.failUsers[userID]; ok {
		return err
	}
	g.disconnects = append(g.disconnects, userID)
	g.disconnected[userID] = true
	return nil
}

func (g *fakeGateway) kicks() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int64(nil), g.disconnects...)
}

func window(start, end int) *models.Window {
	return &models.Window{StartMinute: start, EndMinute: end}
}

func newService(s Schedules, g Gateway, notify Notifier) *Service {
	return New(s, g, 15*time.Second, time.Second, notify)
}

func TestTick_KicksMatchingParticipant(t *testing.T) {
	sched := &fakeSchedules{curfews: map[string]models.Curfew{
		"100": {UserID: "100", Window: window(22*60, 6*60)},
	}}
	gw := newFakeGateway()
	gw.chats[1] = []models.Participant{{UserID: 100, Username: "alice"}}

	svc := newService(sched, gw, nil)
	now := time.Date(2024, time.March, 12, 23, 0, 0, 0, time.UTC)
	svc.tick(now)

	require.Equal(t, []int64{100}, gw.kicks())
}

func TestTick_SkipsUsersWithoutRecords(t *testing.T) {
	sched := &fakeSchedules{curfews: map[string]models.Curfew{
		"100": {UserID: "100", Window: window(0, 1439)},
	}}
	gw := newFakeGateway()
	gw.chats[1] = []models.Participant{
		{UserID: 100, Username: "alice"},
		{UserID: 200, Username: "bob"}, // no curfew configured
	}

	svc := newService(sched, gw, nil)
	svc.tick(time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC))

	require.Equal(t, []int64{100}, gw.kicks())
}

func TestTick_DedupWithinSameMinute(t *testing.T) {
	sched := &fakeSchedules{curfews: map[string]models.Curfew{
		"100": {UserID: "100", Window: window(0, 1439)},
	}}
	gw := newFakeGateway()
	gw.chats[1] = []models.Participant{{UserID: 100, Username: "alice"}}

	svc := newService(sched, gw, nil)
	now := time.Date(2024, time.March, 12, 12, 0, 4, 0, time.UTC)

	svc.tick(now)
	// The participant rejoins within the same minute.
	gw.mu.Lock()
	gw.disconnected[100] = false
	gw.mu.Unlock()
	svc.tick(now.Add(15 * time.Second))

	require.Len(t, gw.kicks(), 1, "second tick in the same minute must not kick again")

	// Next minute the window still matches, so the kick happens again.
	svc.tick(now.Add(time.Minute))
	require.Len(t, gw.kicks(), 2)
}

func TestTick_OneFailureDoesNotAbortTick(t *testing.T) {
	sched := &fakeSchedules{curfews: map[string]models.Curfew{
		"100": {UserID: "100", Window: window(0, 1439)},
		"200": {UserID: "200", Window: window(0, 1439)},
		"300": {UserID: "300", Window: window(0, 1439)},
	}}
	gw := newFakeGateway()
	gw.chats[1] = []models.Participant{
		{UserID: 100, Username: "alice"},
		{UserID: 200, Username: "bob"},
		{UserID: 300, Username: "carol"},
	}
	gw.failUsers[100] = errors.New("already left")

	svc := newService(sched, gw, nil)
	svc.tick(time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC))

	require.ElementsMatch(t, []int64{200, 300}, gw.kicks())
}

func TestTick_FailedKickIsRetriedSameMinute(t *testing.T) {
	sched := &fakeSchedules{curfews: map[string]models.Curfew{
		"100": {UserID: "100", Window: window(0, 1439)},
	}}
	gw := newFakeGateway()
	gw.chats[1] = []models.Participant{{UserID: 100, Username: "alice"}}
	gw.failUsers[100] = errors.New("transient")

	svc := newService(sched, gw, nil)
	now := time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC)
	svc.tick(now)
	require.Empty(t, gw.kicks())

	// Only successful disconnects enter the dedup log.
	gw.mu.Lock()
	delete(gw.failUsers, 100)
	gw.mu.Unlock()
	svc.tick(now.Add(15 * time.Second))
	require.Equal(t, []int64{100}, gw.kicks())
}

func TestTick_ExactTimeWithOffset(t *testing.T) {
	sched := &fakeSchedules{curfews: map[string]models.Curfew{
		"100": {
			UserID:        "100",
			OffsetMinutes: 240,
			ExactTime:     &models.ClockTime{Hour: 2, Minute: 0},
		},
	}}
	gw := newFakeGateway()
	gw.chats[1] = []models.Participant{{UserID: 100, Username: "alice"}}

	svc := newService(sched, gw, nil)

	// 22:00 UTC is 02:00 local for a +4h offset.
	svc.tick(time.Date(2024, time.March, 12, 22, 0, 0, 0, time.UTC))
	require.Equal(t, []int64{100}, gw.kicks())
}

func TestTick_NotifierCalledOnSuccessOnly(t *testing.T) {
	sched := &fakeSchedules{curfews: map[string]models.Curfew{
		"100": {UserID: "100", Window: window(0, 1439)},
		"200": {UserID: "200", Window: window(0, 1439)},
	}}
	gw := newFakeGateway()
	gw.chats[1] = []models.Participant{
		{UserID: 100, Username: "alice"},
		{UserID: 200, Username: "bob"},
	}
	gw.failUsers[200] = errors.New("no permission")

	var notified []int64
	svc := newService(sched, gw, func(_ int64, p models.Participant, _ time.Time) {
		notified = append(notified, p.UserID)
	})
	svc.tick(time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC))

	require.Equal(t, []int64{100}, notified)
}

func TestTolerance(t *testing.T) {
	tests := []struct {
		interval time.Duration
		want     int
	}{
		{2 * time.Second, 1},
		{15 * time.Second, 1},
		{60 * time.Second, 1},
		{90 * time.Second, 2},
		{2 * time.Minute, 2},
	}
	for _, tt := range tests {
		svc := New(nil, nil, tt.interval, time.Second, nil)
		require.Equal(t, tt.want, svc.tolerance(), "interval %v", tt.interval)
	}
}
