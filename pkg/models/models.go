package models

import (
	"fmt"
	"time"
)

// ClockTime is a local wall-clock target (hour and minute of day)
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// MinuteOfDay returns the time as minutes since local midnight
func (c ClockTime) MinuteOfDay() int {
	return c.Hour*60 + c.Minute
}

// String formats the time as HH:MM
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Window is a recurring local-time interval expressed in minutes since
// midnight. StartMinute > EndMinute means the window wraps past midnight.
type Window struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// Wraps reports whether the window spans local midnight
func (w Window) Wraps() bool {
	return w.StartMinute > w.EndMinute
}

// String formats the window as HH:MM-HH:MM
func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d",
		w.StartMinute/60, w.StartMinute%60,
		w.EndMinute/60, w.EndMinute%60)
}

// Curfew represents one user's disconnect schedule. ExactTime and Window are
// independent: a record may carry either, both, or neither.
type Curfew struct {
	UserID        string     `json:"user_id"`
	OffsetMinutes int        `json:"offset_minutes"`
	ExactTime     *ClockTime `json:"exact_time,omitempty"`
	Window        *Window    `json:"window,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsEmpty reports whether the record carries no schedule and no calibrated
// offset. Empty records are pruned from the store.
func (c Curfew) IsEmpty() bool {
	return c.ExactTime == nil && c.Window == nil && c.OffsetMinutes == 0
}

// Participant represents a tracked voice chat member
type Participant struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}

// ChatKickStats represents the kick statistics for a chat
type ChatKickStats struct {
	ChatID int64                   `json:"chat_id"`
	Users  map[string]UserKickStat `json:"users"` // UserID -> UserKickStat
}

// UserKickStat represents the kick statistics for a single user
type UserKickStat struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	KickCount    int       `json:"kick_count"`
	LastKickedAt time.Time `json:"last_kicked_at"`
}
