package messages

import (
	"fmt"
	"sort"
	"strings"

	"github.com/korjavin/curfewbot/pkg/logger"
	"github.com/korjavin/curfewbot/pkg/models"
	"github.com/korjavin/curfewbot/pkg/openai"
)

// Service provides message generation functionality. When no OpenAI client
// is configured all messages fall back to the static templates.
type Service struct {
	openaiClient *openai.Client
	logger       *logger.Logger
}

// New creates a new message service. openaiClient may be nil.
func New(openaiClient *openai.Client) *Service {
	return &Service{
		openaiClient: openaiClient,
		logger:       logger.New("messages"),
	}
}

// GenerateWelcomeMessage generates a welcome message
func (s *Service) GenerateWelcomeMessage() string {
	return s.generate("welcome", map[string]interface{}{
		"purpose": "Help group members stick to their own voice chat curfews",
	}, "👋 Welcome to Curfew bot! Set a daily time or a time window and I'll kick you out of the voice chat when it's time to go. Try /help to see the commands.")
}

// GenerateKickNotice generates the message posted after a curfew kick
func (s *Service) GenerateKickNotice(username string) string {
	return s.generate("kick_notice", map[string]interface{}{
		"username": username,
	}, fmt.Sprintf("⏰ Curfew time, @%s! You've been disconnected from the voice chat. See you tomorrow!", username))
}

// GenerateTimeSetMessage confirms a daily disconnect time
func (s *Service) GenerateTimeSetMessage(username, value string) string {
	return s.generate("time_set", map[string]interface{}{
		"username": username,
		"time":     value,
	}, fmt.Sprintf("✅ Daily curfew for @%s set to %s. They'll be kicked from the voice chat at that time every day.", username, value))
}

// GenerateRangeSetMessage confirms a disconnect window
func (s *Service) GenerateRangeSetMessage(username, value string) string {
	return s.generate("range_set", map[string]interface{}{
		"username": username,
		"range":    value,
	}, fmt.Sprintf("✅ Curfew window for @%s set to %s. They'll be kicked from the voice chat whenever they connect during it.", username, value))
}

// GenerateOffsetSetMessage confirms a timezone calibration
func (s *Service) GenerateOffsetSetMessage(offsetMinutes int) string {
	return s.generate("offset_set", map[string]interface{}{
		"offset_minutes": offsetMinutes,
	}, fmt.Sprintf("🌎 Your timezone offset is set to %+d minutes from UTC. All your curfew times use it.", offsetMinutes))
}

// generate asks the LLM for a phrased message and falls back to the static
// template on any failure
func (s *Service) generate(intent string, contextData map[string]interface{}, fallback string) string {
	if s.openaiClient == nil {
		return fallback
	}
	msg, err := s.openaiClient.GenerateChatMessage(intent, contextData)
	if err != nil {
		s.logger.Error("Failed to generate %s message: %v", intent, err)
		return fallback
	}
	return msg
}

// FormatStatus renders a user's curfew record for display. It is
// deterministic on purpose: status output never goes through the LLM.
func FormatStatus(c models.Curfew, found bool) string {
	if !found {
		return "❗ You don't have any curfew settings yet. Use /settime or /setrange to add one."
	}

	var parts []string
	if c.ExactTime != nil {
		parts = append(parts, fmt.Sprintf("⏰ Daily curfew at %s", c.ExactTime))
	}
	if c.Window != nil {
		parts = append(parts, fmt.Sprintf("🔁 Curfew window %s", c.Window))
	}
	parts = append(parts, fmt.Sprintf("🌎 Timezone offset: %+d minutes from UTC", c.OffsetMinutes))
	return strings.Join(parts, "\n")
}

// FormatStats renders the per-chat kick leaderboard
func FormatStats(stats *models.ChatKickStats) string {
	if stats == nil || len(stats.Users) == 0 {
		return "📊 Nobody has been kicked by curfew in this chat yet."
	}

	users := make([]models.UserKickStat, 0, len(stats.Users))
	for _, u := range stats.Users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].KickCount > users[j].KickCount
	})

	var b strings.Builder
	b.WriteString("📊 Curfew kicks in this chat:\n")
	for _, u := range users {
		name := u.Username
		if name == "" {
			name = u.UserID
		}
		fmt.Fprintf(&b, "• %s — %d\n", name, u.KickCount)
	}
	return b.String()
}

// HelpMessage returns the command reference
func HelpMessage() string {
	return strings.Join([]string{
		"🛠️ Curfew bot commands:",
		"",
		"• /settime HH:MM — kick yourself (or the user you reply to) from the voice chat once daily at that local time.",
		"• /setrange HH:MM-HH:MM — kick repeatedly during that local time window (it may wrap past midnight).",
		"• /settimezone HH:MM — tell the bot your current local time so it can calibrate your timezone.",
		"• /removetime, /removerange — remove a setting.",
		"• /status — show your current settings.",
		"• /joinvc, /leavevc — tell the bot you joined or left the voice chat.",
		"• /stats — kick statistics for this chat.",
	}, "\n")
}
