package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/korjavin/curfewbot/pkg/config"
	"github.com/korjavin/curfewbot/pkg/enforcer"
	"github.com/korjavin/curfewbot/pkg/logger"
	"github.com/korjavin/curfewbot/pkg/messages"
	"github.com/korjavin/curfewbot/pkg/models"
	"github.com/korjavin/curfewbot/pkg/openai"
	"github.com/korjavin/curfewbot/pkg/presence"
	"github.com/korjavin/curfewbot/pkg/schedule"
	"github.com/korjavin/curfewbot/pkg/state"
	"github.com/korjavin/curfewbot/pkg/stats"
	"github.com/korjavin/curfewbot/pkg/storage"
	"github.com/korjavin/curfewbot/pkg/telegram"
)

func main() {
	log := logger.Global
	log.Info("Starting Curfew bot...")

	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		log.Error("Failed to initialize storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	// Start BadgerDB garbage collection
	store.StartGCRoutine(10 * time.Minute)

	// Initialize OpenAI client (optional, used for message phrasing only)
	var openaiClient *openai.Client
	if cfg.OpenAIAPIKey != "" {
		openaiClient = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.OpenAIModel)
	} else {
		log.Info("OPENAI_API_KEY not set, using static message templates")
	}

	// Initialize services
	curfewStore, err := schedule.NewStore(store)
	if err != nil {
		log.Error("Failed to load curfew store: %v", err)
		os.Exit(1)
	}
	registry := presence.NewRegistry()
	statsService := stats.New(store)
	messageService := messages.New(openaiClient)
	stateManager := state.New()

	// Initialize Telegram bot
	bot, err := telegram.New(cfg.BotToken)
	if err != nil {
		log.Error("Failed to initialize Telegram bot: %v", err)
		os.Exit(1)
	}

	gateway := presence.NewGateway(registry, bot)

	// Report every successful kick in the chat and record it in the stats
	notify := func(chatID int64, p models.Participant, at time.Time) {
		userID := strconv.FormatInt(p.UserID, 10)
		if err := statsService.RecordKick(chatID, userID, p.Username, at); err != nil {
			log.Error("Failed to record kick stats: %v", err)
		}
		if _, err := bot.SendMessage(chatID, messageService.GenerateKickNotice(p.Username)); err != nil {
			log.Error("Failed to send kick notice: %v", err)
		}
	}

	enforcerService := enforcer.New(curfewStore, gateway, cfg.PollInterval, cfg.DisconnectTimeout, notify)

	// targetUser resolves whom a scheduling command applies to: the replied-to
	// member if the command is a reply, otherwise the sender
	targetUser := func(message *tgbotapi.Message) *tgbotapi.User {
		if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil {
			return message.ReplyToMessage.From
		}
		return message.From
	}

	userKey := func(u *tgbotapi.User) string {
		return strconv.FormatInt(u.ID, 10)
	}

	displayName := func(u *tgbotapi.User) string {
		if u.UserName != "" {
			return u.UserName
		}
		return u.FirstName
	}

	// Setup command handlers
	commandHandlers := map[string]telegram.CommandHandler{
		"start": func(message *tgbotapi.Message) {
			bot.SendMessage(message.Chat.ID, messageService.GenerateWelcomeMessage())
		},
		"help": func(message *tgbotapi.Message) {
			bot.SendMessage(message.Chat.ID, messages.HelpMessage())
		},
		"settime": func(message *tgbotapi.Message) {
			target := targetUser(message)
			args := message.CommandArguments()

			curfew, err := curfewStore.SetExactTimeString(userKey(target), args)
			if err != nil {
				log.Error("settime failed for user %d: %v", target.ID, err)
				bot.SendMessage(message.Chat.ID, "❗ Please provide the time in HH:MM format, e.g. /settime 22:30")
				return
			}
			bot.SendMessage(message.Chat.ID,
				messageService.GenerateTimeSetMessage(displayName(target), curfew.ExactTime.String()))
		},
		"setrange": func(message *tgbotapi.Message) {
			target := targetUser(message)
			args := message.CommandArguments()

			curfew, err := curfewStore.SetWindowString(userKey(target), args)
			if err != nil {
				log.Error("setrange failed for user %d: %v", target.ID, err)
				bot.SendMessage(message.Chat.ID, "❗ Please provide the range in HH:MM-HH:MM format, e.g. /setrange 23:00-07:00")
				return
			}
			bot.SendMessage(message.Chat.ID,
				messageService.GenerateRangeSetMessage(displayName(target), curfew.Window.String()))
		},
		"settimezone": func(message *tgbotapi.Message) {
			args := message.CommandArguments()
			if args == "" {
				// Interactive onboarding: the next plain message from this
				// user is read as their local time.
				stateManager.Set(message.From.ID, state.StateAwaitingLocalTime)
				bot.SendMessage(message.Chat.ID, "🕐 What time is it for you right now? Reply with HH:MM and I'll calibrate your timezone.")
				return
			}

			offset, err := curfewStore.CalibrateOffsetString(userKey(message.From), args, time.Now().UTC())
			if err != nil {
				log.Error("settimezone failed for user %d: %v", message.From.ID, err)
				bot.SendMessage(message.Chat.ID, "❗ Please enter your current local time in HH:MM format.")
				return
			}
			bot.SendMessage(message.Chat.ID, messageService.GenerateOffsetSetMessage(offset))
		},
		"removetime": func(message *tgbotapi.Message) {
			removed, err := curfewStore.RemoveExactTime(userKey(message.From))
			if err != nil {
				log.Error("removetime failed for user %d: %v", message.From.ID, err)
			}
			if removed {
				bot.SendMessage(message.Chat.ID, "✅ Your daily curfew time has been removed.")
			} else {
				bot.SendMessage(message.Chat.ID, "❗ You had no daily curfew time set.")
			}
		},
		"removerange": func(message *tgbotapi.Message) {
			removed, err := curfewStore.RemoveWindow(userKey(message.From))
			if err != nil {
				log.Error("removerange failed for user %d: %v", message.From.ID, err)
			}
			if removed {
				bot.SendMessage(message.Chat.ID, "✅ Your curfew window has been removed.")
			} else {
				bot.SendMessage(message.Chat.ID, "❗ You had no curfew window set.")
			}
		},
		"status": func(message *tgbotapi.Message) {
			curfew, ok := curfewStore.Get(userKey(message.From))
			bot.SendMessage(message.Chat.ID, messages.FormatStatus(curfew, ok))
		},
		"joinvc": func(message *tgbotapi.Message) {
			if message.From.IsBot {
				return
			}
			registry.Join(message.Chat.ID, models.Participant{
				UserID:   message.From.ID,
				Username: displayName(message.From),
			})
			bot.SendMessage(message.Chat.ID, "🎤 Noted, you're in the voice chat now. Curfews apply!")
		},
		"leavevc": func(message *tgbotapi.Message) {
			if registry.Leave(message.Chat.ID, message.From.ID) {
				bot.SendMessage(message.Chat.ID, "👋 Noted, you're out of the voice chat.")
			}
		},
		"stats": func(message *tgbotapi.Message) {
			chatStats, err := statsService.Get(message.Chat.ID)
			if err != nil {
				log.Error("Failed to get stats for chat %d: %v", message.Chat.ID, err)
				bot.SendMessage(message.Chat.ID, "😢 Sorry, I couldn't load the statistics.")
				return
			}
			bot.SendMessage(message.Chat.ID, messages.FormatStats(chatStats))
		},
	}

	// Setup default handler: voice chat service messages feed the presence
	// registry, plain messages complete the timezone onboarding
	defaultHandler := func(update tgbotapi.Update) {
		message := update.Message
		if message == nil {
			return
		}
		chatID := message.Chat.ID

		if message.VoiceChatStarted != nil {
			// A new session starts with a clean slate.
			registry.ClearChat(chatID)
			return
		}
		if message.VoiceChatEnded != nil {
			registry.ClearChat(chatID)
			return
		}
		if message.VoiceChatParticipantsInvited != nil {
			for _, user := range message.VoiceChatParticipantsInvited.Users {
				if user.IsBot {
					continue
				}
				registry.Join(chatID, models.Participant{
					UserID:   user.ID,
					Username: displayName(&user),
				})
			}
			return
		}
		if message.LeftChatMember != nil {
			registry.Leave(chatID, message.LeftChatMember.ID)
			return
		}

		if message.From == nil || message.Text == "" || message.IsCommand() {
			return
		}

		if stateManager.Get(message.From.ID) == state.StateAwaitingLocalTime {
			offset, err := curfewStore.CalibrateOffsetString(userKey(message.From), message.Text, time.Now().UTC())
			if err != nil {
				bot.SendMessage(chatID, "❗ Please enter your current local time in HH:MM format.")
				return
			}
			stateManager.Clear(message.From.ID)
			bot.SendMessage(chatID, messageService.GenerateOffsetSetMessage(offset))
		}
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down...")
		enforcerService.Stop()
		bot.Stop()
	}()

	// Start the enforcement loop and the bot
	enforcerService.Start()

	log.Info("Bot is now running. Press CTRL-C to exit.")
	if err := bot.Start(commandHandlers, defaultHandler); err != nil {
		log.Error("Error running bot: %v", err)
		os.Exit(1)
	}
}
