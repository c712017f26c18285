// Package bot implements the Telegram operator surface: triggering scrapes,
// inspecting store status, and querying prices.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"price_tracker/internal/config"
	"price_tracker/internal/ledger"
	"price_tracker/internal/orchestrator"
	"price_tracker/internal/scraper"
	"price_tracker/internal/storage"
	"price_tracker/internal/tracker"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot that handles operator commands.
type Bot struct {
	api      telegramAPI
	store    storage.Storage
	cfg      *config.Config
	orch     *orchestrator.Orchestrator
	tracker  *tracker.Tracker
	ledger   *ledger.Ledger
	registry *scraper.Registry
	log      *slog.Logger
}

// New creates a Bot with the given Telegram token and wired components.
func New(
	token string,
	store storage.Storage,
	cfg *config.Config,
	orch *orchestrator.Orchestrator,
	tr *tracker.Tracker,
	led *ledger.Ledger,
	registry *scraper.Registry,
	log *slog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:      api,
		store:    store,
		cfg:      cfg,
		orch:     orch,
		tracker:  tr,
		ledger:   led,
		registry: registry,
		log:      log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "scrape":
		b.handleScrape(ctx, chatID, args)
	case "status":
		b.handleStatus(ctx, chatID)
	case "stop":
		b.handleStop(ctx, chatID)
	case "stores":
		b.handleStores(ctx, chatID)
	case "addstore":
		b.handleAddStore(ctx, chatID, args)
	case "pause":
		b.handlePause(ctx, chatID, args)
	case "resume":
		b.handleResume(ctx, chatID, args)
	case "search":
		b.handleSearch(ctx, chatID, args)
	case "prices":
		b.handlePrices(ctx, chatID, args)
	case "trend":
		b.handleTrend(ctx, chatID, args)
	case "products":
		b.handleProducts(ctx, chatID)
	case "addproduct":
		b.handleAddProduct(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
