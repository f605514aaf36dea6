package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/docutag/reviewbot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Querier handles one product query
type Querier interface {
	Handle(ctx context.Context, raw string) models.Outcome
}

// Sender delivers one outbound Telegram message
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Config contains Telegram transport configuration
type Config struct {
	Token       string
	HTTPTimeout time.Duration // per Telegram API call
	PollTimeout time.Duration // long-poll duration for getUpdates
	Workers     int           // concurrent queries
}

// DefaultConfig returns default transport settings
func DefaultConfig() Config {
	return Config{
		HTTPTimeout: 60 * time.Second,
		PollTimeout: 60 * time.Second,
		Workers:     4,
	}
}

// Connect authenticates against the Telegram Bot API
func Connect(config Config) (*tgbotapi.BotAPI, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	client := &http.Client{
		// long polling holds the request open for PollTimeout
		Timeout:   config.HTTPTimeout + config.PollTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	api, err := tgbotapi.NewBotAPIWithClient(config.Token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return api, nil
}

// Bot dispatches chat messages to the query service and sends the replies
type Bot struct {
	sender  Sender
	querier Querier
	workers int
	logger  *slog.Logger
}

// New creates a Bot
func New(sender Sender, querier Querier, workers int, logger *slog.Logger) *Bot {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		sender:  sender,
		querier: querier,
		workers: workers,
		logger:  logger,
	}
}

// Run long-polls Telegram for updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI, pollTimeout time.Duration) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(pollTimeout.Seconds())

	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	b.logger.Info("telegram bot started", "username", api.Self.UserName, "workers", b.workers)
	b.Serve(ctx, updates)
	b.logger.Info("telegram bot stopped")
}

// Serve handles updates with at most b.workers queries in flight.
// It returns when updates is closed or ctx is cancelled, after in-flight
// queries finish.
func (b *Bot) Serve(ctx context.Context, updates <-chan tgbotapi.Update) {
	sem := make(chan struct{}, b.workers)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || msg.Chat == nil {
				continue
			}

			if msg.IsCommand() {
				if msg.Command() == "start" {
					b.send(tgbotapi.NewMessage(msg.Chat.ID, GreetingText))
				}
				continue
			}
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			wg.Add(1)
			go func(chatID int64, text string) {
				defer wg.Done()
				defer func() { <-sem }()
				b.handleQuery(ctx, chatID, text)
			}(msg.Chat.ID, msg.Text)
		}
	}
}

func (b *Bot) handleQuery(ctx context.Context, chatID int64, text string) {
	outcome := b.querier.Handle(ctx, text)

	for _, reply := range FormatReply(outcome) {
		if reply.IsPhoto() {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(reply.PhotoURL))
			photo.Caption = reply.Caption
			b.send(photo)
			continue
		}
		b.send(tgbotapi.NewMessage(chatID, reply.Text))
	}
}

// send delivers c. Failures are logged and the bot keeps serving.
func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.sender.Send(c); err != nil {
		if isConnectivityError(err) {
			b.logger.Error("telegram unreachable, check the internet connection or VPN", "error", err)
			return
		}
		b.logger.Error("failed to send telegram message", "error", err)
	}
}

func isConnectivityError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
