// Package telegrambot wires the QR handlers into a long polling Telegram bot.
package telegrambot

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"qrmaster/internal/commands"
	"qrmaster/internal/config"
	apperrors "qrmaster/internal/errors"
	"qrmaster/internal/handlers"
	"qrmaster/internal/permissions"
	"qrmaster/internal/services"
)

// Bot represents a Telegram bot
type Bot struct {
	bot      *telebot.Bot
	config   *config.Config
	handlers map[permissions.AccessType]handlers.MessageHandler
	permCtrl *permissions.PermissionController
	logger   *logrus.Logger
}

// NewBot creates a new Telegram bot
func NewBot(
	cfg *config.Config,
	stateService *services.ChatStateService,
	encoder handlers.Encoder,
	decoder handlers.Decoder,
	fetcher handlers.Fetcher,
	permCtrl *permissions.PermissionController,
	logger *logrus.Logger,
) (*Bot, error) {
	settings := telebot.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			logger.Errorf("Telegram bot error: %v", err)
			if c != nil {
				c.Send("An error occurred. Please try again later.")
			}
		},
	}

	b, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	factory := handlers.NewHandlerFactory(stateService, encoder, decoder, fetcher, b, cfg, logger)

	bot := &Bot{
		bot:      b,
		config:   cfg,
		handlers: make(map[permissions.AccessType]handlers.MessageHandler),
		permCtrl: permCtrl,
		logger:   logger,
	}
	bot.handlers[permissions.User] = factory.CreateHandler(permissions.User)

	bot.setupMiddleware()

	return bot, nil
}

// Start polls for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Infof("Starting Telegram bot @%s", b.bot.Me.Username)

	go func() {
		<-ctx.Done()
		b.logger.Info("Stopping Telegram bot")
		b.bot.Stop()
	}()

	b.bot.Start()
	return nil
}

// setupMiddleware sets up logging and the update routes
func (b *Bot) setupMiddleware() {
	b.bot.Use(func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			b.logger.WithFields(logrus.Fields{
				"chat":   c.Chat().ID,
				"sender": c.Sender().ID,
			}).Infof("Received message: %q", c.Text())
			return next(c)
		}
	})

	b.bot.Handle(telebot.OnText, b.handleUpdate)
	b.bot.Handle(telebot.OnPhoto, b.handleUpdate)
	b.bot.Handle(telebot.OnDocument, b.handleUpdate)
	b.bot.Handle(commands.Start, b.handleUpdate)
	b.bot.Handle(commands.BotHelp, b.handleUpdate)
	b.bot.Handle(commands.Last, b.handleUpdate)
}

// handleUpdate routes an update to the handler for the chat's access type
func (b *Bot) handleUpdate(c telebot.Context) error {
	accessType := b.permCtrl.GetAccessType(c.Chat().ID)

	handler, ok := b.handlers[accessType]
	if !ok || handler == nil {
		b.logger.Warn(&apperrors.PermissionError{ChatID: c.Chat().ID})
		return c.Send("You don't have permission to use this bot.")
	}

	return handler.Handle(context.Background(), c)
}
