package handlers

import (
	"bytes"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"qrmaster/internal/commands"
	"qrmaster/internal/config"
	"qrmaster/internal/models"
	"qrmaster/internal/services"
)

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	stateService *services.ChatStateService
	encoder      Encoder
	decoder      Decoder
	fetcher      Fetcher
	files        FileDownloader
	config       *config.Config
	logger       *logrus.Logger
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(
	stateService *services.ChatStateService,
	encoder Encoder,
	decoder Decoder,
	fetcher Fetcher,
	files FileDownloader,
	config *config.Config,
	logger *logrus.Logger,
) BaseHandler {
	return BaseHandler{
		stateService: stateService,
		encoder:      encoder,
		decoder:      decoder,
		fetcher:      fetcher,
		files:        files,
		config:       config,
		logger:       logger,
	}
}

// sendTextMessage sends a text message with optional markup
func (h *BaseHandler) sendTextMessage(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	opts := &telebot.SendOptions{}
	if markup != nil {
		opts.ReplyMarkup = markup
	}

	err := c.Send(text, opts)
	if err != nil {
		h.logger.Errorf("Failed to send message: %v", err)
	}
	return err
}

// sendQRCode sends a generated code as a PNG photo
func (h *BaseHandler) sendQRCode(c telebot.Context, encoded *models.EncodedImage, markup *telebot.ReplyMarkup) error {
	qrBytes, err := encoded.PNG()
	if err != nil {
		h.logger.Errorf("Failed to encode QR code: %v", err)
		return err
	}

	photo := &telebot.Photo{
		File:    telebot.FromReader(bytes.NewReader(qrBytes)),
		Caption: encoded.Text,
	}

	opts := &telebot.SendOptions{}
	if markup != nil {
		opts.ReplyMarkup = markup
	}

	err = c.Send(photo, opts)
	if err != nil {
		h.logger.Errorf("Failed to send QR code: %v", err)
	}
	return err
}

// createMainKeyboard creates the main keyboard
func (h *BaseHandler) createMainKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard: true,
	}

	markup.Reply(
		telebot.Row{
			telebot.Btn{Text: commands.GenerateButton},
			telebot.Btn{Text: commands.ScanButton},
		},
	)
	return markup
}

// createCancelKeyboard creates a keyboard with a cancel button
func (h *BaseHandler) createCancelKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard: true,
	}

	markup.Reply(
		telebot.Row{
			telebot.Btn{Text: commands.CancelButton},
		},
	)
	return markup
}

// createLinkKeyboard creates an inline button opening url
func (h *BaseHandler) createLinkKeyboard(url string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.Inline(markup.Row(markup.URL("Open link", url)))
	return markup
}
