package handlers

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"strings"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"qrmaster/internal/commands"
	"qrmaster/internal/config"
	"qrmaster/internal/errors"
	"qrmaster/internal/helpers"
	"qrmaster/internal/models"
	"qrmaster/internal/permissions"
	"qrmaster/internal/services"
	"qrmaster/internal/validation"
)

const helpMessage = `Send me any text and I will answer with its QR code.
Send me a photo or an image file with a QR code and I will read it.

/start - main menu
/last - send the last generated code again
/help - this message`

// QRHandler generates and scans QR codes for a chat
type QRHandler struct {
	BaseHandler
	commandHandlers map[string]func(context.Context, telebot.Context) error
}

// NewQRHandler creates a new QR handler
func NewQRHandler(
	stateService *services.ChatStateService,
	encoder Encoder,
	decoder Decoder,
	fetcher Fetcher,
	files FileDownloader,
	config *config.Config,
	logger *logrus.Logger,
) *QRHandler {
	handler := &QRHandler{
		BaseHandler: NewBaseHandler(stateService, encoder, decoder, fetcher, files, config, logger),
	}

	handler.initializeCommands()
	return handler
}

// CanHandle checks if the handler can handle the given access type
func (h *QRHandler) CanHandle(accessType permissions.AccessType) bool {
	return accessType == permissions.User
}

// Handle handles a message from Telegram
func (h *QRHandler) Handle(ctx context.Context, c telebot.Context) error {
	if msg := c.Message(); msg != nil && (msg.Photo != nil || msg.Document != nil) {
		return h.handleAttachment(ctx, c)
	}

	if handler, ok := h.commandHandlers[strings.TrimSpace(c.Text())]; ok {
		return handler(ctx, c)
	}

	state, err := h.stateService.GetState(c.Chat().ID)
	if err != nil {
		h.logger.Errorf("Failed to get chat state: %v", err)
		return err
	}

	switch state.State {
	case models.AwaitingImage:
		return h.handleImageURL(ctx, c)
	default:
		return h.handleGenerate(c)
	}
}

// initializeCommands initializes the command handlers
func (h *QRHandler) initializeCommands() {
	h.commandHandlers = map[string]func(context.Context, telebot.Context) error{
		commands.Start:          h.handleStart,
		commands.BotHelp:        h.handleHelp,
		commands.Last:           h.handleLast,
		commands.GenerateButton: h.handleGenerateButton,
		commands.ScanButton:     h.handleScanButton,
		commands.CancelButton:   h.handleCancel,
	}
}

func (h *QRHandler) handleStart(_ context.Context, c telebot.Context) error {
	if err := h.stateService.ClearState(c.Chat().ID); err != nil {
		h.logger.Errorf("Failed to clear chat state: %v", err)
		return err
	}
	return h.sendTextMessage(c, "Welcome to QR master!\n\n"+helpMessage, h.createMainKeyboard())
}

func (h *QRHandler) handleHelp(_ context.Context, c telebot.Context) error {
	return h.sendTextMessage(c, helpMessage, h.createMainKeyboard())
}

func (h *QRHandler) handleLast(_ context.Context, c telebot.Context) error {
	state, err := h.stateService.GetState(c.Chat().ID)
	if err != nil {
		h.logger.Errorf("Failed to get chat state: %v", err)
		return err
	}

	if state.LastImage == nil {
		return h.sendTextMessage(c, "Nothing generated yet. Send me some text first.", h.createMainKeyboard())
	}
	return h.sendQRCode(c, state.LastImage, h.createMainKeyboard())
}

func (h *QRHandler) handleGenerateButton(_ context.Context, c telebot.Context) error {
	if err := h.stateService.WithConversationState(c.Chat().ID, models.AwaitingText); err != nil {
		h.logger.Errorf("Failed to update chat state: %v", err)
		return err
	}
	return h.sendTextMessage(c, "Send me the text to encode.", h.createCancelKeyboard())
}

func (h *QRHandler) handleScanButton(_ context.Context, c telebot.Context) error {
	if err := h.stateService.WithConversationState(c.Chat().ID, models.AwaitingImage); err != nil {
		h.logger.Errorf("Failed to update chat state: %v", err)
		return err
	}
	return h.sendTextMessage(c, "Send me a photo of a QR code, an image file or an image URL.", h.createCancelKeyboard())
}

func (h *QRHandler) handleCancel(_ context.Context, c telebot.Context) error {
	if err := h.stateService.WithConversationState(c.Chat().ID, models.Default); err != nil {
		h.logger.Errorf("Failed to update chat state: %v", err)
		return err
	}
	return h.sendTextMessage(c, "Cancelled.", h.createMainKeyboard())
}

// handleGenerate encodes the message text and replies with the code
func (h *QRHandler) handleGenerate(c telebot.Context) error {
	chatID := c.Chat().ID

	text, err := validation.ValidateText(c.Text())
	if err != nil {
		return h.sendTextMessage(c, "Please send some text to encode.", h.createMainKeyboard())
	}

	encoded, err := h.encoder.Generate(text)
	if err != nil {
		h.logger.Errorf("Failed to generate QR code for chat %d: %v", chatID, err)
		return h.sendTextMessage(c, fmt.Sprintf("Failed to generate QR code: %v", err), h.createMainKeyboard())
	}

	if err := h.stateService.WithPreview(chatID, encoded); err != nil {
		h.logger.Errorf("Failed to store preview: %v", err)
	}
	if err := h.stateService.WithConversationState(chatID, models.Default); err != nil {
		h.logger.Errorf("Failed to update chat state: %v", err)
	}

	return h.sendQRCode(c, encoded, h.createMainKeyboard())
}

// handleAttachment downloads a photo or image document and decodes it
func (h *QRHandler) handleAttachment(_ context.Context, c telebot.Context) error {
	msg := c.Message()

	var file *telebot.File
	switch {
	case msg.Photo != nil:
		file = &msg.Photo.File
	case strings.HasPrefix(msg.Document.MIME, "image/") || validation.IsImagePath(msg.Document.FileName):
		file = &msg.Document.File
	default:
		return h.sendTextMessage(c, "Please send an image file.", h.createMainKeyboard())
	}

	reader, err := h.files.File(file)
	if err != nil {
		h.logger.Errorf("Failed to download file %s: %v", file.FileID, err)
		return h.sendTextMessage(c, "Could not download the image. Please try again.", h.createMainKeyboard())
	}
	defer reader.Close()

	img, err := services.ReadImage(reader)
	if err != nil {
		h.logger.Warnf("Unreadable image from chat %d: %v", c.Chat().ID, err)
		return h.sendTextMessage(c, "Could not read the image.", h.createMainKeyboard())
	}
	return h.decodeAndReply(c, img)
}

// handleImageURL downloads the image named by the message text and decodes it
func (h *QRHandler) handleImageURL(ctx context.Context, c telebot.Context) error {
	data, err := h.fetcher.Fetch(ctx, c.Text())
	if err != nil {
		var inputErr *errors.InputError
		if stderrors.As(err, &inputErr) {
			return h.sendTextMessage(c, "Please send a photo, an image file or an http(s) image URL.", h.createCancelKeyboard())
		}
		h.logger.Warnf("Failed to fetch image for chat %d: %v", c.Chat().ID, err)
		return h.sendTextMessage(c, fmt.Sprintf("Could not download the image: %v", err), h.createMainKeyboard())
	}

	img, err := services.ReadImage(bytes.NewReader(data))
	if err != nil {
		return h.sendTextMessage(c, "Could not read the image.", h.createMainKeyboard())
	}
	return h.decodeAndReply(c, img)
}

// decodeAndReply answers with the decoded text, plus a link button for URLs
func (h *QRHandler) decodeAndReply(c telebot.Context, img image.Image) error {
	chatID := c.Chat().ID

	detection, err := h.decoder.Decode(img)
	if err != nil {
		h.logger.Warnf("Failed to decode image from chat %d: %v", chatID, err)
		return h.sendTextMessage(c, "Could not read the image.", h.createMainKeyboard())
	}
	if !detection.Found() {
		return h.sendTextMessage(c, "No QR code was detected in the image.", h.createMainKeyboard())
	}

	if err := h.stateService.WithDecoded(chatID, detection.Text); err != nil {
		h.logger.Errorf("Failed to store decoded text: %v", err)
	}
	if err := h.stateService.WithConversationState(chatID, models.Default); err != nil {
		h.logger.Errorf("Failed to update chat state: %v", err)
	}

	reply := fmt.Sprintf("QR content: %s", detection.Text)
	if helpers.LooksLikeURL(detection.Text) {
		return h.sendTextMessage(c, reply, h.createLinkKeyboard(helpers.NormalizeURL(detection.Text)))
	}
	return h.sendTextMessage(c, reply, h.createMainKeyboard())
}
