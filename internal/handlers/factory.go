package handlers

import (
	"context"
	"image"
	"io"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"qrmaster/internal/config"
	"qrmaster/internal/models"
	"qrmaster/internal/permissions"
	"qrmaster/internal/services"
)

// MessageHandler defines the interface for handling Telegram messages
type MessageHandler interface {
	Handle(ctx context.Context, c telebot.Context) error
	CanHandle(accessType permissions.AccessType) bool
}

// Encoder turns text into a QR raster
type Encoder interface {
	Generate(text string) (*models.EncodedImage, error)
}

// Decoder finds a QR code in an image
type Decoder interface {
	Decode(img image.Image) (models.Detection, error)
}

// Fetcher downloads remote images
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FileDownloader reads files attached to Telegram messages. *telebot.Bot implements it.
type FileDownloader interface {
	File(file *telebot.File) (io.ReadCloser, error)
}

// HandlerFactory creates message handlers
type HandlerFactory struct {
	stateService *services.ChatStateService
	encoder      Encoder
	decoder      Decoder
	fetcher      Fetcher
	files        FileDownloader
	config       *config.Config
	logger       *logrus.Logger
}

// NewHandlerFactory creates a new handler factory
func NewHandlerFactory(
	stateService *services.ChatStateService,
	encoder Encoder,
	decoder Decoder,
	fetcher Fetcher,
	files FileDownloader,
	config *config.Config,
	logger *logrus.Logger,
) *HandlerFactory {
	return &HandlerFactory{
		stateService: stateService,
		encoder:      encoder,
		decoder:      decoder,
		fetcher:      fetcher,
		files:        files,
		config:       config,
		logger:       logger,
	}
}

// CreateHandler creates a message handler for the given access type.
// It returns nil for chats without access.
func (f *HandlerFactory) CreateHandler(accessType permissions.AccessType) MessageHandler {
	switch accessType {
	case permissions.User:
		return NewQRHandler(f.stateService, f.encoder, f.decoder, f.fetcher, f.files, f.config, f.logger)
	default:
		f.logger.Warnf("No handler for access type: %d", accessType)
		return nil
	}
}
