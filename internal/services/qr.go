package services

import (
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"qrmaster/internal/errors"
	"qrmaster/internal/models"
)

// QRService provides QR code generation functionality
type QRService struct {
	moduleSize int
	logger     *logrus.Logger
}

// NewQRService creates a new QR code service rendering moduleSize pixels per module
func NewQRService(moduleSize int, logger *logrus.Logger) *QRService {
	return &QRService{
		moduleSize: moduleSize,
		logger:     logger,
	}
}

// Generate encodes text with medium error correction and the library's
// four module quiet zone. The caller rejects empty text before calling.
func (s *QRService) Generate(text string) (*models.EncodedImage, error) {
	s.logger.Debugf("Generating QR code for %d bytes of text", len(text))

	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		s.logger.Errorf("Failed to generate QR code: %v", err)
		return nil, &errors.EncodingError{Length: len(text), Err: err}
	}

	// A negative size asks the library for a fixed number of pixels per module
	img := qr.Image(-s.moduleSize)

	return &models.EncodedImage{
		Text:    text,
		Image:   img,
		Modules: qr.Bitmap(),
	}, nil
}

// GenerateQR generates a PNG encoded QR code for the given text
func (s *QRService) GenerateQR(text string) ([]byte, error) {
	encoded, err := s.Generate(text)
	if err != nil {
		return nil, err
	}

	png, err := encoded.PNG()
	if err != nil {
		s.logger.Errorf("Failed to encode PNG: %v", err)
		return nil, &errors.EncodingError{Length: len(text), Err: err}
	}
	return png, nil
}
