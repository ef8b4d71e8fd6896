package services

import (
	"bytes"
	stderrors "errors"
	"image"
	"io"
	"math"
	"os"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/sirupsen/logrus"

	"qrmaster/internal/errors"
	"qrmaster/internal/models"
)

// DecoderService detects and decodes QR codes in rasters.
// It keeps no state between calls.
type DecoderService struct {
	hints  map[gozxing.DecodeHintType]interface{}
	logger *logrus.Logger
}

// NewDecoderService creates a new decoder service
func NewDecoderService(logger *logrus.Logger) *DecoderService {
	return &DecoderService{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER:    true,
			gozxing.DecodeHintType_CHARACTER_SET: "UTF-8",
		},
		logger: logger,
	}
}

// Decode looks for a QR code in img. A frame without a readable symbol
// yields an empty detection and a nil error; errors are reserved for
// input that cannot be turned into a bitmap.
func (s *DecoderService) Decode(img image.Image) (models.Detection, error) {
	if img == nil {
		return models.Detection{}, &errors.DecodeError{Message: "no image"}
	}
	if img.Bounds().Empty() {
		return models.Detection{}, &errors.DecodeError{Message: "image has no pixels"}
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return models.Detection{}, &errors.DecodeError{Message: "creating bitmap", Err: err}
	}

	// A fresh reader per call keeps the service safe for concurrent use
	result, err := qrcode.NewQRCodeReader().Decode(bmp, s.hints)
	if err != nil {
		var readerErr gozxing.ReaderException
		if stderrors.As(err, &readerErr) {
			s.logger.Tracef("No QR code in frame: %v", err)
			return models.Detection{}, nil
		}
		return models.Detection{}, &errors.DecodeError{Message: "decoding", Err: err}
	}

	detection := models.Detection{Text: result.GetText(), Corners: symbolCorners(result.GetResultPoints())}

	s.logger.Debugf("Decoded QR code with %d points", len(detection.Corners))
	return detection, nil
}

// DecodeBytes decodes an encoded image (PNG, JPEG, GIF or BMP) held in memory
func (s *DecoderService) DecodeBytes(data []byte) (models.Detection, error) {
	img, err := ReadImage(bytes.NewReader(data))
	if err != nil {
		return models.Detection{}, &errors.DecodeError{Message: "unreadable image", Err: err}
	}
	return s.Decode(img)
}

// DecodeReader reads an image from r and decodes it
func (s *DecoderService) DecodeReader(r io.Reader) (models.Detection, error) {
	img, err := ReadImage(r)
	if err != nil {
		return models.Detection{}, &errors.IOError{Operation: "read", Err: err}
	}
	return s.Decode(img)
}

// DecodeFile loads the image at path and decodes it
func (s *DecoderService) DecodeFile(path string) (models.Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Detection{}, &errors.IOError{Operation: "open", Path: path, Err: err}
	}
	defer f.Close()

	img, err := ReadImage(f)
	if err != nil {
		return models.Detection{}, &errors.IOError{Operation: "read", Path: path, Err: err}
	}
	return s.Decode(img)
}

// moduleSizer is implemented by the finder patterns gozxing reports for QR codes
type moduleSizer interface {
	GetEstimatedModuleSize() float64
}

// symbolCorners turns the finder pattern centres reported for a QR code
// (bottom-left, top-left, top-right, then an optional alignment pattern)
// into the four outer corners of the symbol, clockwise from top-left.
// Each finder centre sits 3.5 modules inside the symbol edge. When no module
// size is known the quad runs through the centres. Fewer than three points
// are returned unchanged.
func symbolCorners(points []gozxing.ResultPoint) []models.Point {
	if len(points) < 3 {
		var corners []models.Point
		for _, p := range points {
			corners = append(corners, models.Point{X: p.GetX(), Y: p.GetY()})
		}
		return corners
	}

	bl, tl, tr := points[0], points[1], points[2]

	var moduleSize float64
	sized := 0
	for _, p := range points[:3] {
		if m, ok := p.(moduleSizer); ok && m.GetEstimatedModuleSize() > 0 {
			moduleSize += m.GetEstimatedModuleSize()
			sized++
		}
	}
	if sized > 0 {
		moduleSize /= float64(sized)
	}
	offset := 3.5 * moduleSize

	ux, uy := unit(tr.GetX()-tl.GetX(), tr.GetY()-tl.GetY())
	vx, vy := unit(bl.GetX()-tl.GetX(), bl.GetY()-tl.GetY())
	brX := tr.GetX() + bl.GetX() - tl.GetX()
	brY := tr.GetY() + bl.GetY() - tl.GetY()

	corner := func(x, y, su, sv float64) models.Point {
		return models.Point{
			X: x + offset*(su*ux+sv*vx),
			Y: y + offset*(su*uy+sv*vy),
		}
	}
	return []models.Point{
		corner(tl.GetX(), tl.GetY(), -1, -1),
		corner(tr.GetX(), tr.GetY(), 1, -1),
		corner(brX, brY, 1, 1),
		corner(bl.GetX(), bl.GetY(), -1, 1),
	}
}

func unit(x, y float64) (float64, float64) {
	length := math.Hypot(x, y)
	if length == 0 {
		return 0, 0
	}
	return x / length, y / length
}
