package services

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"

	"qrmaster/internal/errors"
	"qrmaster/internal/models"
)

// ImageStore handles reading scan inputs and writing generated codes to disk
type ImageStore struct {
	logger *logrus.Logger
}

// NewImageStore creates a new image store
func NewImageStore(logger *logrus.Logger) *ImageStore {
	return &ImageStore{
		logger: logger,
	}
}

// SavePNG writes the full resolution image to path atomically
func (s *ImageStore) SavePNG(path string, encoded *models.EncodedImage) error {
	if encoded == nil {
		return &errors.IOError{Operation: "save", Path: path, Err: fmt.Errorf("no image")}
	}

	data, err := encoded.PNG()
	if err != nil {
		return &errors.IOError{Operation: "save", Path: path, Err: err}
	}

	// Write next to the target so the rename stays on one filesystem
	tmp, err := os.CreateTemp(filepath.Dir(path), ".qrmaster-*.png")
	if err != nil {
		return &errors.IOError{Operation: "save", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &errors.IOError{Operation: "save", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &errors.IOError{Operation: "save", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		s.logger.Warnf("Failed to set permissions on %s: %v", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &errors.IOError{Operation: "save", Path: path, Err: err}
	}

	s.logger.Infof("Saved QR image to %s (%dx%d)", path, encoded.Width(), encoded.Height())
	return nil
}

// Load reads an image file for scanning
func (s *ImageStore) Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errors.IOError{Operation: "open", Path: path, Err: err}
	}
	defer f.Close()

	img, err := ReadImage(f)
	if err != nil {
		return nil, &errors.IOError{Operation: "read", Path: path, Err: err}
	}

	s.logger.Debugf("Loaded %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// ReadImage decodes any registered image format from r
func ReadImage(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("empty %s image", format)
	}
	return img, nil
}
