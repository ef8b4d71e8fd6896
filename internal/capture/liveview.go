package capture

import (
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// LiveView shows frames to the user while a session runs
type LiveView interface {
	Show(frame image.Image)
}

// NopLiveView discards frames
type NopLiveView struct{}

// Show does nothing
func (NopLiveView) Show(image.Image) {}

// FileLiveView keeps the latest frame in a PNG file that an image viewer can watch
type FileLiveView struct {
	path   string
	logger *logrus.Logger
}

// NewFileLiveView creates a live view writing to path
func NewFileLiveView(path string, logger *logrus.Logger) *FileLiveView {
	return &FileLiveView{
		path:   path,
		logger: logger,
	}
}

// Show replaces the file with frame. Write failures are logged and ignored.
func (v *FileLiveView) Show(frame image.Image) {
	tmp, err := os.CreateTemp(filepath.Dir(v.path), ".liveview-*.png")
	if err != nil {
		v.logger.Debugf("Live view unavailable: %v", err)
		return
	}

	err = png.Encode(tmp, frame)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), v.path)
	}
	if err != nil {
		os.Remove(tmp.Name())
		v.logger.Debugf("Failed to update live view: %v", err)
	}
}
