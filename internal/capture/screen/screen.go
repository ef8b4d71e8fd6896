// Package screen grabs screenshots of one display as a frame source.
package screen

import (
	"fmt"
	"image"
	"time"

	"github.com/kbinani/screenshot"
	"github.com/sirupsen/logrus"

	"qrmaster/internal/config"
	apperrors "qrmaster/internal/errors"
)

// ScreenDevice is a capture.Device that returns a screenshot every interval
type ScreenDevice struct {
	cfg    config.ScreenConfig
	logger *logrus.Logger
	bounds image.Rectangle
	last   time.Time
	open   bool

	displays  func() int
	boundsOf  func(display int) image.Rectangle
	captureFn func(bounds image.Rectangle) (*image.RGBA, error)
	now       func() time.Time
	sleep     func(d time.Duration)
}

// NewScreenDevice creates a screen device for the configured display
func NewScreenDevice(cfg config.ScreenConfig, logger *logrus.Logger) *ScreenDevice {
	return &ScreenDevice{
		cfg:       cfg,
		logger:    logger,
		displays:  screenshot.NumActiveDisplays,
		boundsOf:  screenshot.GetDisplayBounds,
		captureFn: screenshot.CaptureRect,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Name returns the device name used in logs
func (s *ScreenDevice) Name() string {
	return fmt.Sprintf("screen:%d", s.cfg.Display)
}

// Open resolves the display bounds
func (s *ScreenDevice) Open() error {
	count := s.displays()
	if s.cfg.Display < 0 || s.cfg.Display >= count {
		return &apperrors.DeviceError{
			Device:  s.Name(),
			Message: fmt.Sprintf("display %d not available, %d active", s.cfg.Display, count),
		}
	}

	s.bounds = s.boundsOf(s.cfg.Display)
	s.last = time.Time{}
	s.open = true
	s.logger.WithField("bounds", s.bounds).Debug("Capturing screen")
	return nil
}

// Read waits for the next interval and captures the display
func (s *ScreenDevice) Read() (image.Image, error) {
	if !s.open {
		return nil, &apperrors.DeviceError{Device: s.Name(), Message: "screen is not open"}
	}

	if !s.last.IsZero() {
		if wait := s.cfg.Interval - s.now().Sub(s.last); wait > 0 {
			s.sleep(wait)
		}
	}
	s.last = s.now()

	img, err := s.captureFn(s.bounds)
	if err != nil {
		return nil, &apperrors.DeviceError{Device: s.Name(), Message: "screenshot failed", Err: err}
	}
	return img, nil
}

// Release marks the device closed
func (s *ScreenDevice) Release() error {
	s.open = false
	return nil
}
