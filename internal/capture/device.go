// Package capture runs camera and screen scan sessions.
package capture

import (
	"image"

	"qrmaster/internal/models"
)

// Device is a frame source exclusively owned by one Session.
//
// Read blocks until the next frame is available and returns io.EOF at the
// end of the stream. Release must be safe to call after a failed Open.
type Device interface {
	Name() string
	Open() error
	Read() (image.Image, error)
	Release() error
}

// FrameDecoder finds a QR code in a single frame
type FrameDecoder interface {
	Decode(img image.Image) (models.Detection, error)
}

// ResultSink receives the one result a session produces
type ResultSink interface {
	Deliver(result models.ScanResult)
}

// ResultSinkFunc adapts a function to ResultSink
type ResultSinkFunc func(result models.ScanResult)

// Deliver calls f(result)
func (f ResultSinkFunc) Deliver(result models.ScanResult) {
	f(result)
}
