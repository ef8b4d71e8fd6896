package dispatch

import (
	"sync"

	"github.com/sirupsen/logrus"

	"qrmaster/internal/models"
)

// Poster schedules a function on the UI goroutine
type Poster interface {
	Post(fn func()) bool
}

// ResultDispatcher hands one scan result from a session to a UI handler.
// It implements capture.ResultSink.
type ResultDispatcher struct {
	poster Poster
	handle func(models.ScanResult)
	once   sync.Once
	logger *logrus.Logger
}

// NewResultDispatcher creates a dispatcher that runs handle on the poster's goroutine
func NewResultDispatcher(poster Poster, handle func(models.ScanResult), logger *logrus.Logger) *ResultDispatcher {
	return &ResultDispatcher{
		poster: poster,
		handle: handle,
		logger: logger,
	}
}

// Deliver posts the handler for result. Only the first call has an effect.
func (d *ResultDispatcher) Deliver(result models.ScanResult) {
	delivered := false
	d.once.Do(func() {
		delivered = true
		if !d.poster.Post(func() { d.handle(result) }) {
			d.logger.WithField("result", result.Kind()).Warn("UI loop stopped, dropping scan result")
		}
	})
	if !delivered {
		d.logger.WithField("result", result.Kind()).Error("Scan result delivered more than once, ignoring")
	}
}
