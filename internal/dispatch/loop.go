// Package dispatch moves work from background goroutines onto the UI goroutine.
package dispatch

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventLoop runs posted functions one at a time on the goroutine that calls Run.
// Post never blocks, so capture goroutines can hand over results at any time.
type EventLoop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
	stop    chan struct{}
	logger  *logrus.Logger
}

// NewEventLoop creates an event loop that is not yet running
func NewEventLoop(logger *logrus.Logger) *EventLoop {
	return &EventLoop{
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		logger: logger,
	}
}

// Post queues fn for the UI goroutine. It returns false once the loop has stopped.
func (l *EventLoop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Stop ends Run after the function currently executing returns.
// Functions still queued are discarded.
func (l *EventLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	close(l.stop)
}

// Run executes posted functions until Stop is called or ctx is done
func (l *EventLoop) Run(ctx context.Context) error {
	l.logger.Debug("UI event loop started")
	defer l.logger.Debug("UI event loop stopped")

	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.stop:
			return nil
		case <-l.wake:
		}

		for _, fn := range l.take() {
			if l.isStopped() {
				return nil
			}
			fn()
		}
	}
}

func (l *EventLoop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch
}

func (l *EventLoop) isStopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}
