package capture

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"qrmaster/internal/models"
)

// State is the lifecycle position of a Session
type State int32

const (
	// Idle means the session has not started
	Idle State = iota
	// Opening means the device is being acquired
	Opening
	// Running means frames are being read and decoded
	Running
	// Terminated means the device was released and the result emitted
	Terminated
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Opening:
		return "opening"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// SessionOptions holds the optional collaborators of a Session
type SessionOptions struct {
	// LiveView receives every processed frame, annotated when a code was found
	LiveView LiveView
	// MaxFrames ends the session with NotFound after this many frames, 0 means unlimited
	MaxFrames int
}

// Session is one camera or screen scan attempt, from device open to device release.
// Open, Read and Release happen on the session's own goroutine. The result is
// handed to the sink only after the device has been released.
type Session struct {
	id        string
	device    Device
	decoder   FrameDecoder
	sink      ResultSink
	liveView  LiveView
	maxFrames int

	state     atomic.Int32
	cancelled atomic.Bool
	started   atomic.Bool
	done      chan struct{}
	resultMu  sync.Mutex
	result    models.ScanResult
	logger    *logrus.Entry
}

// NewSession creates a session in the Idle state
func NewSession(device Device, decoder FrameDecoder, sink ResultSink, opts SessionOptions, logger *logrus.Logger) *Session {
	id := uuid.NewString()
	liveView := opts.LiveView
	if liveView == nil {
		liveView = NopLiveView{}
	}

	return &Session{
		id:        id,
		device:    device,
		decoder:   decoder,
		sink:      sink,
		liveView:  liveView,
		maxFrames: opts.MaxFrames,
		done:      make(chan struct{}),
		logger: logger.WithFields(logrus.Fields{
			"session": id,
			"device":  device.Name(),
		}),
	}
}

// ID returns the session identifier used in logs
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

// Done is closed once the result has been handed to the sink
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Result returns the session result. It is only meaningful after Done is closed.
func (s *Session) Result() models.ScanResult {
	s.resultMu.Lock()
	defer s.resultMu.Unlock()
	return s.result
}

// Cancel asks the session to stop. It is checked once per frame, after detection.
func (s *Session) Cancel() {
	if s.cancelled.CompareAndSwap(false, true) {
		s.logger.Info("Scan cancelled by user")
	}
}

// Start runs the session on a new goroutine
func (s *Session) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run executes the whole session on the calling goroutine and returns its result.
// A session runs at most once; later calls return the first result after it is ready.
func (s *Session) Run(ctx context.Context) models.ScanResult {
	if !s.started.CompareAndSwap(false, true) {
		<-s.done
		return s.Result()
	}

	result := s.acquire(ctx)

	s.resultMu.Lock()
	s.result = result
	s.resultMu.Unlock()

	s.setState(Terminated)
	s.logger.WithField("result", result.Kind()).Info("Scan session finished")

	// The device is released at this point
	s.sink.Deliver(result)
	close(s.done)
	return result
}

// acquire opens the device, runs the frame loop and always releases the device
func (s *Session) acquire(ctx context.Context) (result models.ScanResult) {
	defer s.release()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Capture loop panicked: %v", r)
			result = models.DeviceErrorResult(fmt.Sprintf("capture failed: %v", r))
		}
	}()

	s.setState(Opening)
	s.logger.Info("Opening capture device")
	if err := s.device.Open(); err != nil {
		s.logger.Errorf("Failed to open capture device: %v", err)
		return models.DeviceErrorResult(err.Error())
	}

	s.setState(Running)
	return s.loop(ctx)
}

func (s *Session) loop(ctx context.Context) models.ScanResult {
	frames := 0
	for {
		if s.maxFrames > 0 && frames >= s.maxFrames {
			s.logger.Infof("Stopping after %d frames without a code", frames)
			return models.NotFoundResult()
		}

		frame, err := s.device.Read()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				s.logger.Info("Capture stream ended")
			} else {
				s.logger.Warnf("Failed to read frame: %v", err)
			}
			return models.NotFoundResult()
		}
		frames++

		detection, err := s.decoder.Decode(frame)
		if err != nil {
			s.logger.Warnf("Skipping unreadable frame %d: %v", frames, err)
		} else if detection.Found() {
			s.liveView.Show(DrawOverlay(models.DetectionOverlay{Corners: detection.Corners, Frame: frame}))
			s.logger.WithField("frames", frames).Info("QR code detected")
			return models.DecodedResult(detection.Text)
		}

		s.liveView.Show(frame)

		// Detection wins over a cancel that arrived during the same frame
		if s.cancelled.Load() || ctx.Err() != nil {
			return models.NotFoundResult()
		}
	}
}

// release frees the device. A panic here is logged and does not replace the
// result the session already computed.
func (s *Session) release() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Capture device release panicked: %v", r)
		}
	}()
	if err := s.device.Release(); err != nil {
		s.logger.Warnf("Failed to release capture device: %v", err)
		return
	}
	s.logger.Debug("Capture device released")
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}
