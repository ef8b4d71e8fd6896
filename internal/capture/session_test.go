package capture

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"qrmaster/internal/models"
)

// eventLog records the order of device and sink events
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) count(event string) int {
	n := 0
	for _, e := range l.snapshot() {
		if e == event {
			n++
		}
	}
	return n
}

type fakeDevice struct {
	log       *eventLog
	openErr   error
	frames    int // frames before io.EOF, 0 means endless
	readErr   error
	panicRead    bool
	panicRelease bool
	reads        int
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) Open() error {
	d.log.add("open")
	return d.openErr
}

func (d *fakeDevice) Read() (image.Image, error) {
	if d.panicRead {
		panic("driver crashed")
	}
	if d.readErr != nil {
		return nil, d.readErr
	}
	if d.frames > 0 && d.reads >= d.frames {
		return nil, io.EOF
	}
	d.reads++
	d.log.add("read")
	return image.NewRGBA(image.Rect(0, 0, 40, 40)), nil
}

func (d *fakeDevice) Release() error {
	d.log.add("release")
	if d.panicRelease {
		panic("release crashed")
	}
	return nil
}

// scriptedDecoder decides per frame number (1-based) what to report
type scriptedDecoder struct {
	calls  int
	decide func(frame int) (models.Detection, error)
}

func (d *scriptedDecoder) Decode(img image.Image) (models.Detection, error) {
	d.calls++
	if d.decide == nil {
		return models.Detection{}, nil
	}
	return d.decide(d.calls)
}

type recordingView struct {
	frames []image.Image
}

func (v *recordingView) Show(frame image.Image) {
	v.frames = append(v.frames, frame)
}

func found(text string) models.Detection {
	return models.Detection{
		Text:    text,
		Corners: []models.Point{{X: 5, Y: 5}, {X: 30, Y: 5}, {X: 30, Y: 30}, {X: 5, Y: 30}},
	}
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newRecordingSink(log *eventLog, results *[]models.ScanResult) ResultSink {
	return ResultSinkFunc(func(result models.ScanResult) {
		log.add("deliver")
		*results = append(*results, result)
	})
}

// assertReleaseBeforeDeliver checks the tail of the event log
func assertReleaseBeforeDeliver(t *testing.T, log *eventLog) {
	t.Helper()
	events := log.snapshot()
	if log.count("release") != 1 {
		t.Fatalf("release called %d times: %v", log.count("release"), events)
	}
	if log.count("deliver") != 1 {
		t.Fatalf("deliver called %d times: %v", log.count("deliver"), events)
	}
	n := len(events)
	if n < 2 || events[n-2] != "release" || events[n-1] != "deliver" {
		t.Fatalf("expected release then deliver at the end, got %v", events)
	}
}

func TestSessionExitPaths(t *testing.T) {
	tests := []struct {
		name      string
		device    func(log *eventLog) *fakeDevice
		decide    func(s **Session) func(frame int) (models.Detection, error)
		wantKind  models.ScanKind
		wantText  string
		wantReads int
	}{
		{
			name:   "decoded on third frame",
			device: func(log *eventLog) *fakeDevice { return &fakeDevice{log: log} },
			decide: func(**Session) func(int) (models.Detection, error) {
				return func(frame int) (models.Detection, error) {
					if frame == 3 {
						return found("hello"), nil
					}
					return models.Detection{}, nil
				}
			},
			wantKind:  models.ScanDecoded,
			wantText:  "hello",
			wantReads: 3,
		},
		{
			name:   "cancelled by user",
			device: func(log *eventLog) *fakeDevice { return &fakeDevice{log: log} },
			decide: func(s **Session) func(int) (models.Detection, error) {
				return func(frame int) (models.Detection, error) {
					if frame == 5 {
						(*s).Cancel()
					}
					return models.Detection{}, nil
				}
			},
			wantKind:  models.ScanNotFound,
			wantReads: 5,
		},
		{
			name:   "detection wins over cancel in the same frame",
			device: func(log *eventLog) *fakeDevice { return &fakeDevice{log: log} },
			decide: func(s **Session) func(int) (models.Detection, error) {
				return func(frame int) (models.Detection, error) {
					if frame == 2 {
						(*s).Cancel()
						return found("raced"), nil
					}
					return models.Detection{}, nil
				}
			},
			wantKind:  models.ScanDecoded,
			wantText:  "raced",
			wantReads: 2,
		},
		{
			name:      "stream ends",
			device:    func(log *eventLog) *fakeDevice { return &fakeDevice{log: log, frames: 4} },
			wantKind:  models.ScanNotFound,
			wantReads: 4,
		},
		{
			name:      "read failure ends the stream",
			device:    func(log *eventLog) *fakeDevice { return &fakeDevice{log: log, readErr: errors.New("usb unplugged")} },
			wantKind:  models.ScanNotFound,
			wantReads: 0,
		},
		{
			name:      "open failure",
			device:    func(log *eventLog) *fakeDevice { return &fakeDevice{log: log, openErr: errors.New("no camera")} },
			wantKind:  models.ScanDeviceError,
			wantReads: 0,
		},
		{
			name:      "panic in the loop",
			device:    func(log *eventLog) *fakeDevice { return &fakeDevice{log: log, panicRead: true} },
			wantKind:  models.ScanDeviceError,
			wantReads: 0,
		},
		{
			name:   "unreadable frames are skipped",
			device: func(log *eventLog) *fakeDevice { return &fakeDevice{log: log} },
			decide: func(**Session) func(int) (models.Detection, error) {
				return func(frame int) (models.Detection, error) {
					if frame < 3 {
						return models.Detection{}, errors.New("bad frame")
					}
					return found("after errors"), nil
				}
			},
			wantKind:  models.ScanDecoded,
			wantText:  "after errors",
			wantReads: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &eventLog{}
			device := tt.device(log)
			var results []models.ScanResult

			var session *Session
			decoder := &scriptedDecoder{}
			if tt.decide != nil {
				decoder.decide = tt.decide(&session)
			}
			session = NewSession(device, decoder, newRecordingSink(log, &results), SessionOptions{}, newTestLogger())

			result := session.Run(context.Background())

			if result.Kind() != tt.wantKind {
				t.Fatalf("result = %v, want kind %v", result, tt.wantKind)
			}
			if result.Text() != tt.wantText {
				t.Errorf("text = %q, want %q", result.Text(), tt.wantText)
			}
			if tt.wantKind == models.ScanDeviceError && result.Message() == "" {
				t.Errorf("device error without message")
			}
			if device.reads != tt.wantReads {
				t.Errorf("reads = %d, want %d", device.reads, tt.wantReads)
			}
			if len(results) != 1 || results[0] != result {
				t.Errorf("sink got %v, want exactly [%v]", results, result)
			}
			if session.State() != Terminated {
				t.Errorf("state = %v, want terminated", session.State())
			}
			assertReleaseBeforeDeliver(t, log)
		})
	}
}

func TestSessionReleasePanicKeepsResult(t *testing.T) {
	tests := []struct {
		name     string
		device   func(log *eventLog) *fakeDevice
		decide   func(frame int) (models.Detection, error)
		wantKind models.ScanKind
		wantText string
	}{
		{
			name:   "after a decode",
			device: func(log *eventLog) *fakeDevice { return &fakeDevice{log: log, panicRelease: true} },
			decide: func(frame int) (models.Detection, error) {
				return found("kept"), nil
			},
			wantKind: models.ScanDecoded,
			wantText: "kept",
		},
		{
			name:     "after a stream end",
			device:   func(log *eventLog) *fakeDevice { return &fakeDevice{log: log, frames: 2, panicRelease: true} },
			wantKind: models.ScanNotFound,
		},
		{
			name: "after an open failure",
			device: func(log *eventLog) *fakeDevice {
				return &fakeDevice{log: log, openErr: errors.New("no camera"), panicRelease: true}
			},
			wantKind: models.ScanDeviceError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &eventLog{}
			var results []models.ScanResult
			session := NewSession(tt.device(log), &scriptedDecoder{decide: tt.decide}, newRecordingSink(log, &results), SessionOptions{}, newTestLogger())

			result := session.Run(context.Background())

			if result.Kind() != tt.wantKind || result.Text() != tt.wantText {
				t.Fatalf("result = %v, want kind %v text %q", result, tt.wantKind, tt.wantText)
			}
			if len(results) != 1 || results[0] != result {
				t.Errorf("sink got %v, want exactly [%v]", results, result)
			}
			if session.State() != Terminated {
				t.Errorf("state = %v, want terminated", session.State())
			}
			assertReleaseBeforeDeliver(t, log)
		})
	}
}

func TestSessionContextCancel(t *testing.T) {
	log := &eventLog{}
	var results []models.ScanResult
	ctx, cancel := context.WithCancel(context.Background())

	decoder := &scriptedDecoder{decide: func(frame int) (models.Detection, error) {
		if frame == 2 {
			cancel()
		}
		return models.Detection{}, nil
	}}
	session := NewSession(&fakeDevice{log: log}, decoder, newRecordingSink(log, &results), SessionOptions{}, newTestLogger())

	if result := session.Run(ctx); result.Kind() != models.ScanNotFound {
		t.Fatalf("result = %v, want NotFound", result)
	}
	assertReleaseBeforeDeliver(t, log)
}

func TestSessionMaxFrames(t *testing.T) {
	log := &eventLog{}
	var results []models.ScanResult
	device := &fakeDevice{log: log}

	session := NewSession(device, &scriptedDecoder{}, newRecordingSink(log, &results), SessionOptions{MaxFrames: 7}, newTestLogger())
	if result := session.Run(context.Background()); result.Kind() != models.ScanNotFound {
		t.Fatalf("result = %v", result)
	}
	if device.reads != 7 {
		t.Errorf("reads = %d, want 7", device.reads)
	}
}

func TestSessionStartIsAsynchronous(t *testing.T) {
	log := &eventLog{}
	delivered := make(chan models.ScanResult, 2)
	sink := ResultSinkFunc(func(result models.ScanResult) {
		log.add("deliver")
		delivered <- result
	})

	decoder := &scriptedDecoder{decide: func(frame int) (models.Detection, error) {
		if frame == 10 {
			return found("async"), nil
		}
		return models.Detection{}, nil
	}}
	session := NewSession(&fakeDevice{log: log}, decoder, sink, SessionOptions{}, newTestLogger())
	if session.State() != Idle {
		t.Fatalf("state = %v, want idle", session.State())
	}

	session.Start(context.Background())

	select {
	case result := <-delivered:
		if result.Text() != "async" {
			t.Errorf("result = %v", result)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session did not deliver a result")
	}
	<-session.Done()

	// A second Run does not start another attempt
	if result := session.Run(context.Background()); result.Text() != "async" {
		t.Errorf("second Run = %v", result)
	}
	if log.count("open") != 1 || log.count("deliver") != 1 {
		t.Errorf("events = %v", log.snapshot())
	}
}

func TestSessionLiveView(t *testing.T) {
	log := &eventLog{}
	var results []models.ScanResult
	view := &recordingView{}

	decoder := &scriptedDecoder{decide: func(frame int) (models.Detection, error) {
		if frame == 2 {
			return found("shown"), nil
		}
		return models.Detection{}, nil
	}}
	session := NewSession(&fakeDevice{log: log}, decoder, newRecordingSink(log, &results), SessionOptions{LiveView: view}, newTestLogger())
	session.Run(context.Background())

	if len(view.frames) != 2 {
		t.Fatalf("live view got %d frames, want 2", len(view.frames))
	}
	annotated, ok := view.frames[1].(*image.RGBA)
	if !ok {
		t.Fatalf("last frame is %T, want annotated *image.RGBA", view.frames[1])
	}
	if c := annotated.RGBAAt(5, 5); c != overlayColor {
		t.Errorf("corner pixel = %v, want overlay color", c)
	}
}
