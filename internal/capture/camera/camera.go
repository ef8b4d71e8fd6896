// Package camera reads frames from the default webcam through GStreamer.
package camera

import (
	"fmt"
	"image"
	"io"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"qrmaster/internal/config"
	apperrors "qrmaster/internal/errors"
)

var initOnce sync.Once

// CameraDevice is a capture.Device backed by a GStreamer appsink pipeline
type CameraDevice struct {
	cfg      config.CameraConfig
	logger   *logrus.Logger
	pipeline *gst.Pipeline
	sink     *app.Sink
}

// NewCameraDevice creates a camera device. Nothing is opened until Open.
func NewCameraDevice(cfg config.CameraConfig, logger *logrus.Logger) *CameraDevice {
	return &CameraDevice{
		cfg:    cfg,
		logger: logger,
	}
}

// Name returns the device name used in logs
func (c *CameraDevice) Name() string {
	return fmt.Sprintf("camera:%d", c.cfg.Index)
}

// Open builds the pipeline and starts it
func (c *CameraDevice) Open() error {
	initOnce.Do(func() { gst.Init(nil) })

	launch := buildLaunch(c.cfg, runtime.GOOS)
	c.logger.WithField("pipeline", launch).Debug("Starting camera pipeline")

	pipeline, err := gst.NewPipelineFromString(launch)
	if err != nil {
		return c.deviceError("failed to build pipeline", err)
	}
	c.pipeline = pipeline

	element, err := pipeline.GetElementByName(sinkName)
	if err != nil {
		return c.deviceError("appsink not found", err)
	}
	c.sink = app.SinkFromElement(element)

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return c.deviceError("Could not open the default camera", err)
	}
	return nil
}

// Read blocks for the next frame
func (c *CameraDevice) Read() (image.Image, error) {
	if c.sink == nil {
		return nil, c.deviceError("camera is not open", nil)
	}

	sample := c.sink.PullSample()
	if sample == nil {
		if c.sink.IsEOS() {
			return nil, io.EOF
		}
		if err := c.busError(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil, c.deviceError("sample without buffer", nil)
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	pix := make([]byte, len(data))
	copy(pix, data)
	buffer.Unmap()

	width, height := c.cfg.Width, c.cfg.Height
	if len(pix) < 4*width*height {
		return nil, c.deviceError(fmt.Sprintf("short frame: %d bytes for %dx%d", len(pix), width, height), nil)
	}

	return &image.RGBA{
		Pix:    pix,
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

// Release stops the pipeline. It is safe after a failed Open.
func (c *CameraDevice) Release() error {
	if c.pipeline == nil {
		return nil
	}
	err := c.pipeline.SetState(gst.StateNull)
	c.pipeline = nil
	c.sink = nil
	if err != nil {
		return c.deviceError("failed to stop pipeline", err)
	}
	return nil
}

// busError returns the first error message waiting on the pipeline bus
func (c *CameraDevice) busError() error {
	bus := c.pipeline.GetPipelineBus()
	for msg := bus.Pop(); msg != nil; msg = bus.Pop() {
		if msg.Type() == gst.MessageError {
			gerr := msg.ParseError()
			c.logger.WithField("debug", gerr.DebugString()).Warn("Camera pipeline error")
			return c.deviceError(gerr.Error(), nil)
		}
	}
	return nil
}

func (c *CameraDevice) deviceError(message string, err error) error {
	return &apperrors.DeviceError{
		Device:  c.Name(),
		Message: message,
		Err:     err,
	}
}
