// Package ui holds the interactive front end: the Controller that owns the
// preview and the last decoded text, and the shells that present them.
package ui

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"qrmaster/internal/capture"
	"qrmaster/internal/constants"
	"qrmaster/internal/dispatch"
	"qrmaster/internal/helpers"
	"qrmaster/internal/models"
	"qrmaster/internal/services"
	"qrmaster/internal/validation"
)

// ScanSource names a live capture device
type ScanSource string

const (
	SourceCamera ScanSource = "camera"
	SourceScreen ScanSource = "screen"
)

// Encoder turns text into a QR raster
type Encoder interface {
	Generate(text string) (*models.EncodedImage, error)
}

// ImageStorage saves generated codes and loads images to scan
type ImageStorage interface {
	SavePNG(path string, encoded *models.EncodedImage) error
	Load(path string) (image.Image, error)
}

// Launcher opens decoded URLs
type Launcher interface {
	Open(url string)
}

// Fetcher downloads remote images
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DeviceFactory creates a fresh device for a live scan
type DeviceFactory func(source ScanSource) (capture.Device, error)

// ControllerDeps are the collaborators of a Controller
type ControllerDeps struct {
	Shell    Shell
	Loop     dispatch.Poster
	Encoder  Encoder
	Decoder  capture.FrameDecoder
	Storage  ImageStorage
	Launcher Launcher
	Fetcher  Fetcher
	Devices  DeviceFactory
	// LiveView shows capture frames and the preview thumbnail, optional
	LiveView    capture.LiveView
	PreviewSize int
	MaxFrames   int
}

// Controller handles user events. Every method must run on the UI loop;
// background work posts its completion back onto the loop.
type Controller struct {
	ctx         context.Context
	shell       Shell
	loop        dispatch.Poster
	encoder     Encoder
	decoder     capture.FrameDecoder
	storage     ImageStorage
	launcher    Launcher
	fetcher     Fetcher
	devices     DeviceFactory
	liveView    capture.LiveView
	previewSize int
	maxFrames   int
	logger      *logrus.Logger

	preview     *models.EncodedImage
	decodedText string
	active      *capture.Session
}

// NewController creates a controller. ctx bounds every scan it starts.
func NewController(ctx context.Context, deps ControllerDeps, logger *logrus.Logger) *Controller {
	liveView := deps.LiveView
	if liveView == nil {
		liveView = capture.NopLiveView{}
	}

	return &Controller{
		ctx:         ctx,
		shell:       deps.Shell,
		loop:        deps.Loop,
		encoder:     deps.Encoder,
		decoder:     deps.Decoder,
		storage:     deps.Storage,
		launcher:    deps.Launcher,
		fetcher:     deps.Fetcher,
		devices:     deps.Devices,
		liveView:    liveView,
		previewSize: deps.PreviewSize,
		maxFrames:   deps.MaxFrames,
		logger:      logger,
	}
}

// Preview returns the current generated code, nil before the first generation
func (c *Controller) Preview() *models.EncodedImage {
	return c.preview
}

// DecodedText returns the text shown in the result area
func (c *Controller) DecodedText() string {
	return c.decodedText
}

// Scanning reports whether a live scan is active
func (c *Controller) Scanning() bool {
	return c.active != nil
}

// Generate encodes text and replaces the preview
func (c *Controller) Generate(text string) {
	text, err := validation.ValidateText(text)
	if err != nil {
		c.shell.Warn("Please enter text to encode.")
		return
	}

	encoded, err := c.encoder.Generate(text)
	if err != nil {
		c.logger.Errorf("Failed to generate QR code: %v", err)
		c.shell.Error(fmt.Sprintf("Failed to generate QR code: %v", err))
		return
	}

	c.preview = encoded
	c.liveView.Show(encoded.Thumbnail(c.previewSize))
	c.shell.ShowPreview(encoded)
}

// Save writes the preview to path, asking the shell for a path when empty
func (c *Controller) Save(path string) {
	if c.preview == nil {
		c.shell.Info("Generate a QR code before saving.")
		return
	}

	if path == "" {
		chosen, ok := c.shell.ChooseSavePath(constants.DefaultImageName)
		if !ok {
			return
		}
		path = chosen
	}

	path, err := validation.ValidateSavePath(path)
	if err != nil {
		c.shell.Warn(err.Error())
		return
	}

	if err := c.storage.SavePNG(path, c.preview); err != nil {
		c.logger.Errorf("Failed to save QR code: %v", err)
		c.shell.Error(fmt.Sprintf("Could not save the image: %v", err))
		return
	}
	c.shell.Info(fmt.Sprintf("QR code saved to %s", path))
}

// StartScan starts a live scan on a background goroutine. The result comes
// back through the UI loop.
func (c *Controller) StartScan(source ScanSource) {
	if c.active != nil {
		c.shell.Warn("A scan is already running. Cancel it first.")
		return
	}

	device, err := c.devices(source)
	if err != nil {
		c.shell.Error(err.Error())
		return
	}

	var session *capture.Session
	dispatcher := dispatch.NewResultDispatcher(c.loop, func(result models.ScanResult) {
		c.onScanResult(session, source, result)
	}, c.logger)
	session = capture.NewSession(device, c.decoder, dispatcher, capture.SessionOptions{
		LiveView:  c.liveView,
		MaxFrames: c.maxFrames,
	}, c.logger)

	c.active = session
	c.logger.WithField("session", session.ID()).Infof("Starting %s scan", source)
	session.Start(c.ctx)
	c.shell.Info(fmt.Sprintf("Scanning the %s. Type 'cancel' to stop.", source))
}

// CancelScan asks the active scan to stop
func (c *Controller) CancelScan() {
	if c.active == nil {
		c.shell.Info("No scan is running.")
		return
	}
	c.active.Cancel()
}

// Shutdown cancels the active scan and waits for its device to be released
func (c *Controller) Shutdown() {
	if c.active == nil {
		return
	}
	session := c.active
	session.Cancel()
	<-session.Done()
}

func (c *Controller) onScanResult(session *capture.Session, source ScanSource, result models.ScanResult) {
	if c.active == session {
		c.active = nil
	}

	switch result.Kind() {
	case models.ScanDecoded:
		c.showDecoded(result.Text())
	case models.ScanDeviceError:
		c.shell.Error(deviceFailureMessage(source, result.Message()))
	default:
		c.shell.Info(notFoundMessage(source))
	}
}

// ScanImage decodes an image file, asking the shell for a path when empty.
// A miss leaves the previous result in place.
func (c *Controller) ScanImage(path string) {
	if path == "" {
		chosen, ok := c.shell.ChooseOpenPath()
		if !ok {
			return
		}
		path = chosen
	}

	img, err := c.storage.Load(path)
	if err != nil {
		c.logger.Warnf("Failed to load image: %v", err)
		c.shell.Error(fmt.Sprintf("Could not read the image: %v", err))
		return
	}
	c.decodeImage(img)
}

// ScanURL downloads an image in the background and decodes it on the UI loop
func (c *Controller) ScanURL(url string) {
	if url == "" {
		c.shell.Warn("Please enter an image URL.")
		return
	}

	go func() {
		data, err := c.fetcher.Fetch(c.ctx, url)
		c.loop.Post(func() {
			if err != nil {
				c.shell.Error(fmt.Sprintf("Could not download the image: %v", err))
				return
			}
			img, err := services.ReadImage(bytes.NewReader(data))
			if err != nil {
				c.shell.Error(fmt.Sprintf("Could not read the image: %v", err))
				return
			}
			c.decodeImage(img)
		})
	}()
}

// Show repeats the current preview and result
func (c *Controller) Show() {
	if c.preview == nil && c.decodedText == "" {
		c.shell.Info("Nothing generated or scanned yet.")
		return
	}
	if c.preview != nil {
		c.shell.ShowPreview(c.preview)
	}
	if c.decodedText != "" {
		c.shell.ShowScanResult(c.decodedText)
	}
}

func (c *Controller) decodeImage(img image.Image) {
	detection, err := c.decoder.Decode(img)
	if err != nil {
		c.logger.Warnf("Failed to decode image: %v", err)
		c.shell.Error(fmt.Sprintf("Could not read the image: %v", err))
		return
	}

	if !detection.Found() {
		c.shell.Info("No QR code was detected in the image.")
		return
	}
	c.showDecoded(detection.Text)
}

// showDecoded updates the result area and opens URL-like text in the browser
func (c *Controller) showDecoded(text string) {
	c.decodedText = text
	c.shell.ShowScanResult(text)
	c.shell.Info(fmt.Sprintf("QR content: %s", text))

	if helpers.LooksLikeURL(text) {
		c.launcher.Open(helpers.NormalizeURL(text))
	}
}

func notFoundMessage(source ScanSource) string {
	if source == SourceScreen {
		return "No QR code was detected before the screen scan stopped."
	}
	return "No QR code was detected before closing the camera window."
}

func deviceFailureMessage(source ScanSource, detail string) string {
	if source == SourceScreen {
		return fmt.Sprintf("Could not capture the screen: %s", detail)
	}
	return fmt.Sprintf("Could not open the default camera: %s", detail)
}
