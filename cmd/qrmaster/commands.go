package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"qrmaster/internal/api"
	"qrmaster/internal/capture"
	"qrmaster/internal/capture/camera"
	"qrmaster/internal/capture/screen"
	"qrmaster/internal/config"
	"qrmaster/internal/dispatch"
	"qrmaster/internal/helpers"
	"qrmaster/internal/models"
	"qrmaster/internal/permissions"
	"qrmaster/internal/services"
	"qrmaster/internal/ui"
	"qrmaster/internal/validation"
	"qrmaster/pkg/imagefetch"
	"qrmaster/pkg/telegrambot"
)

// app holds the services shared by every command
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	encoder *services.QRService
	decoder *services.DecoderService
	storage *services.ImageStore
	browser *services.BrowserService
	fetcher *imagefetch.Client
	stdout  io.Writer
	stderr  io.Writer
	stdin   io.Reader
}

func newApp(cfg *config.Config, logger *logrus.Logger) *app {
	return &app{
		cfg:     cfg,
		logger:  logger,
		encoder: services.NewQRService(cfg.Encoder.ModuleSize, logger),
		decoder: services.NewDecoderService(logger),
		storage: services.NewImageStore(logger),
		browser: services.NewBrowserService(cfg.Browser.OpenCommand, cfg.Browser.Enabled, logger),
		fetcher: imagefetch.NewClient(cfg.Fetch, logger),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		stdin:   os.Stdin,
	}
}

// newDevice creates the capture device for a live scan
func (a *app) newDevice(source ui.ScanSource) (capture.Device, error) {
	switch source {
	case ui.SourceCamera:
		return camera.NewCameraDevice(a.cfg.Camera, a.logger), nil
	case ui.SourceScreen:
		return screen.NewScreenDevice(a.cfg.Screen, a.logger), nil
	default:
		return nil, fmt.Errorf("unknown scan source %q", source)
	}
}

func (a *app) liveView() capture.LiveView {
	if a.cfg.UI.LiveViewPath == "" {
		return capture.NopLiveView{}
	}
	return capture.NewFileLiveView(a.cfg.UI.LiveViewPath, a.logger)
}

func (a *app) runGenerate(args []string) int {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	out := fs.String("o", "", "save the code as PNG to this path")
	preview := fs.Bool("preview", true, "print the code to the terminal")
	fs.Parse(args)

	text, err := validation.ValidateText(strings.Join(fs.Args(), " "))
	if err != nil {
		fmt.Fprintln(a.stderr, "Please enter text to encode.")
		return 2
	}

	encoded, err := a.encoder.Generate(text)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to generate QR code: %v\n", err)
		return 1
	}

	if *preview {
		fmt.Fprint(a.stdout, ui.RenderModules(encoded.Modules))
	}

	if *out != "" {
		path, err := validation.ValidateSavePath(*out)
		if err != nil {
			fmt.Fprintln(a.stderr, err)
			return 2
		}
		if err := a.storage.SavePNG(path, encoded); err != nil {
			fmt.Fprintf(a.stderr, "Could not save the image: %v\n", err)
			return 1
		}
		fmt.Fprintf(a.stdout, "QR code saved to %s\n", path)
	}
	return 0
}

func (a *app) runScan(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	imagePath := fs.String("image", "", "decode an image file")
	imageURL := fs.String("url", "", "decode an image downloaded from a URL")
	useCamera := fs.Bool("camera", false, "scan with the camera until a code is found")
	useScreen := fs.Bool("screen", false, "scan the screen until a code is found")
	open := fs.Bool("open", false, "open URL results in the browser")
	fs.Parse(args)

	sources := 0
	for _, set := range []bool{*imagePath != "", *imageURL != "", *useCamera, *useScreen} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		fmt.Fprintln(a.stderr, "choose exactly one of -image, -url, -camera or -screen")
		return 2
	}

	var (
		result models.ScanResult
		err    error
	)
	switch {
	case *imagePath != "":
		result, err = a.scanDetection(a.decoder.DecodeFile(*imagePath))
	case *imageURL != "":
		data, fetchErr := a.fetcher.Fetch(ctx, *imageURL)
		if fetchErr != nil {
			fmt.Fprintf(a.stderr, "Could not download the image: %v\n", fetchErr)
			return 1
		}
		result, err = a.scanDetection(a.decoder.DecodeReader(bytes.NewReader(data)))
	case *useCamera:
		result = a.scanLive(ctx, ui.SourceCamera)
	case *useScreen:
		result = a.scanLive(ctx, ui.SourceScreen)
	}

	if err != nil {
		fmt.Fprintf(a.stderr, "Could not read the image: %v\n", err)
		return 1
	}

	switch result.Kind() {
	case models.ScanDecoded:
		fmt.Fprintln(a.stdout, result.Text())
		if *open && helpers.LooksLikeURL(result.Text()) {
			a.browser.Open(helpers.NormalizeURL(result.Text()))
		}
		return 0
	case models.ScanDeviceError:
		fmt.Fprintf(a.stderr, "Could not open the capture device: %s\n", result.Message())
		return 1
	default:
		fmt.Fprintln(a.stderr, "No QR code was detected.")
		return 1
	}
}

// scanDetection converts a still image decode into a scan result.
// Read and decode failures are returned as errors, not as a miss.
func (a *app) scanDetection(detection models.Detection, err error) (models.ScanResult, error) {
	if err != nil {
		a.logger.Errorf("Failed to scan image: %v", err)
		return models.ScanResult{}, err
	}
	if !detection.Found() {
		return models.NotFoundResult(), nil
	}
	return models.DecodedResult(detection.Text), nil
}

// scanLive runs a capture session on the calling goroutine. SIGINT cancels it.
func (a *app) scanLive(ctx context.Context, source ui.ScanSource) models.ScanResult {
	device, err := a.newDevice(source)
	if err != nil {
		return models.DeviceErrorResult(err.Error())
	}

	sink := capture.ResultSinkFunc(func(result models.ScanResult) {
		a.logger.Debugf("Scan finished: %v", result)
	})
	session := capture.NewSession(device, a.decoder, sink, capture.SessionOptions{
		LiveView:  a.liveView(),
		MaxFrames: a.cfg.Camera.MaxFrames,
	}, a.logger)

	fmt.Fprintf(a.stderr, "Scanning the %s, press Ctrl+C to stop.\n", source)
	return session.Run(ctx)
}

func (a *app) runShell(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	desktop := fs.Bool("desktop", a.cfg.UI.Desktop, "use native dialogs and file pickers")
	fs.Parse(args)

	terminal := ui.NewTerminalShell(a.stdout)
	var shell ui.Shell = terminal
	if *desktop {
		shell = ui.NewDesktopShell(terminal, a.cfg.UI.Notify, a.logger)
	}

	loop := dispatch.NewEventLoop(a.logger)
	controller := ui.NewController(ctx, ui.ControllerDeps{
		Shell:       shell,
		Loop:        loop,
		Encoder:     a.encoder,
		Decoder:     a.decoder,
		Storage:     a.storage,
		Launcher:    a.browser,
		Fetcher:     a.fetcher,
		Devices:     a.newDevice,
		LiveView:    a.liveView(),
		PreviewSize: a.cfg.Encoder.PreviewSize,
	}, a.logger)

	repl := ui.NewREPL(a.stdin, shell, terminal, loop, controller, a.logger)
	if err := repl.Run(ctx); err != nil {
		a.logger.Errorf("Shell failed: %v", err)
		return 1
	}
	return 0
}

func (a *app) runServe(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", a.cfg.HTTP.Listen, "listen address")
	fs.Parse(args)

	if a.logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := a.cfg.HTTP
	httpCfg.Listen = *listen
	server := api.NewServer(httpCfg, a.cfg.Encoder.PreviewSize, a.encoder, a.decoder, a.fetcher, a.logger)
	if err := server.Run(ctx); err != nil {
		a.logger.Errorf("HTTP API failed: %v", err)
		return 1
	}
	return 0
}

func (a *app) runBot(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("bot", flag.ExitOnError)
	fs.Parse(args)

	if err := a.cfg.RequireTelegram(); err != nil {
		a.logger.Errorf("Failed to start bot: %v", err)
		return 2
	}

	stateService := services.NewChatStateService(a.logger)
	permController := permissions.NewController(a.cfg.Telegram.AllowedIDs, a.logger)

	bot, err := telegrambot.NewBot(a.cfg, stateService, a.encoder, a.decoder, a.fetcher, permController, a.logger)
	if err != nil {
		a.logger.Errorf("Failed to create bot: %v", err)
		return 1
	}

	a.logger.Info("Starting QR master Telegram bot")
	if err := bot.Start(ctx); err != nil {
		a.logger.Errorf("Bot failed: %v", err)
		return 1
	}
	return 0
}
