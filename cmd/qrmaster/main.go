package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"qrmaster/internal/config"
	"qrmaster/internal/constants"
)

const usage = `Usage: qrmaster [-config file] <command> [flags]

Commands:
  generate   encode text into a QR code
  scan       decode a QR code from an image, a URL, the camera or the screen
  shell      interactive generate and scan shell
  serve      HTTP API
  bot        Telegram bot
`

func main() {
	fs := flag.NewFlagSet("qrmaster", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	app := newApp(cfg, logger)

	var code int
	switch command, args := fs.Arg(0), fs.Args()[1:]; command {
	case "generate":
		code = app.runGenerate(args)
	case "scan":
		code = app.runScan(ctx, args)
	case "shell":
		code = app.runShell(ctx, args)
	case "serve":
		code = app.runServe(ctx, args)
	case "bot":
		code = app.runBot(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		fs.Usage()
		code = 2
	}

	cancel()
	os.Exit(code)
}

// setupLogger sets up the logger
func setupLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.Printf("Invalid log level %s, defaulting to info", logLevel)
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	// Set formatter
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: constants.TimestampFormat,
	})

	return logger
}
