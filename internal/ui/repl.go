package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"qrmaster/internal/commands"
	"qrmaster/internal/dispatch"
)

const helpText = `Commands:
  generate <text>   encode text and show the preview
  save [path]       save the preview as PNG
  scan              scan with the camera
  screen            scan the screen
  image [path]      scan an image file
  url <url>         scan an image from the web
  cancel            stop the running scan
  show              show the preview and the last result
  help              show this help
  quit              exit`

// Prompter prints the input prompt
type Prompter interface {
	Prompt()
}

// REPL reads commands from a line based input and runs them on the UI loop
type REPL struct {
	in         io.Reader
	shell      Shell
	prompter   Prompter
	loop       *dispatch.EventLoop
	controller *Controller
	logger     *logrus.Logger
}

// NewREPL creates a REPL driving controller through loop
func NewREPL(in io.Reader, shell Shell, prompter Prompter, loop *dispatch.EventLoop, controller *Controller, logger *logrus.Logger) *REPL {
	return &REPL{
		in:         in,
		shell:      shell,
		prompter:   prompter,
		loop:       loop,
		controller: controller,
		logger:     logger,
	}
}

// Run reads input on a background goroutine and runs the UI loop on the
// calling goroutine until quit, end of input or ctx cancellation
func (r *REPL) Run(ctx context.Context) error {
	r.loop.Post(func() {
		r.shell.Info(`QR master shell. Type "help" for commands.`)
		r.prompter.Prompt()
	})

	go r.read()

	err := r.loop.Run(ctx)
	r.controller.Shutdown()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (r *REPL) read() {
	scanner := bufio.NewScanner(r.in)
	for scanner.Scan() {
		line := scanner.Text()
		if !r.loop.Post(func() { r.handle(line) }) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		r.logger.Warnf("Failed to read input: %v", err)
	}
	r.loop.Post(r.loop.Stop)
}

// handle runs one command line on the UI loop
func (r *REPL) handle(line string) {
	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(command) {
	case "":
	case commands.Generate:
		r.controller.Generate(arg)
	case commands.Save:
		r.controller.Save(arg)
	case commands.Scan:
		r.controller.StartScan(SourceCamera)
	case commands.Screen:
		r.controller.StartScan(SourceScreen)
	case commands.ScanImage:
		r.controller.ScanImage(arg)
	case commands.ScanURL:
		r.controller.ScanURL(arg)
	case commands.Cancel:
		r.controller.CancelScan()
	case commands.Show:
		r.controller.Show()
	case commands.Help:
		r.shell.Info(helpText)
	case commands.Quit:
		r.loop.Stop()
		return
	default:
		r.shell.Warn(fmt.Sprintf("Unknown command %q. Type \"help\" for commands.", command))
	}
	r.prompter.Prompt()
}
