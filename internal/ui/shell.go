package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"qrmaster/internal/constants"
	"qrmaster/internal/models"
)

// Shell presents controller output to the user
type Shell interface {
	Info(message string)
	Warn(message string)
	Error(message string)
	ShowPreview(encoded *models.EncodedImage)
	ShowScanResult(text string)
	// ChooseSavePath returns false when the user cancels
	ChooseSavePath(defaultName string) (string, bool)
	// ChooseOpenPath returns false when the user cancels
	ChooseOpenPath() (string, bool)
}

// TerminalShell writes everything to a terminal
type TerminalShell struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalShell creates a shell writing to out
func NewTerminalShell(out io.Writer) *TerminalShell {
	return &TerminalShell{out: out}
}

func (s *TerminalShell) Info(message string) {
	s.printf("%s\n", message)
}

func (s *TerminalShell) Warn(message string) {
	s.printf("Warning: %s\n", message)
}

func (s *TerminalShell) Error(message string) {
	s.printf("Error: %s\n", message)
}

// ShowPreview prints the code with half block characters, two module rows per line
func (s *TerminalShell) ShowPreview(encoded *models.EncodedImage) {
	s.printf("%s%d x %d px\n", RenderModules(encoded.Modules), encoded.Width(), encoded.Height())
}

func (s *TerminalShell) ShowScanResult(text string) {
	s.printf("Decoded: %s\n", text)
}

// ChooseSavePath uses the default file name in the working directory
func (s *TerminalShell) ChooseSavePath(defaultName string) (string, bool) {
	if defaultName == "" {
		defaultName = constants.DefaultImageName
	}
	return defaultName, true
}

// ChooseOpenPath has no picker in a terminal
func (s *TerminalShell) ChooseOpenPath() (string, bool) {
	s.printf("Usage: image <path>\n")
	return "", false
}

// Prompt prints the REPL prompt
func (s *TerminalShell) Prompt() {
	s.printf("> ")
}

func (s *TerminalShell) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

// RenderModules draws a module bitmap as text. Dark modules are drawn as
// blocks, so the output reads correctly on a light background.
func RenderModules(modules [][]bool) string {
	var b strings.Builder
	for y := 0; y < len(modules); y += 2 {
		for x := range modules[y] {
			top := modules[y][x]
			bottom := y+1 < len(modules) && modules[y+1][x]
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteRune(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
