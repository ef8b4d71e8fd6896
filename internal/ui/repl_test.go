package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"qrmaster/internal/dispatch"
)

type countingPrompter struct {
	prompts int
}

func (p *countingPrompter) Prompt() { p.prompts++ }

func TestREPLRunsCommandsOnLoop(t *testing.T) {
	h := newHarness(t)
	loop := dispatch.NewEventLoop(newTestLogger())
	h.controller.loop = loop
	prompter := &countingPrompter{}

	input := strings.NewReader("generate hello world\nbogus\nshow\nquit\ngenerate never\n")
	repl := NewREPL(input, h.shell, prompter, loop, h.controller, newTestLogger())

	done := make(chan error, 1)
	go func() { done <- repl.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("REPL did not stop on quit")
	}

	if preview := h.controller.Preview(); preview == nil || preview.Text != "hello world" {
		t.Fatalf("preview = %+v", preview)
	}
	if h.encoder.calls != 1 {
		t.Errorf("encoder calls = %d, commands after quit must not run", h.encoder.calls)
	}
	if len(h.shell.warnings) != 1 || !strings.Contains(h.shell.warnings[0], "bogus") {
		t.Errorf("warnings = %v", h.shell.warnings)
	}
	// Welcome plus generate, bogus and show
	if prompter.prompts != 4 {
		t.Errorf("prompts = %d, want 4", prompter.prompts)
	}
}

func TestREPLStopsAtEndOfInput(t *testing.T) {
	h := newHarness(t)
	loop := dispatch.NewEventLoop(newTestLogger())
	h.controller.loop = loop

	repl := NewREPL(strings.NewReader("help\n"), h.shell, &countingPrompter{}, loop, h.controller, newTestLogger())

	done := make(chan error, 1)
	go func() { done <- repl.Run(context.Background()) }()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("REPL did not stop at end of input")
	}
	if !contains(h.shell.infos, helpText) {
		t.Errorf("help not shown: %v", h.shell.infos)
	}
}

func TestRenderModules(t *testing.T) {
	modules := [][]bool{
		{true, false, true},
		{true, true, false},
		{false, true, false},
	}

	want := "█▄▀\n ▀ \n"
	if got := RenderModules(modules); got != want {
		t.Errorf("RenderModules() = %q, want %q", got, want)
	}
}

func TestTerminalShell(t *testing.T) {
	var out bytes.Buffer
	shell := NewTerminalShell(&out)

	shell.Warn("careful")
	shell.ShowScanResult("text")
	if path, ok := shell.ChooseSavePath(""); !ok || path != "qrcode.png" {
		t.Errorf("ChooseSavePath() = %q, %v", path, ok)
	}
	if _, ok := shell.ChooseOpenPath(); ok {
		t.Error("ChooseOpenPath() = true in a terminal")
	}

	got := out.String()
	for _, want := range []string{"Warning: careful\n", "Decoded: text\n", "Usage: image <path>\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}
