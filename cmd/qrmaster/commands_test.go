package main

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"qrmaster/internal/config"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	a, out, _ := newTestAppWithStderr(t)
	return a, out
}

func newTestAppWithStderr(t *testing.T) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	chdir(t, t.TempDir())

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	cfg.Browser.Enabled = false

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	a := newApp(cfg, logger)
	var out, errOut bytes.Buffer
	a.stdout = &out
	a.stderr = &errOut
	return a, &out, &errOut
}

func TestGenerateThenScanImage(t *testing.T) {
	a, out := newTestApp(t)
	path := filepath.Join(t.TempDir(), "code")

	if code := a.runGenerate([]string{"-o", path, "-preview=false", "hello", "cli"}); code != 0 {
		t.Fatalf("generate exit code = %d", code)
	}
	if _, err := os.Stat(path + ".png"); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}

	out.Reset()
	if code := a.runScan(context.Background(), []string{"-image", path + ".png"}); code != 0 {
		t.Fatalf("scan exit code = %d", code)
	}
	if got := strings.TrimSpace(out.String()); got != "hello cli" {
		t.Errorf("scan output = %q", got)
	}
}

func TestGeneratePrintsPreview(t *testing.T) {
	a, out := newTestApp(t)

	if code := a.runGenerate([]string{"hi"}); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	// 29 modules give 15 text rows
	if lines := strings.Count(out.String(), "\n"); lines != 15 {
		t.Errorf("preview has %d lines, want 15", lines)
	}
}

func TestGenerateRejectsEmptyText(t *testing.T) {
	a, _ := newTestApp(t)
	if code := a.runGenerate([]string{"  "}); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestScanNeedsExactlyOneSource(t *testing.T) {
	a, _ := newTestApp(t)

	for _, args := range [][]string{nil, {"-camera", "-screen"}} {
		if code := a.runScan(context.Background(), args); code != 2 {
			t.Errorf("runScan(%v) = %d, want 2", args, code)
		}
	}
}

func TestScanImageWithoutCode(t *testing.T) {
	a, out, errOut := newTestAppWithStderr(t)

	blank := image.NewGray(image.Rect(0, 0, 120, 120))
	draw.Draw(blank, blank.Bounds(), image.White, image.Point{}, draw.Src)
	path := filepath.Join(t.TempDir(), "blank.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, blank); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if code := a.runScan(context.Background(), []string{"-image", path}); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}
	if got := errOut.String(); !strings.Contains(got, "No QR code was detected.") {
		t.Errorf("stderr = %q, want the miss message", got)
	}
}

func TestScanImageReadFailures(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.png")
	if err := os.WriteFile(corrupt, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.png")},
		{"corrupt file", corrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, errOut := newTestAppWithStderr(t)
			if code := a.runScan(context.Background(), []string{"-image", tt.path}); code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			got := errOut.String()
			if !strings.Contains(got, "Could not read the image:") {
				t.Errorf("stderr = %q, want the read error", got)
			}
			if strings.Contains(got, "No QR code was detected.") {
				t.Errorf("stderr = %q reports a miss for an unreadable file", got)
			}
		})
	}
}
