package ui

import (
	stderrors "errors"
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/sirupsen/logrus"
	"github.com/sqweek/dialog"
)

// DesktopShell shows messages in native dialogs and picks files with native
// pickers. Previews still go to the terminal.
type DesktopShell struct {
	*TerminalShell
	notify bool
	logger *logrus.Logger
}

// NewDesktopShell creates a desktop shell. With notify set, decoded results
// also raise a desktop notification.
func NewDesktopShell(terminal *TerminalShell, notify bool, logger *logrus.Logger) *DesktopShell {
	return &DesktopShell{
		TerminalShell: terminal,
		notify:        notify,
		logger:        logger,
	}
}

func (s *DesktopShell) Info(message string) {
	s.TerminalShell.Info(message)
	dialog.Message("%s", message).Title("Info").Info()
}

func (s *DesktopShell) Warn(message string) {
	s.TerminalShell.Warn(message)
	dialog.Message("%s", message).Title("Warning").Info()
}

func (s *DesktopShell) Error(message string) {
	s.TerminalShell.Error(message)
	dialog.Message("%s", message).Title("Error").Error()
}

func (s *DesktopShell) ShowScanResult(text string) {
	s.TerminalShell.ShowScanResult(text)
	if !s.notify {
		return
	}
	if err := beeep.Notify("QR code detected", text, ""); err != nil {
		s.logger.Debugf("Failed to send notification: %v", err)
	}
}

func (s *DesktopShell) ChooseSavePath(defaultName string) (string, bool) {
	path, err := dialog.File().Title("Save QR code").SetStartFile(defaultName).Filter("PNG image", "png").Save()
	return s.pickerResult(path, err)
}

func (s *DesktopShell) ChooseOpenPath() (string, bool) {
	path, err := dialog.File().Title("Open image").Filter("Images", "png", "jpg", "jpeg", "gif", "bmp").Load()
	return s.pickerResult(path, err)
}

// pickerResult treats a cancelled picker as a silent no-op
func (s *DesktopShell) pickerResult(path string, err error) (string, bool) {
	if stderrors.Is(err, dialog.ErrCancelled) {
		return "", false
	}
	if err != nil {
		s.logger.Warnf("File picker failed: %v", err)
		s.TerminalShell.Error(fmt.Sprintf("File picker failed: %v", err))
		return "", false
	}
	return path, true
}

var _ Shell = (*DesktopShell)(nil)
