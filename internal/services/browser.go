package services

import (
	"os/exec"

	"github.com/sirupsen/logrus"
)

// BrowserService opens URLs with the system handler
type BrowserService struct {
	command []string
	enabled bool
	start   func(args []string) error
	logger  *logrus.Logger
}

// NewBrowserService creates a browser launcher using the given open command
func NewBrowserService(command []string, enabled bool, logger *logrus.Logger) *BrowserService {
	return &BrowserService{
		command: command,
		enabled: enabled,
		start:   startDetached,
		logger:  logger,
	}
}

// Open hands url to the system browser. It is fire-and-forget: failures
// are logged at debug level and never reported to the user.
func (s *BrowserService) Open(url string) {
	if !s.enabled || len(s.command) == 0 {
		s.logger.Debugf("Browser launching disabled, not opening %s", url)
		return
	}

	args := append(append([]string{}, s.command...), url)
	if err := s.start(args); err != nil {
		s.logger.Debugf("Failed to open %s: %v", url, err)
		return
	}
	s.logger.Infof("Opened %s in browser", url)
}

func startDetached(args []string) error {
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child without blocking the caller
	go cmd.Wait()
	return nil
}
