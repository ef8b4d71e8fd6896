package permissions

import (
	"github.com/sirupsen/logrus"
)

// AccessType represents the access level of a chat
type AccessType int

const (
	// None represents no access
	None AccessType = iota
	// User represents a chat allowed to generate and scan codes
	User
)

// PermissionController decides which chats may use the bot
type PermissionController struct {
	allowedIDs map[int64]bool
	logger     *logrus.Logger
}

// NewController creates a new permission controller. An empty allow list
// lets every chat in.
func NewController(allowedIDs []int64, logger *logrus.Logger) *PermissionController {
	allowed := make(map[int64]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = true
	}

	if len(allowed) == 0 {
		logger.Info("Initialized permission controller, bot is open to everyone")
	} else {
		logger.Infof("Initialized permission controller with %d allowed chats", len(allowed))
	}

	return &PermissionController{
		allowedIDs: allowed,
		logger:     logger,
	}
}

// GetAccessType determines the access type of a chat
func (p *PermissionController) GetAccessType(chatID int64) AccessType {
	if p.IsAllowed(chatID) {
		return User
	}
	return None
}

// IsAllowed checks if a chat may use the bot
func (p *PermissionController) IsAllowed(chatID int64) bool {
	if len(p.allowedIDs) == 0 {
		return true
	}
	allowed := p.allowedIDs[chatID]
	p.logger.Debugf("Checking if chat %d is allowed: %v", chatID, allowed)
	return allowed
}
