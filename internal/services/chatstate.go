package services

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"qrmaster/internal/constants"
	"qrmaster/internal/models"
)

// ChatStateService keeps the per-chat preview and conversation state of the bot
type ChatStateService struct {
	cache  *cache.Cache
	logger *logrus.Logger
}

// NewChatStateService creates a new chat state service
func NewChatStateService(logger *logrus.Logger) *ChatStateService {
	return &ChatStateService{
		cache:  cache.New(constants.ChatStateExpiration*time.Minute, constants.ChatStateCleanupInterval*time.Minute),
		logger: logger,
	}
}

// GetState gets a chat's state
func (s *ChatStateService) GetState(chatID int64) (*models.ChatState, error) {
	key := fmt.Sprintf("chat_state_%d", chatID)

	if data, found := s.cache.Get(key); found {
		if state, ok := data.(*models.ChatState); ok {
			// Hand out a copy so callers cannot mutate the cached entry
			copied := *state
			return &copied, nil
		}
		return nil, fmt.Errorf("invalid state type for chat %d", chatID)
	}

	return &models.ChatState{State: models.Default}, nil
}

// SetState sets a chat's state
func (s *ChatStateService) SetState(chatID int64, state models.ChatState) error {
	key := fmt.Sprintf("chat_state_%d", chatID)
	s.cache.Set(key, &state, cache.DefaultExpiration)
	s.logger.Debugf("Set state for chat %d: %d", chatID, state.State)
	return nil
}

// ClearState clears a chat's state
func (s *ChatStateService) ClearState(chatID int64) error {
	key := fmt.Sprintf("chat_state_%d", chatID)
	s.cache.Delete(key)
	s.logger.Debugf("Cleared state for chat %d", chatID)
	return nil
}

// WithConversationState updates a chat's conversation state
func (s *ChatStateService) WithConversationState(chatID int64, conversationState models.ConversationState) error {
	state, err := s.GetState(chatID)
	if err != nil {
		return err
	}

	state.State = conversationState
	return s.SetState(chatID, *state)
}

// WithPreview replaces a chat's last generated image
func (s *ChatStateService) WithPreview(chatID int64, image *models.EncodedImage) error {
	state, err := s.GetState(chatID)
	if err != nil {
		return err
	}

	state.LastImage = image
	return s.SetState(chatID, *state)
}

// WithDecoded records a chat's last decoded text
func (s *ChatStateService) WithDecoded(chatID int64, text string) error {
	state, err := s.GetState(chatID)
	if err != nil {
		return err
	}

	state.LastDecoded = &text
	return s.SetState(chatID, *state)
}
