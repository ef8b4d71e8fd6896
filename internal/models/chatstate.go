package models

// ConversationState represents what the bot expects next from a chat
type ConversationState int

const (
	// Default is the initial state
	Default ConversationState = iota
	// AwaitingText is the state after the user asked to generate a code
	AwaitingText
	// AwaitingImage is the state after the user asked to scan a code
	AwaitingImage
)

// ChatState holds the per-chat preview and last scan result
type ChatState struct {
	State       ConversationState
	LastImage   *EncodedImage
	LastDecoded *string
}
