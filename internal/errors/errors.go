package errors

import (
	"fmt"
)

// InputError represents user input that cannot be processed as given
type InputError struct {
	Field   string
	Message string
}

// Error returns the error message
func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DeviceError represents a capture device that could not be opened or used
type DeviceError struct {
	Device  string
	Message string
	Err     error
}

// Error returns the error message
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("device %s: %s: %v", e.Device, e.Message, e.Err)
	}
	return fmt.Sprintf("device %s: %s", e.Device, e.Message)
}

// Unwrap returns the underlying error
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// EncodingError represents text that the QR encoder rejected
type EncodingError struct {
	Length int
	Err    error
}

// Error returns the error message
func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to encode %d bytes as QR code: %v", e.Length, e.Err)
}

// Unwrap returns the underlying error
func (e *EncodingError) Unwrap() error {
	return e.Err
}

// IOError represents a failure to read or write an image file
type IOError struct {
	Operation string
	Path      string
	Err       error
}

// Error returns the error message
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *IOError) Unwrap() error {
	return e.Err
}

// DecodeError represents an image that could not be handed to the decoder at all.
// A readable image without a symbol is not an error.
type DecodeError struct {
	Message string
	Err     error
}

// Error returns the error message
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("decode error: %s", e.Message)
}

// Unwrap returns the underlying error
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// FetchError represents a failed remote image download
type FetchError struct {
	URL     string
	Status  int
	Message string
}

// Error returns the error message
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed (status %d): %s", e.URL, e.Status, e.Message)
}

// PermissionError represents a chat that is not allowed to use the bot
type PermissionError struct {
	ChatID int64
}

// Error returns the error message
func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission error: chat %d is not allowed", e.ChatID)
}

// ConfigError represents an error related to configuration
type ConfigError struct {
	Section string
	Message string
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Section, e.Message)
}
