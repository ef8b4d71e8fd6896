package validation

import (
	"path/filepath"
	"strings"

	"qrmaster/internal/errors"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

// ValidateText trims the text to encode and rejects empty input
func ValidateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &errors.InputError{Field: "text", Message: "please enter some text to encode"}
	}
	return trimmed, nil
}

// ValidateSavePath adds the .png extension when the path has none
func ValidateSavePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", &errors.InputError{Field: "path", Message: "no file selected"}
	}
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	return path, nil
}

// IsImagePath checks whether the file extension is one the scanner can read
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}
