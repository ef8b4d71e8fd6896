package errors

import (
	stderrors "errors"
	"io/fs"
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"input", &InputError{Field: "text", Message: "must not be empty"}, "invalid text: must not be empty"},
		{"device", &DeviceError{Device: "camera 0", Message: "could not open"}, "device camera 0: could not open"},
		{"config", &ConfigError{Section: "camera", Message: "width must be positive"}, "configuration error in camera: width must be positive"},
		{"permission", &PermissionError{ChatID: 42}, "permission error: chat 42 is not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := &IOError{Operation: "save", Path: "/tmp/x.png", Err: fs.ErrPermission}
	if !stderrors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected IOError to unwrap to fs.ErrPermission")
	}
	if !strings.Contains(err.Error(), "/tmp/x.png") {
		t.Errorf("message %q does not mention the path", err.Error())
	}

	var wrapped error = &EncodingError{Length: 9000, Err: stderrors.New("content too long")}
	var encErr *EncodingError
	if !stderrors.As(wrapped, &encErr) || encErr.Length != 9000 {
		t.Fatalf("errors.As failed for EncodingError")
	}
}
