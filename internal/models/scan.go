package models

import (
	"fmt"
	"image"
)

// ScanKind identifies which variant a ScanResult holds
type ScanKind int

const (
	// ScanNotFound means the scan ended without decoding a symbol
	ScanNotFound ScanKind = iota
	// ScanDecoded means a symbol was decoded
	ScanDecoded
	// ScanDeviceError means the capture device could not be used
	ScanDeviceError
)

// String returns the name of the kind
func (k ScanKind) String() string {
	switch k {
	case ScanDecoded:
		return "decoded"
	case ScanDeviceError:
		return "device_error"
	default:
		return "not_found"
	}
}

// ScanResult is the terminal outcome of one scan attempt.
// The zero value is a NotFound result. Fields are unexported so a result
// cannot change after it has been handed to another goroutine.
type ScanResult struct {
	kind    ScanKind
	text    string
	message string
}

// DecodedResult creates a result carrying decoded text
func DecodedResult(text string) ScanResult {
	return ScanResult{kind: ScanDecoded, text: text}
}

// NotFoundResult creates a result for a scan that found nothing
func NotFoundResult() ScanResult {
	return ScanResult{kind: ScanNotFound}
}

// DeviceErrorResult creates a result for a device failure
func DeviceErrorResult(message string) ScanResult {
	return ScanResult{kind: ScanDeviceError, message: message}
}

// Kind returns the result variant
func (r ScanResult) Kind() ScanKind {
	return r.kind
}

// Text returns the decoded text, empty unless Kind is ScanDecoded
func (r ScanResult) Text() string {
	return r.text
}

// Message returns the device error message, empty unless Kind is ScanDeviceError
func (r ScanResult) Message() string {
	return r.message
}

func (r ScanResult) String() string {
	switch r.kind {
	case ScanDecoded:
		return fmt.Sprintf("Decoded(%q)", r.text)
	case ScanDeviceError:
		return fmt.Sprintf("DeviceError(%q)", r.message)
	default:
		return "NotFound"
	}
}

// Point is a position in frame coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Detection is what the decoder reports for one frame.
// Corners are the outer corners of the symbol, clockwise from top-left,
// estimated from the finder patterns.
// An empty Text with no Corners is a decode miss.
type Detection struct {
	Text    string
	Corners []Point
}

// Found reports whether a symbol was decoded with valid geometry
func (d Detection) Found() bool {
	return d.Text != "" && len(d.Corners) > 0
}

// DetectionOverlay pairs the detected corners with the frame they annotate
type DetectionOverlay struct {
	Corners []Point
	Frame   image.Image
}
