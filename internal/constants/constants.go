package constants

import "time"

const (
	// Encoder constants
	DefaultModuleSize  = 10 // pixels per module
	QuietZoneModules   = 4  // fixed by the encoding library
	DefaultPreviewSize = 300

	// Capture constants
	DefaultCameraIndex  = 0
	DefaultCameraWidth  = 640
	DefaultCameraHeight = 480
	DefaultCameraFPS    = 15
	DefaultScreenPeriod = 250 * time.Millisecond
	OverlayLabel        = "QR detected"
	OverlayLineWidth    = 2

	// Network constants
	DefaultListenAddr     = ":8080"
	DefaultMaxUploadBytes = 10 * 1024 * 1024
	DefaultFetchTimeout   = 30 * time.Second
	DefaultFetchRetries   = 2
	DefaultFetchMaxBytes  = 10 * 1024 * 1024
	DefaultFetchCacheTTL  = 5 * time.Minute

	// Cache constants
	ChatStateExpiration      = 30 // minutes
	ChatStateCleanupInterval = 10 // minutes

	// Formatting constants
	TimestampFormat  = "2006-01-02 15:04:05"
	DefaultImageName = "qrcode.png"
)
