package config

import "time"

// Config represents the application configuration
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Encoder  EncoderConfig  `mapstructure:"encoder"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Screen   ScreenConfig   `mapstructure:"screen"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	UI       UIConfig       `mapstructure:"ui"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
}

// EncoderConfig holds the QR raster parameters
type EncoderConfig struct {
	ModuleSize  int `mapstructure:"module_size"`
	PreviewSize int `mapstructure:"preview_size"`
}

// CameraConfig holds the camera capture configuration
type CameraConfig struct {
	Index  int `mapstructure:"index"`
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
	FPS    int `mapstructure:"fps"`
	// Source replaces the platform default GStreamer source element when set
	Source string `mapstructure:"source"`
	// MaxFrames stops a session after this many frames, 0 means unlimited
	MaxFrames int `mapstructure:"max_frames"`
}

// ScreenConfig holds the screen capture configuration
type ScreenConfig struct {
	Display  int           `mapstructure:"display"`
	Interval time.Duration `mapstructure:"interval"`
}

// BrowserConfig controls how URL results are opened
type BrowserConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	OpenCommand []string `mapstructure:"-"`
}

// UIConfig holds the interactive shell configuration
type UIConfig struct {
	Desktop      bool   `mapstructure:"desktop"`
	Notify       bool   `mapstructure:"notify"`
	LiveViewPath string `mapstructure:"live_view_path"`
}

// HTTPConfig holds the HTTP API configuration
type HTTPConfig struct {
	Listen         string `mapstructure:"listen"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

// TelegramConfig holds the Telegram bot configuration
type TelegramConfig struct {
	Token      string  `mapstructure:"token"`
	AllowedIDs []int64 `mapstructure:"-"`
}

// FetchConfig holds the remote image download configuration
type FetchConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
	MaxBytes   int64         `mapstructure:"max_bytes"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}
