package config

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"qrmaster/internal/constants"
	"qrmaster/internal/errors"
)

// Load loads the configuration from the optional config file, environment
// variables prefixed with QRMASTER_ and built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QRMASTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &errors.ConfigError{Section: "file", Message: err.Error()}
	}

	// Fields that accept either a list or a comma separated env string
	cfg.Browser.OpenCommand = parseCommand(v.Get("browser.open_command"))
	if len(cfg.Browser.OpenCommand) == 0 {
		cfg.Browser.OpenCommand = DefaultOpenCommand()
	}

	ids, err := parseIDs(v.Get("telegram.allowed_ids"))
	if err != nil {
		return nil, &errors.ConfigError{Section: "telegram", Message: err.Error()}
	}
	cfg.Telegram.AllowedIDs = ids
	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultOpenCommand returns the platform command that opens URLs
func DefaultOpenCommand() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	case "darwin":
		return []string{"open"}
	default:
		return []string{"xdg-open"}
	}
}

// RequireTelegram checks the settings needed by the bot front end
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return &errors.ConfigError{Section: "telegram", Message: "QRMASTER_TELEGRAM_TOKEN is required"}
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("encoder.module_size", constants.DefaultModuleSize)
	v.SetDefault("encoder.preview_size", constants.DefaultPreviewSize)

	v.SetDefault("camera.index", constants.DefaultCameraIndex)
	v.SetDefault("camera.width", constants.DefaultCameraWidth)
	v.SetDefault("camera.height", constants.DefaultCameraHeight)
	v.SetDefault("camera.fps", constants.DefaultCameraFPS)
	v.SetDefault("camera.source", "")
	v.SetDefault("camera.max_frames", 0)

	v.SetDefault("screen.display", 0)
	v.SetDefault("screen.interval", constants.DefaultScreenPeriod)

	v.SetDefault("browser.enabled", true)
	v.SetDefault("browser.open_command", "")

	v.SetDefault("ui.desktop", false)
	v.SetDefault("ui.notify", false)
	v.SetDefault("ui.live_view_path", "")

	v.SetDefault("http.listen", constants.DefaultListenAddr)
	v.SetDefault("http.max_upload_bytes", constants.DefaultMaxUploadBytes)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.allowed_ids", "")

	v.SetDefault("fetch.timeout", constants.DefaultFetchTimeout)
	v.SetDefault("fetch.retry_count", constants.DefaultFetchRetries)
	v.SetDefault("fetch.max_bytes", constants.DefaultFetchMaxBytes)
	v.SetDefault("fetch.cache_ttl", constants.DefaultFetchCacheTTL)
}

// readConfigFile reads an explicit file, or looks for qrmaster.yaml in the usual places
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return &errors.ConfigError{Section: "file", Message: err.Error()}
		}
		return nil
	}

	v.SetConfigName("qrmaster")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/qrmaster")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if stderrors.As(err, &notFound) {
			return nil
		}
		return &errors.ConfigError{Section: "file", Message: err.Error()}
	}
	return nil
}

// parseCommand accepts a YAML list or a space separated string
func parseCommand(raw interface{}) []string {
	switch val := raw.(type) {
	case string:
		return strings.Fields(val)
	case []interface{}:
		cmd := make([]string, 0, len(val))
		for _, part := range val {
			cmd = append(cmd, fmt.Sprint(part))
		}
		return cmd
	case []string:
		return val
	}
	return nil
}

// parseIDs accepts a YAML list of numbers or a comma separated string
func parseIDs(raw interface{}) ([]int64, error) {
	var parts []string
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		parts = strings.Split(val, ",")
	case []interface{}:
		for _, part := range val {
			parts = append(parts, fmt.Sprint(part))
		}
	case []int:
		for _, id := range val {
			parts = append(parts, fmt.Sprint(id))
		}
	default:
		return nil, fmt.Errorf("unsupported allowed_ids value %v", raw)
	}

	ids := make([]int64, 0, len(parts))
	for _, idStr := range parts {
		var id int64
		if _, err := fmt.Sscanf(strings.TrimSpace(idStr), "%d", &id); err != nil {
			return nil, fmt.Errorf("invalid chat id %q", idStr)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return &errors.ConfigError{Section: "log_level", Message: err.Error()}
	}

	if cfg.Encoder.ModuleSize <= 0 {
		return &errors.ConfigError{Section: "encoder", Message: "module_size must be positive"}
	}
	if cfg.Encoder.PreviewSize < 0 {
		return &errors.ConfigError{Section: "encoder", Message: "preview_size must not be negative"}
	}

	if cfg.Camera.Index < 0 {
		return &errors.ConfigError{Section: "camera", Message: "index must not be negative"}
	}
	if cfg.Camera.Width <= 0 || cfg.Camera.Height <= 0 {
		return &errors.ConfigError{Section: "camera", Message: "width and height must be positive"}
	}
	if cfg.Camera.FPS <= 0 {
		return &errors.ConfigError{Section: "camera", Message: "fps must be positive"}
	}
	if cfg.Camera.MaxFrames < 0 {
		return &errors.ConfigError{Section: "camera", Message: "max_frames must not be negative"}
	}

	if cfg.Screen.Display < 0 {
		return &errors.ConfigError{Section: "screen", Message: "display must not be negative"}
	}
	if cfg.Screen.Interval < 0 {
		return &errors.ConfigError{Section: "screen", Message: "interval must not be negative"}
	}

	if strings.TrimSpace(cfg.HTTP.Listen) == "" {
		return &errors.ConfigError{Section: "http", Message: "listen address is required"}
	}
	if cfg.HTTP.MaxUploadBytes <= 0 {
		return &errors.ConfigError{Section: "http", Message: "max_upload_bytes must be positive"}
	}

	if cfg.Fetch.MaxBytes <= 0 {
		return &errors.ConfigError{Section: "fetch", Message: "max_bytes must be positive"}
	}
	if cfg.Fetch.RetryCount < 0 {
		return &errors.ConfigError{Section: "fetch", Message: "retry_count must not be negative"}
	}
	if cfg.Fetch.CacheTTL < 0 {
		return &errors.ConfigError{Section: "fetch", Message: "cache_ttl must not be negative, use 0 to disable caching"}
	}

	return nil
}
