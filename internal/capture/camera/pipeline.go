package camera

import (
	"fmt"
	"strings"

	"qrmaster/internal/config"
)

// sinkName is the appsink element name looked up after parsing
const sinkName = "sink"

// sourceElement returns the platform capture element for the camera index
func sourceElement(cfg config.CameraConfig, goos string) string {
	if strings.TrimSpace(cfg.Source) != "" {
		return strings.TrimSpace(cfg.Source)
	}

	switch goos {
	case "darwin":
		return fmt.Sprintf("avfvideosrc device-index=%d", cfg.Index)
	case "windows":
		return fmt.Sprintf("ksvideosrc device-index=%d", cfg.Index)
	default:
		return fmt.Sprintf("v4l2src device=/dev/video%d", cfg.Index)
	}
}

// buildLaunch returns a gst-launch description producing RGBA frames into an appsink
func buildLaunch(cfg config.CameraConfig, goos string) string {
	caps := fmt.Sprintf("video/x-raw,format=RGBA,width=%d,height=%d,framerate=%d/1", cfg.Width, cfg.Height, cfg.FPS)

	return strings.Join([]string{
		sourceElement(cfg, goos),
		"videoconvert",
		"videoscale",
		"videorate",
		caps,
		fmt.Sprintf("appsink name=%s sync=false max-buffers=1 drop=true", sinkName),
	}, " ! ")
}
