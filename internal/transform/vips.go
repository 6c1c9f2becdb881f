package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"media-forge/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitMutex sync.Mutex
	vipsStarted   bool
	vipsAvailable bool
)

// InitVips starts libvips once at startup. The pure-Go decoders cover the
// common formats; vips widens decoding to formats like HEIC and TIFF that
// clients upload more often than one would hope. Startup failure only
// disables the fallback.
func InitVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsStarted {
		return
	}
	vipsStarted = true

	defer func() {
		if r := recover(); r != nil {
			logging.Warn("libvips unavailable, extended image decoding disabled: %v", r)
			vipsAvailable = false
		}
	}()

	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vips.LogLevelWarning)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
	})

	vipsAvailable = true
	logging.Info("libvips initialized for extended image decoding")
}

// ShutdownVips releases libvips resources at process shutdown.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
	}
}

// decodeWithVips loads an image through libvips and hands it back as a
// standard image.Image by round-tripping through PNG.
func decodeWithVips(path string) (image.Image, error) {
	vipsInitMutex.Lock()
	available := vipsAvailable
	vipsInitMutex.Unlock()

	if !available {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := vips.NewImageFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	defer ref.Close()

	data, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export: %w", err)
	}

	return png.Decode(bytes.NewReader(data))
}
