package transform

import (
	"image"
	"image/color"
	"os"
	"strings"
	"sync"
	"time"

	"media-forge/internal/apperr"
	"media-forge/internal/logging"
	"media-forge/internal/metrics"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	_ "golang.org/x/image/webp" // webp decoding via image.Decode
)

// WatermarkParams carries validated watermark input. Color already has the
// requested opacity applied to its alpha channel.
type WatermarkParams struct {
	Text     string
	FontSize float64
	Color    color.NRGBA
	Position Position
}

// ConvertImage decodes the input and re-encodes it in the requested format.
func ConvertImage(input, output, format string) error {
	return instrument(OpImageConvert, func() error {
		img, err := decodeImage(input)
		if err != nil {
			return err
		}
		return encodeImage(output, img, format)
	})
}

// ResizeImage scales the input to exactly width x height. Upscaling and
// downscaling are both allowed; aspect ratio follows the caller's numbers.
func ResizeImage(input, output string, width, height int, format string) error {
	return instrument(OpImageResize, func() error {
		img, err := decodeImage(input)
		if err != nil {
			return err
		}
		resized := imaging.Resize(img, width, height, imaging.Lanczos)
		return encodeImage(output, resized, format)
	})
}

// WatermarkImage draws text onto the input at the anchored position and
// writes the result as PNG.
func WatermarkImage(input, output string, p WatermarkParams) error {
	return instrument(OpImageWatermark, func() error {
		img, err := decodeImage(input)
		if err != nil {
			return err
		}

		face, err := newFace(p.FontSize)
		if err != nil {
			return apperr.Wrap(apperr.KindTransform, err, "loading watermark font")
		}
		defer func() {
			if err := face.Close(); err != nil {
				logging.Warn("failed to close font face: %v", err)
			}
		}()

		canvas := imaging.Clone(img)
		bounds := canvas.Bounds()

		textWidth := font.MeasureString(face, p.Text).Ceil()
		x, y := TextOrigin(bounds.Dx(), bounds.Dy(), textWidth, p.FontSize, p.Position)

		drawer := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(p.Color),
			Face: face,
			Dot:  fixed.P(x, y),
		}
		drawer.DrawString(p.Text)

		return encodeImage(output, canvas, "png")
	})
}

// decodeImage opens an image with orientation correction, falling back to
// libvips for formats the pure-Go decoders cannot handle.
func decodeImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	logging.Debug("imaging.Open failed for %s: %v, trying vips fallback", path, err)

	img, vipsErr := decodeWithVips(path)
	if vipsErr == nil {
		return img, nil
	}

	return nil, apperr.Wrap(apperr.KindTransform, err, "unsupported or corrupt image")
}

// encodeImage writes the image in the requested format; unknown formats
// encode as PNG, matching the output MIME table.
func encodeImage(path string, img image.Image, format string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return apperr.Wrap(apperr.KindResource, err, "creating output file")
	}

	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		err = imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(90))
	case "webp":
		err = webp.Encode(f, img, &webp.Options{Quality: 90})
	case "bmp":
		err = bmp.Encode(f, img)
	default:
		err = imaging.Encode(f, img, imaging.PNG)
	}

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return apperr.Wrap(apperr.KindTransform, err, "encoding image as %s", format)
	}
	return nil
}

var (
	watermarkFont     *opentype.Font
	watermarkFontErr  error
	watermarkFontOnce sync.Once
)

// newFace creates a font face at the given size from the bundled typeface.
func newFace(size float64) (font.Face, error) {
	watermarkFontOnce.Do(func() {
		watermarkFont, watermarkFontErr = opentype.Parse(goregular.TTF)
	})
	if watermarkFontErr != nil {
		return nil, watermarkFontErr
	}

	return opentype.NewFace(watermarkFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// namedColors are the watermark colors accepted by name.
var namedColors = map[string]color.NRGBA{
	"white":  {R: 255, G: 255, B: 255},
	"black":  {},
	"red":    {R: 255},
	"green":  {G: 128},
	"blue":   {B: 255},
	"yellow": {R: 255, G: 255},
	"gray":   {R: 128, G: 128, B: 128},
}

// ParseColor resolves a color by name or #rrggbb hex and applies opacity
// to its alpha channel. Unrecognized input yields white, keeping color a
// cosmetic parameter rather than a validation failure.
func ParseColor(s string, opacity float64) color.NRGBA {
	c := color.NRGBA{R: 255, G: 255, B: 255}

	s = strings.ToLower(strings.TrimSpace(s))
	if named, ok := namedColors[s]; ok {
		c = named
	} else if strings.HasPrefix(s, "#") && len(s) == 7 {
		if r, g, b, ok := parseHex(s[1:]); ok {
			c = color.NRGBA{R: r, G: g, B: b}
		}
	}

	c.A = uint8(opacity*255 + 0.5)
	return c
}

func parseHex(s string) (r, g, b uint8, ok bool) {
	var v [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexDigit(s[i*2])
		lo, ok2 := hexDigit(s[i*2+1])
		if !ok1 || !ok2 {
			return 0, 0, 0, false
		}
		v[i] = hi<<4 | lo
	}
	return v[0], v[1], v[2], true
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

// instrument wraps an in-process adapter call with the same metrics the
// external invoker records.
func instrument(op Operation, fn func() error) error {
	metrics.TransformsActive.Inc()
	defer metrics.TransformsActive.Dec()

	start := time.Now()
	err := fn()
	metrics.TransformDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.TransformsTotal.WithLabelValues(string(op), "error").Inc()
		return err
	}
	metrics.TransformsTotal.WithLabelValues(string(op), "ok").Inc()
	return nil
}
