package transform

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"media-forge/internal/apperr"
)

// writeTestPNG writes a solid white width x height PNG and returns its path.
func writeTestPNG(t *testing.T, dir string, width, height int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	path := filepath.Join(dir, "input.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodeFile(t *testing.T, path string) (image.Image, string) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	return img, format
}

func TestResizeImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeTestPNG(t, dir, 200, 100)
	output := filepath.Join(dir, "out.webp")

	if err := ResizeImage(input, output, 100, 50, "webp"); err != nil {
		t.Fatal(err)
	}

	img, format := decodeFile(t, output)
	if format != "webp" {
		t.Errorf("output format = %s, want webp", format)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("output dimensions = %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}

func TestConvertImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeTestPNG(t, dir, 64, 64)

	tests := []struct {
		format     string
		wantFormat string
	}{
		{"jpeg", "jpeg"},
		{"bmp", "bmp"},
		{"png", "png"},
		{"tiff", "png"}, // unknown target encodes as png
	}

	for _, tt := range tests {
		output := filepath.Join(dir, "out-"+tt.format)
		if err := ConvertImage(input, output, tt.format); err != nil {
			t.Fatalf("ConvertImage(%s): %v", tt.format, err)
		}
		if _, format := decodeFile(t, output); format != tt.wantFormat {
			t.Errorf("ConvertImage(%s) produced %s, want %s", tt.format, format, tt.wantFormat)
		}
	}
}

func TestWatermarkImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeTestPNG(t, dir, 200, 100)
	output := filepath.Join(dir, "out.png")

	err := WatermarkImage(input, output, WatermarkParams{
		Text:     "sample",
		FontSize: 16,
		Color:    color.NRGBA{A: 255}, // opaque black
		Position: PositionCenter,
	})
	if err != nil {
		t.Fatal(err)
	}

	img, format := decodeFile(t, output)
	if format != "png" {
		t.Errorf("watermark output format = %s, want png", format)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("watermark changed dimensions: %dx%d", b.Dx(), b.Dy())
	}

	// The text must have darkened at least some pixels of the white input.
	changed := 0
	b := img.Bounds()
	for yy := b.Min.Y; yy < b.Max.Y; yy++ {
		for xx := b.Min.X; xx < b.Max.X; xx++ {
			r, g, bl, _ := img.At(xx, yy).RGBA()
			if r < 0xffff || g < 0xffff || bl < 0xffff {
				changed++
			}
		}
	}
	if changed == 0 {
		t.Error("watermark text left the image untouched")
	}
}

func TestDecodeImageCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(path, []byte("not an image at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := decodeImage(path)
	if apperr.KindOf(err) != apperr.KindTransform {
		t.Errorf("corrupt image error = %v, want transform kind", err)
	}
}

func TestParseColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		opacity float64
		want    color.NRGBA
	}{
		{"black", 1.0, color.NRGBA{A: 255}},
		{"red", 1.0, color.NRGBA{R: 255, A: 255}},
		{"#00ff00", 1.0, color.NRGBA{G: 255, A: 255}},
		{"#0000ff", 0.5, color.NRGBA{B: 255, A: 128}},
		{"", 1.0, color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{"no-such-color", 1.0, color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{"#zzzzzz", 1.0, color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
	}

	for _, tt := range tests {
		if got := ParseColor(tt.input, tt.opacity); got != tt.want {
			t.Errorf("ParseColor(%q, %v) = %+v, want %+v", tt.input, tt.opacity, got, tt.want)
		}
	}
}
