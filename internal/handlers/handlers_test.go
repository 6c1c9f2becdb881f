package handlers

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"media-forge/internal/staging"
	"media-forge/internal/startup"
	"media-forge/internal/transform"
	"media-forge/internal/workspace"

	_ "golang.org/x/image/webp"
)

// newTestHandlers builds a handler set rooted in a per-test temp dir so
// tests can assert the temp root ends up empty.
func newTestHandlers(t *testing.T) (*Handlers, string) {
	t.Helper()

	root := t.TempDir()
	manager, err := workspace.NewManager(root)
	if err != nil {
		t.Fatal(err)
	}

	config := &startup.Config{
		Port:             "0",
		MaxFileSizeBytes: 10 << 20,
		TempRoot:         root,
		TransformTimeout: 30 * time.Second,
		MaxConcurrent:    2,
	}

	h := New(config, manager, staging.NewStager(config.MaxFileSizeBytes), transform.NewFFmpeg(config.TransformTimeout), nil)
	return h, root
}

// multipartBody builds a multipart form with the given files and fields.
type filePart struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, files []filePart, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func assertTempRootEmpty(t *testing.T, root string) {
	t.Helper()

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("temp root not empty after request: %v", names)
	}
}

func TestCompressAudioMissingFile(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)
	body, contentType := multipartBody(t, nil, map[string]string{"quality": "50"})

	req := httptest.NewRequest("POST", "/audio/compress", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.CompressAudio(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "audio") {
		t.Errorf("error body should name the missing field, got %q", rec.Body.String())
	}
	assertTempRootEmpty(t, root)
}

func TestMergeAudioRequiresTwoFiles(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)
	body, contentType := multipartBody(t, []filePart{
		{field: "audios", name: "only.mp3", data: []byte("not really audio")},
	}, nil)

	req := httptest.NewRequest("POST", "/audio/merge", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.MergeAudio(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	// Rejected before workspace allocation: nothing to clean up.
	assertTempRootEmpty(t, root)
}

func TestResizeImageEndToEnd(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)
	body, contentType := multipartBody(t, []filePart{
		{field: "image", name: "photo.png", data: pngBytes(t, 200, 100)},
	}, map[string]string{"width": "100", "height": "50", "format": "webp"})

	req := httptest.NewRequest("POST", "/image/resize", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ResizeImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/webp" {
		t.Errorf("Content-Type = %q, want image/webp", got)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "photo.webp") {
		t.Errorf("Content-Disposition = %q, want photo.webp", cd)
	}

	img, _, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("artifact is %dx%d, want 100x50", b.Dx(), b.Dy())
	}

	assertTempRootEmpty(t, root)
}

func TestResizeImageRejectsNonPositiveDimensions(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)

	for _, dims := range []map[string]string{
		{"width": "0", "height": "50"},
		{"width": "100", "height": "-1"},
		{"width": "abc", "height": "50"},
		{"height": "50"},
	} {
		body, contentType := multipartBody(t, []filePart{
			{field: "image", name: "photo.png", data: pngBytes(t, 10, 10)},
		}, dims)

		req := httptest.NewRequest("POST", "/image/resize", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.ResizeImage(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("dims %v: status = %d, want 400", dims, rec.Code)
		}
	}
	assertTempRootEmpty(t, root)
}

func TestConvertImageRequiresFormat(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)
	body, contentType := multipartBody(t, []filePart{
		{field: "image", name: "photo.png", data: pngBytes(t, 10, 10)},
	}, nil)

	req := httptest.NewRequest("POST", "/image/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ConvertImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "format") {
		t.Errorf("error body should name the missing field, got %q", rec.Body.String())
	}
	assertTempRootEmpty(t, root)
}

func TestWatermarkImageEndToEnd(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)
	body, contentType := multipartBody(t, []filePart{
		{field: "image", name: "photo.png", data: pngBytes(t, 200, 100)},
	}, map[string]string{"text": "sample", "position": "center", "color": "black", "opacity": "1"})

	req := httptest.NewRequest("POST", "/image/watermark", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.WatermarkImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", got)
	}

	img, _, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("artifact is %dx%d, want 200x100", b.Dx(), b.Dy())
	}
	assertTempRootEmpty(t, root)
}

func TestCorruptImageReturnsTransformError(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)
	body, contentType := multipartBody(t, []filePart{
		{field: "image", name: "photo.png", data: []byte("definitely not an image")},
	}, map[string]string{"width": "10", "height": "10"})

	req := httptest.NewRequest("POST", "/image/resize", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ResizeImage(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	assertTempRootEmpty(t, root)
}

func TestOversizedUploadRejected(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)
	h.stager = staging.NewStager(64)

	body, contentType := multipartBody(t, []filePart{
		{field: "image", name: "big.png", data: bytes.Repeat([]byte("x"), 256)},
	}, map[string]string{"width": "10", "height": "10"})

	req := httptest.NewRequest("POST", "/image/resize", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ResizeImage(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	assertTempRootEmpty(t, root)
}

func TestBusyWhenAtConcurrencyCeiling(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)

	// Occupy every slot.
	for i := 0; i < cap(h.limiter); i++ {
		h.limiter <- struct{}{}
	}

	body, contentType := multipartBody(t, []filePart{
		{field: "image", name: "photo.png", data: pngBytes(t, 10, 10)},
	}, map[string]string{"width": "5", "height": "5"})

	req := httptest.NewRequest("POST", "/image/resize", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ResizeImage(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	assertTempRootEmpty(t, root)
}

func TestTransformTimeoutRemovesWorkspace(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)

	// Stand in a script that sleeps past the timeout for the encoder.
	stub := filepath.Join(t.TempDir(), "stub-encoder")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nsleep 30\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	h.ffmpeg = transform.NewFFmpegBinary(stub, 100*time.Millisecond)

	body, contentType := multipartBody(t, []filePart{
		{field: "audio", name: "song.mp3", data: []byte("audio bytes")},
	}, nil)

	req := httptest.NewRequest("POST", "/audio/compress", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.CompressAudio(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
	assertTempRootEmpty(t, root)
}

func TestMergePDFsRequiresAtLeastOneFile(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)
	body, contentType := multipartBody(t, nil, map[string]string{"unrelated": "field"})

	req := httptest.NewRequest("POST", "/pdf/merge", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.MergePDFs(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pdfs") {
		t.Errorf("error body should name the field, got %q", rec.Body.String())
	}
	assertTempRootEmpty(t, root)
}

func TestTranscodeVideoRejectsMalformedResolution(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)

	for _, res := range []string{"1280", "0x720", "1280x-1", "wide x tall"} {
		body, contentType := multipartBody(t, []filePart{
			{field: "video", name: "clip.mp4", data: []byte("not a real video")},
		}, map[string]string{"resolution": res})

		req := httptest.NewRequest("POST", "/video", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.TranscodeVideo(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("resolution %q: status = %d, want 400", res, rec.Code)
		}
	}
	assertTempRootEmpty(t, root)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.Index(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "alive") {
		t.Errorf("index: status = %d, body = %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health: status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Errorf("health body = %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("readyz: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.GetVersion(rec, httptest.NewRequest("GET", "/version", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"goVersion"`) {
		t.Errorf("version: status = %d, body = %q", rec.Code, rec.Body.String())
	}
}

func TestReadinessFailsWithoutTempRoot(t *testing.T) {
	t.Parallel()

	h, root := newTestHandlers(t)
	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz: status = %d, want 503", rec.Code)
	}
}

func TestAttachmentName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		display, suffix, want string
	}{
		{"song.wav", "-compressed.mp3", "song-compressed.mp3"},
		{"photo.png", ".webp", "photo.webp"},
		{"noext", ".png", "noext.png"},
		{".hidden", ".png", "file.png"},
	}

	for _, tt := range tests {
		if got := attachmentName(tt.display, tt.suffix); got != tt.want {
			t.Errorf("attachmentName(%q, %q) = %q, want %q", tt.display, tt.suffix, got, tt.want)
		}
	}
}

func TestClampHelpers(t *testing.T) {
	t.Parallel()

	if got := clampInt("", 10, 100, 50); got != 50 {
		t.Errorf("empty quality = %d, want 50", got)
	}
	if got := clampInt("5", 10, 100, 50); got != 10 {
		t.Errorf("quality 5 clamped to %d, want 10", got)
	}
	if got := clampInt("200", 10, 100, 50); got != 100 {
		t.Errorf("quality 200 clamped to %d, want 100", got)
	}
	if got := clampFloat("2.5", 0, 1, 0.5); got != 1 {
		t.Errorf("opacity 2.5 clamped to %v, want 1", got)
	}
}
