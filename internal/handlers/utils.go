package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"media-forge/internal/apperr"
)

// formMemoryLimit is how much of a multipart body ParseMultipartForm keeps
// in memory before spilling to disk.
const formMemoryLimit = 32 << 20

// parseUpload bounds the request body and parses the multipart form.
// The whole request is capped at twice the per-file limit plus form
// overhead; the stager enforces the exact per-file cap afterwards. This is
// a deliberate request-level bound: a multi-file merge can carry at most
// two near-limit payloads in one request.
func (h *Handlers) parseUpload(w http.ResponseWriter, r *http.Request) error {
	maxBytes := h.stager.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes*2+formMemoryLimit)

	if err := r.ParseMultipartForm(formMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.New(apperr.KindPayloadTooLarge, "request body exceeds the upload limit of %d bytes", maxBytes)
		}
		return apperr.New(apperr.KindValidation, "malformed multipart form: %v", err)
	}
	return nil
}

// formFile fetches a single required file field.
func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, apperr.New(apperr.KindValidation, "missing required file field %q", field)
	}
	return file, header, nil
}

// formFiles fetches a repeated file field, requiring at least min entries.
func formFiles(r *http.Request, field string, min int) ([]*multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		return nil, apperr.New(apperr.KindValidation, "missing required file field %q", field)
	}
	headers := r.MultipartForm.File[field]
	if len(headers) < min {
		return nil, apperr.New(apperr.KindValidation, "field %q requires at least %d files, got %d", field, min, len(headers))
	}
	return headers, nil
}

// clampInt parses an optional integer field, clamping it into [min, max].
// Absent or unparsable values fall back to def.
func clampInt(s string, min, max, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// clampFloat parses an optional float field, clamping it into [min, max].
func clampFloat(s string, min, max, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}

// requiredPositiveInt parses a required dimension field. Zero and negative
// values are rejected rather than clamped: a caller asking for a 0x0 image
// made a mistake worth telling them about.
func requiredPositiveInt(s, field string) (int, error) {
	if s == "" {
		return 0, apperr.New(apperr.KindValidation, "missing required field %q", field)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.New(apperr.KindValidation, "field %q must be an integer, got %q", field, s)
	}
	if n <= 0 {
		return 0, apperr.New(apperr.KindValidation, "field %q must be positive, got %d", field, n)
	}
	return n, nil
}

// parseResolution parses an optional "WIDTHxHEIGHT" field. Empty means
// keep the source resolution.
func parseResolution(s string) (width, height int, err error) {
	if s == "" {
		return 0, 0, nil
	}
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, apperr.New(apperr.KindValidation, "field %q must look like 1280x720, got %q", "resolution", s)
	}
	width, err = requiredPositiveInt(parts[0], "resolution width")
	if err != nil {
		return 0, 0, err
	}
	height, err = requiredPositiveInt(parts[1], "resolution height")
	if err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

// attachmentName derives the download filename from the staged asset's
// display name, swapping its extension for the artifact's.
func attachmentName(displayName, suffix string) string {
	base := strings.TrimSuffix(displayName, filepath.Ext(displayName))
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s%s", base, suffix)
}
