// Package staging persists uploaded byte streams into a workspace.
//
// The stager owns on-disk naming: files are named by ordinal prefix plus a
// random identifier plus the sanitized original extension. Client-supplied
// filenames never reach path construction, which closes off traversal.
// The ordinal prefix keeps multi-file operations (merge) in submission order.
package staging

import (
	"fmt"
	"io"
	"os"

	"media-forge/internal/apperr"
	"media-forge/internal/logging"
	"media-forge/internal/mediatypes"
	"media-forge/internal/metrics"
	"media-forge/internal/workspace"

	"github.com/google/uuid"
)

// Asset is an uploaded input persisted inside a workspace. It is owned by
// the workspace and disappears with it.
type Asset struct {
	// Path is the absolute on-disk location inside the workspace.
	Path string
	// DisplayName is the sanitized client filename, for response headers only.
	DisplayName string
	// Size is the number of bytes written.
	Size int64
}

// Stager writes uploads into workspaces subject to a size ceiling.
type Stager struct {
	maxBytes int64
}

// NewStager creates a stager enforcing the given payload ceiling in bytes.
func NewStager(maxBytes int64) *Stager {
	return &Stager{maxBytes: maxBytes}
}

// MaxBytes returns the configured payload ceiling.
func (s *Stager) MaxBytes() int64 {
	return s.maxBytes
}

// Stage persists one upload into the workspace.
//
// declaredSize is the size reported by the multipart part header; when it
// already exceeds the ceiling the upload is rejected before any disk write.
// The copy itself is capped as well, so a lying client cannot get more than
// maxBytes+1 onto disk before the request fails and the workspace is torn
// down.
func (s *Stager) Stage(ws *workspace.Workspace, r io.Reader, declaredSize int64, origName string, ordinal int) (*Asset, error) {
	if declaredSize > s.maxBytes {
		return nil, apperr.New(apperr.KindPayloadTooLarge,
			"file exceeds maximum size of %d bytes", s.maxBytes)
	}

	ext := mediatypes.SanitizeExtension(extensionOf(origName))
	name := fmt.Sprintf("%03d-%s%s", ordinal, uuid.NewString()[:12], ext)
	path := ws.Path(name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindResource, err, "creating staged file")
	}

	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindResource, err, "writing staged file")
	}
	if written > s.maxBytes {
		return nil, apperr.New(apperr.KindPayloadTooLarge,
			"file exceeds maximum size of %d bytes", s.maxBytes)
	}

	metrics.BytesStaged.Add(float64(written))
	logging.Debug("staged %d bytes as %s", written, name)

	return &Asset{
		Path:        path,
		DisplayName: mediatypes.DisplayName(origName),
		Size:        written,
	}, nil
}

// extensionOf returns the trailing extension of a client filename without
// trusting any of its path structure.
func extensionOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		switch name[i] {
		case '.':
			return name[i:]
		case '/', '\\':
			return ""
		}
	}
	return ""
}
