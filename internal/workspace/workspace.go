// Package workspace manages the isolated temporary directory backing each
// transform request.
//
// A workspace is exclusively owned by one request and never reused. Every
// staged upload and every produced artifact lives inside it, so destroying
// the directory reclaims all per-request disk state in one operation.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"media-forge/internal/apperr"
	"media-forge/internal/filesystem"
	"media-forge/internal/logging"
	"media-forge/internal/metrics"

	"github.com/google/uuid"
)

// Manager allocates workspaces under a single temp root configured at startup.
type Manager struct {
	root  string
	retry filesystem.RetryConfig
}

// NewManager creates the manager and verifies the temp root is writable.
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.KindResource, err, "creating temp root")
	}

	probe := filepath.Join(root, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0o644); err != nil {
		return nil, apperr.Wrap(apperr.KindResource, err, "temp root is not writable")
	}
	if err := os.Remove(probe); err != nil {
		logging.Warn("failed to remove write probe %s: %v", probe, err)
	}

	return &Manager{
		root:  root,
		retry: filesystem.DefaultRetryConfig(),
	}, nil
}

// Root returns the temp root all workspaces live under.
func (m *Manager) Root() string {
	return m.root
}

// Create allocates a fresh workspace directory. Names combine a timestamp
// with a random suffix so concurrent requests can never collide.
func (m *Manager) Create() (*Workspace, error) {
	name := fmt.Sprintf("job-%s-%s", time.Now().UTC().Format("20060102T150405"), uuid.NewString()[:8])
	dir := filepath.Join(m.root, name)

	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, apperr.Wrap(apperr.KindResource, err, "allocating workspace")
	}

	metrics.WorkspacesCreated.Inc()
	logging.Debug("workspace created: %s", dir)

	return &Workspace{dir: dir, retry: m.retry}, nil
}

// Workspace is one request's private directory.
type Workspace struct {
	dir         string
	retry       filesystem.RetryConfig
	destroyOnce sync.Once
}

// Dir returns the workspace directory path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins a file name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Destroy removes the workspace and everything in it. It runs at most once
// no matter how many exit paths reach it, and it never returns an error:
// removal failures are logged and counted so cleanup can never mask the
// request's primary result.
func (w *Workspace) Destroy() {
	w.destroyOnce.Do(func() {
		if err := filesystem.RemoveAllWithRetry(w.dir, w.retry); err != nil {
			metrics.WorkspaceCleanupFailures.Inc()
			logging.Error("failed to remove workspace %s: %v", w.dir, err)
			return
		}
		metrics.WorkspacesDestroyed.Inc()
		logging.Debug("workspace destroyed: %s", w.dir)
	})
}
