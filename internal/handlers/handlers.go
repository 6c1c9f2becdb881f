// Package handlers implements the HTTP surface and sequences each request
// through validation, workspace allocation, staging, transformation, and
// artifact streaming.
//
// Failure at any stage short-circuits to a single error response; the
// deferred workspace destruction covers every exit path, and its own
// once-guard keeps cleanup exactly-once when streaming also triggers it.
package handlers

import (
	"net/http"
	"time"

	"media-forge/internal/apperr"
	"media-forge/internal/logging"
	"media-forge/internal/memory"
	"media-forge/internal/metrics"
	"media-forge/internal/staging"
	"media-forge/internal/startup"
	"media-forge/internal/streaming"
	"media-forge/internal/transform"
	"media-forge/internal/workspace"
)

// Handlers carries the collaborators shared by all routes.
type Handlers struct {
	config       *startup.Config
	workspaces   *workspace.Manager
	stager       *staging.Stager
	ffmpeg       *transform.FFmpeg
	memory       *memory.Monitor
	limiter      chan struct{}
	streamConfig streaming.Config
	startTime    time.Time
}

// New wires the handler set.
func New(config *startup.Config, workspaces *workspace.Manager, stager *staging.Stager, ffmpeg *transform.FFmpeg, monitor *memory.Monitor) *Handlers {
	return &Handlers{
		config:       config,
		workspaces:   workspaces,
		stager:       stager,
		ffmpeg:       ffmpeg,
		memory:       monitor,
		limiter:      make(chan struct{}, config.MaxConcurrent),
		streamConfig: streaming.DefaultConfig(),
		startTime:    time.Now(),
	}
}

// acquire claims a transformation slot. Requests past the concurrency
// ceiling, or arriving under memory pressure, are rejected immediately
// rather than queued: a caller gets a fast busy answer instead of a slot
// in an invisible line.
func (h *Handlers) acquire() (release func(), err error) {
	if h.memory != nil && h.memory.IsCritical() {
		metrics.TransformsRejectedBusy.Inc()
		return nil, apperr.New(apperr.KindBusy, "server is under memory pressure, try again later")
	}

	select {
	case h.limiter <- struct{}{}:
		return func() { <-h.limiter }, nil
	default:
		metrics.TransformsRejectedBusy.Inc()
		return nil, apperr.New(apperr.KindBusy, "too many concurrent transformations, try again later")
	}
}

// writeError renders a classified error as the single response for the
// request. Client-caused failures log at debug; server-side ones at error.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	msg := apperr.Message(err)

	switch kind {
	case apperr.KindValidation, apperr.KindPayloadTooLarge, apperr.KindBusy:
		logging.Debug("%s %s rejected: %s", r.Method, r.URL.Path, msg)
	default:
		logging.Error("%s %s failed: %s", r.Method, r.URL.Path, msg)
	}

	http.Error(w, msg, kind.HTTPStatus())
}
