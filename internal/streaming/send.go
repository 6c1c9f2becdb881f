package streaming

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"media-forge/internal/logging"
	"media-forge/internal/metrics"
)

// Result describes a produced artifact ready to stream.
type Result struct {
	// Path is the artifact file inside the request's workspace.
	Path string
	// MIME is the response content type.
	MIME string
	// Filename is the suggested download name for Content-Disposition.
	Filename string
}

// Send streams the artifact as an attachment and runs cleanup on every
// exit path. Once headers are committed no second response is attempted;
// a failed stream at that point is logged and the connection is left to
// close. The cleanup hook is invoked exactly once here; callers that also
// defer it rely on the hook's own idempotency.
func Send(ctx context.Context, w http.ResponseWriter, res Result, cleanup func(), config Config) {
	defer cleanup()

	f, err := os.Open(res.Path)
	if err != nil {
		logging.Error("artifact missing at stream time: %v", err)
		http.Error(w, "transformation produced no output", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close artifact file: %v", err)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "transformation produced no output", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", res.MIME)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	written, err := Copy(ctx, w, f, config)
	if err != nil {
		// Headers are committed; all we can do is record why the stream
		// ended early.
		switch {
		case errors.Is(err, ErrClientGone):
			metrics.StreamAborts.WithLabelValues("client_gone").Inc()
			logging.Debug("client disconnected after %d bytes of %s", written, res.Filename)
		case errors.Is(err, ErrWriteTimeout):
			metrics.StreamAborts.WithLabelValues("timeout").Inc()
			logging.Warn("stream timed out after %d bytes of %s", written, res.Filename)
		default:
			logging.Error("stream failed after %d bytes of %s: %v", written, res.Filename, err)
		}
		return
	}

	logging.Debug("streamed %d bytes of %s", written, res.Filename)
}
