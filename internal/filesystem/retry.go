// Package filesystem provides retry wrappers for filesystem operations.
//
// Workspace roots may live on network or overlay filesystems where removal
// can fail transiently (EBUSY while a killed ffmpeg still holds a handle,
// ESTALE on NFS). Cleanup must not give up on the first error, so removal
// retries with exponential backoff before reporting failure.
package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"media-forge/internal/logging"
	"media-forge/internal/metrics"
)

// RetryConfig configures retry behavior for filesystem operations.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the retry policy used for workspace cleanup.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isRetryable reports whether an error is worth retrying.
// Permission and not-exist errors are permanent; contention errors are not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if os.IsNotExist(err) || os.IsPermission(err) {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EBUSY, syscall.EAGAIN, syscall.EINTR, syscall.ESTALE, syscall.EIO:
			return true
		}
	}
	return false
}

// RemoveAllWithRetry removes a directory tree, retrying transient failures.
// A path that no longer exists counts as success, which keeps removal
// idempotent for callers that may run it more than once.
func RemoveAllWithRetry(path string, config RetryConfig) error {
	backoff := config.InitialBackoff

	var err error
	for attempt := 0; ; attempt++ {
		err = os.RemoveAll(path)
		if err == nil {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}

		if attempt >= config.MaxRetries || !isRetryable(err) {
			return err
		}

		metrics.WorkspaceCleanupRetries.Inc()
		logging.Debug("retrying removal of %s after error: %v (attempt %d/%d)",
			path, err, attempt+1, config.MaxRetries)

		time.Sleep(backoff)
		backoff *= 2
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}
}
