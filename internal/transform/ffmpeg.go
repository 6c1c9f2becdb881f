package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"media-forge/internal/apperr"
	"media-forge/internal/logging"
	"media-forge/internal/metrics"
)

// FFmpeg invokes the ffmpeg binary with a bounded wall-clock timeout.
//
// Arguments are always passed as a vector, never through a shell, so file
// paths cannot be interpreted as shell syntax. Running processes are
// tracked so shutdown can terminate them; per-request cancellation rides
// on the request context via exec.CommandContext.
type FFmpeg struct {
	binary  string
	timeout time.Duration

	mu    sync.Mutex
	procs map[string]*exec.Cmd
}

// NewFFmpeg creates an invoker with the given per-invocation timeout,
// running ffmpeg from PATH.
func NewFFmpeg(timeout time.Duration) *FFmpeg {
	return NewFFmpegBinary("ffmpeg", timeout)
}

// NewFFmpegBinary creates an invoker running the given binary, for hosts
// where the encoder lives at a non-default path.
func NewFFmpegBinary(binary string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		binary:  binary,
		timeout: timeout,
		procs:   make(map[string]*exec.Cmd),
	}
}

// CompressAudio re-encodes audio to MP3 at a bitrate derived from quality.
func (f *FFmpeg) CompressAudio(ctx context.Context, input, output string, quality int) error {
	args := audioCompressArgs(input, output, BitrateKbps(quality))
	return f.run(ctx, OpAudioCompress, output, args)
}

// MergeAudio concatenates the inputs, in order, into one MP3. The concat
// list file is written into the workspace next to the output.
func (f *FFmpeg) MergeAudio(ctx context.Context, inputs []string, listPath, output string) error {
	if err := WriteConcatList(listPath, inputs); err != nil {
		return apperr.Wrap(apperr.KindResource, err, "writing concat list")
	}
	args := audioMergeArgs(listPath, output)
	return f.run(ctx, OpAudioMerge, output, args)
}

// Transcode converts video to the requested container, optionally scaling
// to width x height (0 means keep the source resolution).
func (f *FFmpeg) Transcode(ctx context.Context, input, output, format string, width, height int) error {
	args := videoArgs(input, output, format, width, height)
	return f.run(ctx, OpVideoTranscode, output, args)
}

func audioCompressArgs(input, output string, bitrateKbps int) []string {
	return []string{
		"-y",
		"-i", input,
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		output,
	}
}

func audioMergeArgs(listPath, output string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-codec:a", "libmp3lame",
		"-q:a", "2",
		output,
	}
}

func videoArgs(input, output, format string, width, height int) []string {
	args := []string{"-y", "-i", input}

	if width > 0 && height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", width, height))
	}

	args = append(args, videoCodecArgs(format)...)
	return append(args, output)
}

// videoCodecArgs selects the encoder by output container: constrained-quality
// H.264 for mp4, bitrate-targeted VP8 for webm, motion-JPEG otherwise.
func videoCodecArgs(format string) []string {
	switch strings.ToLower(format) {
	case "webm":
		return []string{
			"-c:v", "libvpx",
			"-b:v", "1M",
			"-c:a", "libvorbis",
			"-f", "webm",
		}
	case "mp4":
		return []string{
			"-c:v", "libx264",
			"-preset", "fast",
			"-crf", "23",
			"-c:a", "aac",
			"-movflags", "+faststart",
			"-f", "mp4",
		}
	default:
		return []string{
			"-c:v", "mjpeg",
			"-q:v", "3",
			"-c:a", "libmp3lame",
			"-f", "avi",
		}
	}
}

// WriteConcatList writes an ffmpeg concat-demuxer list referencing the
// inputs by absolute path, preserving slice order.
func WriteConcatList(path string, inputs []string) error {
	var b strings.Builder
	for _, in := range inputs {
		b.WriteString(concatListEntry(in))
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

// concatListEntry quotes one path for the concat demuxer. Single quotes
// inside the path are closed, escaped, and reopened, the same escaping a
// POSIX shell uses, which is what the demuxer's parser expects.
func concatListEntry(path string) string {
	return "file '" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

// run executes ffmpeg and classifies the outcome. key is the output path,
// used both for process tracking and to scrub workspace paths from
// user-facing diagnostics.
func (f *FFmpeg) run(ctx context.Context, op Operation, key string, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, f.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.mu.Lock()
	f.procs[key] = cmd
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		delete(f.procs, key)
		f.mu.Unlock()
	}()

	metrics.TransformsActive.Inc()
	defer metrics.TransformsActive.Dec()

	start := time.Now()
	logging.Debug("ffmpeg %s: %s", op, strings.Join(args, " "))
	err := cmd.Run()
	metrics.TransformDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.TransformsTotal.WithLabelValues(string(op), "ok").Inc()
		return nil
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		metrics.TransformsTotal.WithLabelValues(string(op), "timeout").Inc()
		return apperr.New(apperr.KindTimeout, "transformation exceeded %v", f.timeout)

	case ctx.Err() != nil:
		// Client disconnect or server shutdown; CommandContext already
		// killed the process.
		metrics.TransformsTotal.WithLabelValues(string(op), "canceled").Inc()
		return apperr.Wrap(apperr.KindTransform, ctx.Err(), "transformation canceled")

	default:
		metrics.TransformsTotal.WithLabelValues(string(op), "error").Inc()
		diag := sanitizeDiagnostic(stderr.String(), filepath.Dir(key))
		logging.Error("ffmpeg %s failed: %v: %s", op, err, diag)
		return apperr.Wrap(apperr.KindTransform, err, "%s", diag)
	}
}

// Cleanup kills any ffmpeg processes still running, for shutdown.
func (f *FFmpeg) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, cmd := range f.procs {
		if cmd.Process != nil {
			logging.Info("killing transformation process for: %s", filepath.Base(key))
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill transformation process: %v", err)
			}
		}
	}
}

// sanitizeDiagnostic trims ffmpeg stderr to its tail and replaces workspace
// paths so host filesystem layout never reaches a caller.
func sanitizeDiagnostic(diag, workspaceDir string) string {
	diag = strings.TrimSpace(diag)
	if diag == "" {
		return "transformation tool reported no diagnostic output"
	}

	lines := strings.Split(diag, "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	diag = strings.Join(lines, " ")

	if workspaceDir != "" && workspaceDir != "." {
		diag = strings.ReplaceAll(diag, workspaceDir, "[workspace]")
	}
	return diag
}
