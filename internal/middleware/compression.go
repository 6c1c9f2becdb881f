package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"media-forge/internal/logging"
)

// compressibleTypes are content types worth gzipping. Media artifacts are
// already compressed; re-compressing them wastes CPU for nothing.
var compressibleTypes = []string{
	"application/json",
	"text/plain",
	"text/html",
}

type gzipResponseWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	wroteHeader bool
	compressing bool
}

func (w *gzipResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	if isCompressible(w.Header().Get("Content-Type")) {
		w.compressing = true
		w.Header().Del("Content-Length")
		w.Header().Set("Content-Encoding", "gzip")
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.compressing {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *gzipResponseWriter) Flush() {
	if w.compressing {
		if err := w.gz.Flush(); err != nil {
			logging.Warn("gzip flush failed: %v", err)
		}
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func isCompressible(contentType string) bool {
	for _, t := range compressibleTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// Compression returns a middleware that gzips compressible responses for
// clients that accept it.
func Compression() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gz := gzip.NewWriter(w)
			grw := &gzipResponseWriter{ResponseWriter: w, gz: gz}
			defer func() {
				if grw.compressing {
					if err := gz.Close(); err != nil && err != io.ErrClosedPipe {
						logging.Warn("gzip close failed: %v", err)
					}
				}
			}()

			next.ServeHTTP(grw, r)
		})
	}
}
