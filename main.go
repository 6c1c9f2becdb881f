package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-forge/internal/handlers"
	"media-forge/internal/logging"
	"media-forge/internal/memory"
	"media-forge/internal/middleware"
	"media-forge/internal/staging"
	"media-forge/internal/startup"
	"media-forge/internal/transform"
	"media-forge/internal/workspace"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize the extended image decoder
	transform.InitVips()

	// Initialize workspace manager (verifies the temp root is writable)
	workspaces, err := workspace.NewManager(config.TempRoot)
	if err != nil {
		startup.LogFatal("Failed to initialize temp storage: %v", err)
	}

	// Initialize transform invoker
	startup.LogTransformInit(config.TransformTimeout)
	ffmpeg := transform.NewFFmpeg(config.TransformTimeout)

	// Initialize memory monitor
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	// Initialize handlers
	stager := staging.NewStager(config.MaxFileSizeBytes)
	h := handlers.New(config, workspaces, stager, ffmpeg, monitor)

	// Setup router
	router := setupRouter(h, config.MetricsEnabled)

	// Log routes dynamically
	startup.LogHTTPRoutes(router)

	// Apply middleware: metrics outermost so it times the full chain
	loggingConfig := middleware.LoggingConfig{LogHealthChecks: config.LogHealthChecks}
	handler := middleware.Compression()(router)
	handler = middleware.Logger(loggingConfig)(handler)
	handler = middleware.Metrics()(handler)

	// Create server. WriteTimeout stays 0: artifact streams are bounded by
	// the per-chunk timeout writer, not a whole-response deadline.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, ffmpeg, monitor)

	// Start server
	startup.LogServerStarted(config.Port, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// Transformation routes
	r.HandleFunc("/audio/compress", h.CompressAudio).Methods("POST")
	r.HandleFunc("/audio/merge", h.MergeAudio).Methods("POST")
	r.HandleFunc("/image/convert", h.ConvertImage).Methods("POST")
	r.HandleFunc("/image/resize", h.ResizeImage).Methods("POST")
	r.HandleFunc("/image/watermark", h.WatermarkImage).Methods("POST")
	r.HandleFunc("/pdf/merge", h.MergePDFs).Methods("POST")
	r.HandleFunc("/video", h.TranscodeVideo).Methods("POST")

	return r
}

func handleShutdown(srv *http.Server, ffmpeg *transform.FFmpeg, monitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownStep("Terminating running transformations")
	ffmpeg.Cleanup()
	startup.LogShutdownStepComplete("Transformations terminated")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Releasing image decoder")
	transform.ShutdownVips()
	startup.LogShutdownStepComplete("Image decoder released")

	startup.LogShutdownComplete()
}
