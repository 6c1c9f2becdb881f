// Package startup loads configuration and handles startup/shutdown logging.
package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"media-forge/internal/logging"
	"media-forge/internal/workers"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	Port             string
	MaxFileSizeBytes int64
	TempRoot         string
	TransformTimeout time.Duration
	MaxConcurrent    int
	MetricsEnabled   bool
	LogHealthChecks  bool
}

// defaultMaxFileSize is 50 MiB.
const defaultMaxFileSize = 52428800

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	port := getEnv("PORT", "8080")
	maxFileSize := getEnvInt64("MAX_FILE_SIZE_BYTES", defaultMaxFileSize)
	tempRoot := getEnv("TEMP_ROOT", filepath.Join(os.TempDir(), "media-forge"))
	timeoutStr := getEnv("TRANSFORM_TIMEOUT", "2m")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", false)

	logging.Info("  PORT:                %s", port)
	logging.Info("  MAX_FILE_SIZE_BYTES: %d", maxFileSize)
	logging.Info("  TEMP_ROOT:           %s", tempRoot)
	logging.Info("  TRANSFORM_TIMEOUT:   %s", timeoutStr)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if maxFileSize <= 0 {
		logging.Warn("  Invalid MAX_FILE_SIZE_BYTES, using default: %d", int64(defaultMaxFileSize))
		maxFileSize = defaultMaxFileSize
	}

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		logging.Warn("  Invalid TRANSFORM_TIMEOUT, using default: 2m")
		timeout = 2 * time.Minute
	}

	tempRoot, err = filepath.Abs(tempRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve temp root path: %w", err)
	}

	maxConcurrent := workers.ForTranscode(8)
	logging.Info("  Transform concurrency ceiling: %d (GOMAXPROCS=%d)", maxConcurrent, runtime.GOMAXPROCS(0))

	return &Config{
		Port:             port,
		MaxFileSizeBytes: maxFileSize,
		TempRoot:         tempRoot,
		TransformTimeout: timeout,
		MaxConcurrent:    maxConcurrent,
		MetricsEnabled:   metricsEnabled,
		LogHealthChecks:  logHealthChecks,
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("  Invalid boolean for %s: %q, using %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logging.Warn("  Invalid integer for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func printBanner() {
	logging.Info("============================================================")
	logging.Info("  media-forge %s (commit %s)", Version, Commit)
	logging.Info("============================================================")
}

func logSystemInfo() {
	logging.Info("  Go:        %s", GoVersion)
	logging.Info("  OS/Arch:   %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs:      %d (GOMAXPROCS=%d)", runtime.NumCPU(), runtime.GOMAXPROCS(0))
	logging.Info("")
}

// CheckFFmpeg verifies the ffmpeg binary is reachable and responsive.
func CheckFFmpeg() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg", "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}
	return nil
}

// LogTransformInit logs the transform invoker setup and probes ffmpeg.
func LogTransformInit(timeout time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSFORM INVOKER")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Invocation timeout: %v", timeout)

	if err := CheckFFmpeg(); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Audio and video operations will fail until ffmpeg is installed")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{Method: method, Path: pathTemplate})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	logging.Info("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Info("    %-6s %s", route.Method, route.Path)
	}
}

// LogServerStarted logs the final startup message
func LogServerStarted(port string, elapsed time.Duration) {
	logging.Info("")
	logging.Info("  [OK] Listening on :%s (started in %v)", port, elapsed)
}

// LogShutdownInitiated logs the start of graceful shutdown
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("Received %s, shutting down gracefully...", signal)
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Info("  %s...", step)
}

// LogShutdownStepComplete logs completion of a shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}
