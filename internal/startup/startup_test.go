package startup

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MAX_FILE_SIZE_BYTES", "")
	t.Setenv("TEMP_ROOT", "")
	t.Setenv("TRANSFORM_TIMEOUT", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	if config.Port != "8080" {
		t.Errorf("Port = %s, want 8080", config.Port)
	}
	if config.MaxFileSizeBytes != 52428800 {
		t.Errorf("MaxFileSizeBytes = %d, want 52428800", config.MaxFileSizeBytes)
	}
	if config.TransformTimeout != 2*time.Minute {
		t.Errorf("TransformTimeout = %v, want 2m", config.TransformTimeout)
	}
	if config.MaxConcurrent < 1 {
		t.Errorf("MaxConcurrent = %d, want >= 1", config.MaxConcurrent)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_FILE_SIZE_BYTES", "1024")
	t.Setenv("TRANSFORM_TIMEOUT", "30s")

	config, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	if config.Port != "9000" {
		t.Errorf("Port = %s, want 9000", config.Port)
	}
	if config.MaxFileSizeBytes != 1024 {
		t.Errorf("MaxFileSizeBytes = %d, want 1024", config.MaxFileSizeBytes)
	}
	if config.TransformTimeout != 30*time.Second {
		t.Errorf("TransformTimeout = %v, want 30s", config.TransformTimeout)
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE_BYTES", "-5")
	t.Setenv("TRANSFORM_TIMEOUT", "not-a-duration")

	config, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	if config.MaxFileSizeBytes != 52428800 {
		t.Errorf("invalid size should fall back to default, got %d", config.MaxFileSizeBytes)
	}
	if config.TransformTimeout != 2*time.Minute {
		t.Errorf("invalid timeout should fall back to default, got %v", config.TransformTimeout)
	}
}

func TestGetRoutes(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	r.HandleFunc("/audio/compress", func(http.ResponseWriter, *http.Request) {}).Methods("POST")
	r.HandleFunc("/", func(http.ResponseWriter, *http.Request) {}).Methods("GET")

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(routes) != 2 {
		t.Fatalf("got %d routes, want 2", len(routes))
	}

	found := false
	for _, route := range routes {
		if route.Method == "POST" && route.Path == "/audio/compress" {
			found = true
		}
	}
	if !found {
		t.Error("POST /audio/compress not reported by GetRoutes")
	}
}
