package mediatypes

import "testing"

func TestImageMIME(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{"jpeg", "image/jpeg"},
		{"jpg", "image/jpeg"},
		{"webp", "image/webp"},
		{"bmp", "image/bmp"},
		{"png", "image/png"},
		{"", "image/png"},
		{"tiff", "image/png"}, // unknown formats fall back to png
		{"JPEG", "image/jpeg"},
	}

	for _, tt := range tests {
		if got := ImageMIME(tt.format); got != tt.want {
			t.Errorf("ImageMIME(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestVideoMIME(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{"mp4", "video/mp4"},
		{"MP4", "video/mp4"},
		{"webm", "video/webm"},
		{"avi", "video/x-msvideo"},
		// Unrecognized containers encode as motion-JPEG in AVI, so the
		// label must be the AVI MIME.
		{"mkv", "video/x-msvideo"},
		{"mov", "video/x-msvideo"},
		{"flv", "video/x-msvideo"},
	}

	for _, tt := range tests {
		if got := VideoMIME(tt.format); got != tt.want {
			t.Errorf("VideoMIME(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestSanitizeExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".mp3", ".mp3"},
		{"MP3", ".mp3"},
		{".jpeg", ".jpeg"},
		{"../../etc", ".etc"},
		{".a/b", ".ab"},
		{"", ".bin"},
		{".averylongextension", ".bin"},
		{".!!!", ".bin"},
	}

	for _, tt := range tests {
		if got := SanitizeExtension(tt.ext); got != tt.want {
			t.Errorf("SanitizeExtension(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"song.mp3", "song.mp3"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\x\track.mp3`, "track.mp3"},
		{"weird\nname\x00.pdf", "weirdname.pdf"},
		{"...", "file"},
		{"", "file"},
	}

	for _, tt := range tests {
		if got := DisplayName(tt.name); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
