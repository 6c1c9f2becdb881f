// Package mediatypes holds the MIME and extension tables shared by the
// stager and the request handlers.
package mediatypes

import "strings"

// ImageMIME maps a requested image output format to its MIME type.
// Unknown formats fall back to PNG, which is also the watermark output.
func ImageMIME(format string) string {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	default:
		return "image/png"
	}
}

// VideoMIME maps a video output format to its MIME type. Unrecognized
// formats report the AVI MIME, matching the encoder's motion-JPEG/AVI
// fallback so the label always agrees with the produced container.
func VideoMIME(format string) string {
	switch strings.ToLower(format) {
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	default:
		return "video/x-msvideo"
	}
}

// MIMEAudioMPEG is the content type of all audio artifacts; audio output
// is always encoded to MP3.
const MIMEAudioMPEG = "audio/mpeg"

// MIMEPDF is the content type of merged PDF artifacts.
const MIMEPDF = "application/pdf"

// SanitizeExtension reduces a client-supplied filename extension to a safe
// lowercase alphanumeric suffix with a leading dot. Every other character
// is dropped. An empty or oversized result yields ".bin".
func SanitizeExtension(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")

	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	clean := b.String()
	if clean == "" || len(clean) > 5 {
		return ".bin"
	}
	return "." + clean
}

// DisplayName reduces a client-supplied filename to something safe to echo
// back in a Content-Disposition header. Client names are display metadata
// only; they are never used to build filesystem paths.
func DisplayName(name string) string {
	// Strip any directory components, whichever separator the client used.
	if idx := strings.LastIndexAny(name, `/\`); idx != -1 {
		name = name[idx+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_' || r == ' ':
			b.WriteRune(r)
		}
	}

	clean := strings.TrimLeft(b.String(), ". ")
	if clean == "" {
		return "file"
	}
	return clean
}
