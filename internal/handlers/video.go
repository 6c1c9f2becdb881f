package handlers

import (
	"net/http"
	"strings"

	"media-forge/internal/mediatypes"
	"media-forge/internal/streaming"
)

// TranscodeVideo handles POST /video: convert one video upload to the
// requested container, optionally scaling to an exact resolution.
func (h *Handlers) TranscodeVideo(w http.ResponseWriter, r *http.Request) {
	release, err := h.acquire()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer release()

	if err := h.parseUpload(w, r); err != nil {
		h.writeError(w, r, err)
		return
	}

	width, height, err := parseResolution(r.FormValue("resolution"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	format := strings.ToLower(r.FormValue("format"))
	if format == "" {
		format = "mp4"
	}

	file, header, err := formFile(r, "video")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer file.Close()

	ws, err := h.workspaces.Create()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer ws.Destroy()

	asset, err := h.stager.Stage(ws, file, header.Size, header.Filename, 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ext := videoExtension(format)
	output := ws.Path("transcoded" + ext)
	if err := h.ffmpeg.Transcode(r.Context(), asset.Path, output, format, width, height); err != nil {
		h.writeError(w, r, err)
		return
	}

	streaming.Send(r.Context(), w, streaming.Result{
		Path:     output,
		MIME:     mediatypes.VideoMIME(format),
		Filename: attachmentName(asset.DisplayName, ext),
	}, ws.Destroy, h.streamConfig)
}

// videoExtension maps an output container to the artifact file extension,
// aligned with the codec selection's fallback to AVI.
func videoExtension(format string) string {
	switch format {
	case "webm":
		return ".webm"
	case "mp4":
		return ".mp4"
	default:
		return ".avi"
	}
}
