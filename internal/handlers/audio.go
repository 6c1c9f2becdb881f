package handlers

import (
	"mime/multipart"
	"net/http"

	"media-forge/internal/mediatypes"
	"media-forge/internal/staging"
	"media-forge/internal/streaming"
	"media-forge/internal/workspace"
)

// CompressAudio handles POST /audio/compress: re-encode one audio upload to
// MP3 at a quality-derived bitrate.
func (h *Handlers) CompressAudio(w http.ResponseWriter, r *http.Request) {
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

	file, header, err := formFile(r, "audio")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer file.Close()

	quality := clampInt(r.FormValue("quality"), 10, 100, 50)

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

	output := ws.Path("output.mp3")
	if err := h.ffmpeg.CompressAudio(r.Context(), asset.Path, output, quality); err != nil {
		h.writeError(w, r, err)
		return
	}

	streaming.Send(r.Context(), w, streaming.Result{
		Path:     output,
		MIME:     mediatypes.MIMEAudioMPEG,
		Filename: attachmentName(asset.DisplayName, "-compressed.mp3"),
	}, ws.Destroy, h.streamConfig)
}

// MergeAudio handles POST /audio/merge: concatenate two or more audio
// uploads, in submission order, into one MP3.
func (h *Handlers) MergeAudio(w http.ResponseWriter, r *http.Request) {
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

	// Validate before allocating a workspace so a bad request leaves no
	// trace on disk.
	headers, err := formFiles(r, "audios", 2)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ws, err := h.workspaces.Create()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer ws.Destroy()

	inputs, err := stageAll(h.stager, ws, headers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	output := ws.Path("merged.mp3")
	if err := h.ffmpeg.MergeAudio(r.Context(), inputs, ws.Path("concat.txt"), output); err != nil {
		h.writeError(w, r, err)
		return
	}

	streaming.Send(r.Context(), w, streaming.Result{
		Path:     output,
		MIME:     mediatypes.MIMEAudioMPEG,
		Filename: "merged.mp3",
	}, ws.Destroy, h.streamConfig)
}

// stageAll stages each part in submission order and returns the staged paths.
func stageAll(stager *staging.Stager, ws *workspace.Workspace, headers []*multipart.FileHeader) ([]string, error) {
	inputs := make([]string, 0, len(headers))
	for i, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		asset, err := stager.Stage(ws, file, header.Size, header.Filename, i)
		file.Close()
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, asset.Path)
	}
	return inputs, nil
}
