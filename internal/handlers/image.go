package handlers

import (
	"net/http"

	"media-forge/internal/apperr"
	"media-forge/internal/mediatypes"
	"media-forge/internal/streaming"
	"media-forge/internal/transform"
)

// ConvertImage handles POST /image/convert: re-encode one image upload in
// the requested format.
func (h *Handlers) ConvertImage(w http.ResponseWriter, r *http.Request) {
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

	format := r.FormValue("format")
	if format == "" {
		h.writeError(w, r, apperr.New(apperr.KindValidation, "missing required field %q", "format"))
		return
	}

	file, header, err := formFile(r, "image")
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

	ext := imageExtension(format)
	output := ws.Path("converted" + ext)
	if err := transform.ConvertImage(asset.Path, output, format); err != nil {
		h.writeError(w, r, err)
		return
	}

	streaming.Send(r.Context(), w, streaming.Result{
		Path:     output,
		MIME:     mediatypes.ImageMIME(format),
		Filename: attachmentName(asset.DisplayName, ext),
	}, ws.Destroy, h.streamConfig)
}

// ResizeImage handles POST /image/resize: scale one image upload to exact
// pixel dimensions.
func (h *Handlers) ResizeImage(w http.ResponseWriter, r *http.Request) {
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

	width, err := requiredPositiveInt(r.FormValue("width"), "width")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	height, err := requiredPositiveInt(r.FormValue("height"), "height")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	format := r.FormValue("format")

	file, header, err := formFile(r, "image")
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

	ext := imageExtension(format)
	output := ws.Path("resized" + ext)
	if err := transform.ResizeImage(asset.Path, output, width, height, format); err != nil {
		h.writeError(w, r, err)
		return
	}

	streaming.Send(r.Context(), w, streaming.Result{
		Path:     output,
		MIME:     mediatypes.ImageMIME(format),
		Filename: attachmentName(asset.DisplayName, ext),
	}, ws.Destroy, h.streamConfig)
}

// WatermarkImage handles POST /image/watermark: draw text onto one image
// upload and return the result as PNG.
func (h *Handlers) WatermarkImage(w http.ResponseWriter, r *http.Request) {
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

	text := r.FormValue("text")
	if text == "" {
		h.writeError(w, r, apperr.New(apperr.KindValidation, "missing required field %q", "text"))
		return
	}

	params := transform.WatermarkParams{
		Text:     text,
		FontSize: clampFloat(r.FormValue("fontSize"), 8, 144, 24),
		Position: transform.ParsePosition(r.FormValue("position")),
	}
	opacity := clampFloat(r.FormValue("opacity"), 0, 1, 0.5)
	params.Color = transform.ParseColor(r.FormValue("color"), opacity)

	file, header, err := formFile(r, "image")
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

	output := ws.Path("watermarked.png")
	if err := transform.WatermarkImage(asset.Path, output, params); err != nil {
		h.writeError(w, r, err)
		return
	}

	streaming.Send(r.Context(), w, streaming.Result{
		Path:     output,
		MIME:     mediatypes.ImageMIME("png"),
		Filename: attachmentName(asset.DisplayName, "-watermarked.png"),
	}, ws.Destroy, h.streamConfig)
}

// imageExtension maps an output format to the artifact file extension,
// aligned with the encode and MIME fallbacks.
func imageExtension(format string) string {
	switch format {
	case "jpg", "jpeg":
		return ".jpg"
	case "webp":
		return ".webp"
	case "bmp":
		return ".bmp"
	default:
		return ".png"
	}
}
