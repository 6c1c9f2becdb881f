package handlers

import (
	"net/http"

	"media-forge/internal/mediatypes"
	"media-forge/internal/streaming"
	"media-forge/internal/transform"
)

// MergePDFs handles POST /pdf/merge: concatenate the PDF uploads, in
// submission order, into one document. A single input is allowed and comes
// back re-written, which also normalizes it.
func (h *Handlers) MergePDFs(w http.ResponseWriter, r *http.Request) {
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

	headers, err := formFiles(r, "pdfs", 1)
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

	output := ws.Path("merged.pdf")
	if err := transform.MergePDFs(r.Context(), inputs, output); err != nil {
		h.writeError(w, r, err)
		return
	}

	streaming.Send(r.Context(), w, streaming.Result{
		Path:     output,
		MIME:     mediatypes.MIMEPDF,
		Filename: "merged.pdf",
	}, ws.Destroy, h.streamConfig)
}
