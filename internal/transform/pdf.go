package transform

import (
	"context"

	"media-forge/internal/apperr"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// MergePDFs concatenates the inputs, in order, into a single PDF at output.
//
// The merge runs in process via pdfcpu, so cancellation is checked up front;
// the operation itself is bounded by page-copy work proportional to the
// already size-capped inputs.
func MergePDFs(ctx context.Context, inputs []string, output string) error {
	return instrument(OpPDFMerge, func() error {
		if err := ctx.Err(); err != nil {
			return apperr.Wrap(apperr.KindTransform, err, "transformation canceled")
		}

		if err := api.MergeCreateFile(inputs, output, false, nil); err != nil {
			return apperr.Wrap(apperr.KindTransform, err, "merging PDF documents")
		}
		return nil
	})
}
