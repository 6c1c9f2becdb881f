package transform

import (
	"context"
	"path/filepath"
	"testing"

	"media-forge/internal/apperr"
)

func TestMergePDFsMissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := MergePDFs(context.Background(),
		[]string{filepath.Join(dir, "missing.pdf")},
		filepath.Join(dir, "out.pdf"))

	if apperr.KindOf(err) != apperr.KindTransform {
		t.Errorf("err = %v, want transform kind", err)
	}
}

func TestMergePDFsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	err := MergePDFs(ctx, []string{filepath.Join(dir, "a.pdf")}, filepath.Join(dir, "out.pdf"))
	if apperr.KindOf(err) != apperr.KindTransform {
		t.Errorf("err = %v, want transform kind", err)
	}
}
