package score

import (
	"context"
)

// RenderPDF turns a MusicXML score into a PDF with MuseScore. The stage
// is best-effort: on any failure it reports a warning and returns the
// empty string, never an error. There is no fallback PDF engine.
func RenderPDF(ctx context.Context, renderer *MuseScore, scorePath, pdfPath string, warn func(format string, args ...any)) string {
	if err := renderer.Convert(ctx, scorePath, pdfPath); err != nil {
		warn("PDF render failed (%v); skipping document generation", err)
		return ""
	}
	return pdfPath
}
