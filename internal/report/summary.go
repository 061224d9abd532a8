// Package report renders the terminal summary printed after a run: one
// row per artifact, with explicit notes for anything skipped or not
// generated, so a degraded completion is visible at a glance.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
)

// Summary describes the artifacts a run produced
type Summary struct {
	Input      string
	Normalized string // empty in resume mode
	MIDI       string
	MusicXML   string
	ScoreVia   string // converter that produced the MusicXML
	PDF        string // empty when not generated
	PDFSkipped bool   // --no-pdf
}

// Render writes the summary table
func (s Summary) Render(w io.Writer) {
	fmt.Fprintln(w, "=== Audio to score conversion completed ===")

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Artifact", "Path"})
	t.AppendRow(table.Row{"Input audio", s.Input})
	if s.Normalized != "" {
		t.AppendRow(table.Row{"Normalized", s.Normalized})
	} else {
		t.AppendRow(table.Row{"Normalized", "(reused, resume mode)"})
	}
	t.AppendRow(table.Row{"MIDI", s.MIDI})
	if s.ScoreVia != "" {
		t.AppendRow(table.Row{"MusicXML", fmt.Sprintf("%s (via %s)", s.MusicXML, s.ScoreVia)})
	} else {
		t.AppendRow(table.Row{"MusicXML", s.MusicXML})
	}
	switch {
	case s.PDFSkipped:
		t.AppendRow(table.Row{"PDF", "(skipped)"})
	case s.PDF == "":
		t.AppendRow(table.Row{"PDF", "(not generated)"})
	default:
		t.AppendRow(table.Row{"PDF", s.PDF})
	}

	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleLight)
	}
	t.Render()
}
