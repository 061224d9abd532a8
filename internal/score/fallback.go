package score

import (
	"context"
	"fmt"

	"github.com/ac1965/music2score/internal/midi"
	"github.com/ac1965/music2score/internal/musicxml"
)

// LibraryConverter is the MIDI→MusicXML fallback used when the MuseScore
// CLI is absent or crashes. It parses the SMF directly and writes a plain
// one-part score. Lower fidelity than MuseScore's importer, but it has no
// external dependency, so it is always available. Unlike the primary
// strategy, its errors abort the run; there is no third tier.
type LibraryConverter struct{}

func (LibraryConverter) Name() string { return "builtin musicxml writer" }

func (LibraryConverter) Convert(_ context.Context, inputPath, outputPath string) error {
	file, err := midi.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("parse midi: %w", err)
	}
	doc := musicxml.FromNotes(file.Notes, file.BPM)
	if err := musicxml.WriteFile(outputPath, doc); err != nil {
		return fmt.Errorf("write musicxml: %w", err)
	}
	return nil
}
