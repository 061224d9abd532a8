// Package artifact holds the file naming contract between pipeline
// stages. Every downstream artifact name is a pure function of the
// upstream artifact name; resume mode depends on these being stable, so
// none of the derivations below may use timestamps or random parts.
package artifact

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	normalizedSuffix = ".normalized.wav"
	transcribeSuffix = "_basic_pitch"

	ScoreExt    = ".musicxml"
	DocumentExt = ".pdf"
)

// Set resolves every artifact path a run can produce for one input file.
type Set struct {
	Input     string
	OutputDir string
}

// NewSet creates a path set for an input audio file and output directory.
// Both paths should already be absolute.
func NewSet(input, outputDir string) Set {
	return Set{Input: input, OutputDir: outputDir}
}

// Normalized is the preprocessed WAV, written as a sibling of the input:
// build/foo.wav → build/foo.normalized.wav
func (s Set) Normalized() string {
	base := strings.TrimSuffix(s.Input, filepath.Ext(s.Input))
	return base + normalizedSuffix
}

// normalizedStem is the normalized file's name without extension,
// e.g. "foo.normalized". Basic Pitch derives its output name from it.
func (s Set) normalizedStem() string {
	name := filepath.Base(s.Normalized())
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Transcription is the MIDI file Basic Pitch is expected to emit:
// <output-dir>/foo.normalized_basic_pitch.mid
func (s Set) Transcription() string {
	return filepath.Join(s.OutputDir, s.normalizedStem()+transcribeSuffix+".mid")
}

// TranscriptionGlob matches any MIDI the transcriber may have produced
// for this input, used when the exact expected name is absent.
func (s Set) TranscriptionGlob() string {
	return filepath.Join(s.OutputDir, s.normalizedStem()+"*.mid")
}

// StaleTranscriptions lists every file Basic Pitch might refuse to
// overwrite: MIDI plus the optional sonification/tensor/note outputs.
func (s Set) StaleTranscriptions() []string {
	stem := s.normalizedStem() + transcribeSuffix
	exts := []string{".mid", ".npz", ".csv", ".wav"}
	paths := make([]string, 0, len(exts))
	for _, ext := range exts {
		paths = append(paths, filepath.Join(s.OutputDir, stem+ext))
	}
	return paths
}

// ScoreFor derives the MusicXML path from the MIDI actually produced,
// as a sibling: build/foo.normalized_basic_pitch.mid → ….musicxml
func ScoreFor(midiPath string) string {
	return strings.TrimSuffix(midiPath, filepath.Ext(midiPath)) + ScoreExt
}

// DocumentFor derives the PDF path from the MIDI actually produced.
func DocumentFor(midiPath string) string {
	return strings.TrimSuffix(midiPath, filepath.Ext(midiPath)) + DocumentExt
}

// Exists reports whether an artifact is present. Existence is the only
// state the pipeline consults; there are no checksums.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
