package pipeline

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	apperrors "github.com/ac1965/music2score/internal/errors"
)

// fakeBackend stands in for the Python transcriber: it writes a real
// SMF into outDir the way Basic Pitch would.
type fakeBackend struct {
	err   error
	calls int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Transcribe(ctx context.Context, wavPath, outDir string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	stem := strings.TrimSuffix(filepath.Base(wavPath), ".wav")
	path := filepath.Join(outDir, stem+"_basic_pitch.mid")
	return path, writeTestMIDI(path)
}

func writeTestMIDI(path string) error {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, gomidi.NoteOn(0, 60, 100))
	tr.Add(960, gomidi.NoteOff(0, 60))
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		return err
	}
	return s.WriteFile(path)
}

func writeTestWAV(t *testing.T, path string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	data := make([]int, 2000)
	for i := range data {
		data[i] = int(8000 * math.Sin(float64(i)/20))
	}
	enc := wav.NewEncoder(f, 22050, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 22050},
		SourceBitDepth: 16,
		Data:           data,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeStubTool(t *testing.T, dir, script string) string {
	t.Helper()
	path := filepath.Join(dir, "mscore-stub")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOrchestrator() *Orchestrator {
	return NewOrchestrator("", io.Discard, false)
}

func TestExecuteMissingInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InputPath = filepath.Join(t.TempDir(), "nope.wav")
	cfg.OutputDir = t.TempDir()

	_, err := testOrchestrator().Execute(context.Background(), cfg)
	if !errors.Is(err, apperrors.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestResumeMissingTranscription(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "song.wav")
	writeTestWAV(t, input)

	cfg := DefaultConfig()
	cfg.InputPath = input
	cfg.OutputDir = filepath.Join(dir, "build")
	cfg.ScoreOnly = true

	_, err := testOrchestrator().Execute(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error when no transcription exists")
	}
	if !strings.Contains(err.Error(), "song.normalized_basic_pitch.mid") {
		t.Errorf("error should name the expected transcription path, got: %v", err)
	}
	if !strings.Contains(err.Error(), "music2score convert") {
		t.Errorf("error should show the full-run remediation, got: %v", err)
	}
}

func TestResumeReusesTranscription(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "build")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatal(err)
	}
	input := filepath.Join(dir, "song.wav")
	writeTestWAV(t, input)
	midiPath := filepath.Join(outDir, "song.normalized_basic_pitch.mid")
	if err := writeTestMIDI(midiPath); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.InputPath = input
	cfg.OutputDir = outDir
	cfg.ScoreOnly = true
	cfg.NoPDF = true
	cfg.MuseScoreCmd = writeStubTool(t, dir, `cp "$3" "$2"`)

	result, err := testOrchestrator().Execute(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.MIDI != midiPath {
		t.Errorf("MIDI = %q, want the reused %q", result.MIDI, midiPath)
	}
	if result.Normalized != "" {
		t.Errorf("resume run should not normalize, got %q", result.Normalized)
	}
	want := filepath.Join(outDir, "song.normalized_basic_pitch.musicxml")
	if result.MusicXML != want {
		t.Errorf("MusicXML = %q, want %q", result.MusicXML, want)
	}
	if !result.PDFSkipped || result.PDF != "" {
		t.Errorf("PDF should be skipped, got skipped=%v path=%q", result.PDFSkipped, result.PDF)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("MusicXML not written: %v", err)
	}
}

func TestFullRunFallsBackToLibraryConverter(t *testing.T) {
	// Missing MuseScore: score conversion falls back to the built-in
	// writer and PDF rendering degrades to nothing.
	dir := t.TempDir()
	input := filepath.Join(dir, "song.wav")
	writeTestWAV(t, input)

	cfg := DefaultConfig()
	cfg.InputPath = input
	cfg.OutputDir = filepath.Join(dir, "build")
	cfg.MuseScoreCmd = filepath.Join(dir, "no-such-mscore")

	backend := &fakeBackend{}
	o := testOrchestrator()
	o.Transcriber = backend

	result, err := o.Execute(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if backend.calls != 1 {
		t.Errorf("backend called %d times, want 1", backend.calls)
	}
	if result.Normalized == "" {
		t.Error("full run should record the normalized path")
	}
	if _, err := os.Stat(result.Normalized); err != nil {
		t.Errorf("normalized WAV not written: %v", err)
	}
	if result.ScoreVia != "builtin musicxml writer" {
		t.Errorf("ScoreVia = %q, want the builtin fallback", result.ScoreVia)
	}
	if _, err := os.Stat(result.MusicXML); err != nil {
		t.Errorf("MusicXML not written: %v", err)
	}
	if result.PDF != "" || result.PDFSkipped {
		t.Errorf("PDF should degrade to empty without being marked skipped, got path=%q skipped=%v",
			result.PDF, result.PDFSkipped)
	}
}

func TestRenderFailureDoesNotFailRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "song.wav")
	writeTestWAV(t, input)

	cfg := DefaultConfig()
	cfg.InputPath = input
	cfg.OutputDir = filepath.Join(dir, "build")
	// Converts fine, refuses PDFs
	cfg.MuseScoreCmd = writeStubTool(t, dir, `case "$2" in *.pdf) exit 1;; esac
cp "$3" "$2"`)

	o := testOrchestrator()
	o.Transcriber = &fakeBackend{}

	result, err := o.Execute(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.ScoreVia == "builtin musicxml writer" {
		t.Error("MuseScore should have handled the score conversion")
	}
	if result.PDF != "" {
		t.Errorf("PDF = %q, want empty after render failure", result.PDF)
	}
}

func TestFullRunProducesPDF(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "song.wav")
	writeTestWAV(t, input)

	cfg := DefaultConfig()
	cfg.InputPath = input
	cfg.OutputDir = filepath.Join(dir, "build")
	cfg.MuseScoreCmd = writeStubTool(t, dir, `cp "$3" "$2"`)

	o := testOrchestrator()
	o.Transcriber = &fakeBackend{}

	result, err := o.Execute(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := filepath.Join(cfg.OutputDir, "song.normalized_basic_pitch.pdf")
	if result.PDF != want {
		t.Errorf("PDF = %q, want %q", result.PDF, want)
	}
	if _, err := os.Stat(result.PDF); err != nil {
		t.Errorf("PDF not written: %v", err)
	}
}

func TestTranscriptionFailureAborts(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "song.wav")
	writeTestWAV(t, input)

	cfg := DefaultConfig()
	cfg.InputPath = input
	cfg.OutputDir = filepath.Join(dir, "build")

	o := testOrchestrator()
	o.Transcriber = &fakeBackend{err: apperrors.ErrTranscriberUnavailable}

	_, err := o.Execute(context.Background(), cfg)
	if !errors.Is(err, apperrors.ErrTranscriberUnavailable) {
		t.Errorf("expected transcription failure to abort, got %v", err)
	}
}

func TestResumeThenFullRunSamePaths(t *testing.T) {
	// A full run followed by --score-only must converge on the same
	// artifact paths.
	dir := t.TempDir()
	input := filepath.Join(dir, "song.wav")
	writeTestWAV(t, input)

	cfg := DefaultConfig()
	cfg.InputPath = input
	cfg.OutputDir = filepath.Join(dir, "build")
	cfg.NoPDF = true
	cfg.MuseScoreCmd = writeStubTool(t, dir, `cp "$3" "$2"`)

	o := testOrchestrator()
	o.Transcriber = &fakeBackend{}

	full, err := o.Execute(context.Background(), cfg)
	if err != nil {
		t.Fatalf("full run: %v", err)
	}

	cfg.ScoreOnly = true
	resumed, err := testOrchestrator().Execute(context.Background(), cfg)
	if err != nil {
		t.Fatalf("resume run: %v", err)
	}

	if resumed.MIDI != full.MIDI {
		t.Errorf("resume MIDI = %q, full run produced %q", resumed.MIDI, full.MIDI)
	}
	if resumed.MusicXML != full.MusicXML {
		t.Errorf("resume MusicXML = %q, full run produced %q", resumed.MusicXML, full.MusicXML)
	}
}
