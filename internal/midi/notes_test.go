package midi

import (
	"math"
	"path/filepath"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func buildTestSMF(t *testing.T) *smf.SMF {
	t.Helper()

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, gomidi.NoteOn(0, 60, 100))
	tr.Add(960, gomidi.NoteOff(0, 60)) // one quarter note at 120 BPM
	tr.Add(0, gomidi.NoteOn(0, 64, 90))
	tr.Add(480, gomidi.NoteOff(0, 64)) // one eighth
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFromSMF(t *testing.T) {
	file, err := fromSMF(buildTestSMF(t))
	if err != nil {
		t.Fatal(err)
	}

	if file.BPM != 120 {
		t.Errorf("BPM = %.1f, want 120", file.BPM)
	}
	if len(file.Notes) != 2 {
		t.Fatalf("got %d notes, want 2", len(file.Notes))
	}

	n := file.Notes[0]
	if n.Pitch != 60 || n.Velocity != 100 {
		t.Errorf("first note = %+v, want pitch 60 vel 100", n)
	}
	if math.Abs(n.Start) > 1e-9 || math.Abs(n.Duration-0.5) > 1e-9 {
		t.Errorf("first note timing = (%.3f, %.3f), want (0, 0.5)", n.Start, n.Duration)
	}

	n = file.Notes[1]
	if n.Pitch != 64 {
		t.Errorf("second note pitch = %d, want 64", n.Pitch)
	}
	if math.Abs(n.Start-0.5) > 1e-9 || math.Abs(n.Duration-0.25) > 1e-9 {
		t.Errorf("second note timing = (%.3f, %.3f), want (0.5, 0.25)", n.Start, n.Duration)
	}
}

func TestTempoChangeShiftsTiming(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(960, smf.MetaTempo(60)) // halve the tempo after one quarter
	tr.Add(0, gomidi.NoteOn(0, 62, 80))
	tr.Add(960, gomidi.NoteOff(0, 62)) // quarter at 60 BPM = 1 second
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatal(err)
	}

	file, err := fromSMF(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(file.Notes) != 1 {
		t.Fatalf("got %d notes, want 1", len(file.Notes))
	}
	n := file.Notes[0]
	if math.Abs(n.Start-0.5) > 1e-9 {
		t.Errorf("start = %.3f, want 0.5 (one quarter at 120 BPM)", n.Start)
	}
	if math.Abs(n.Duration-1.0) > 1e-9 {
		t.Errorf("duration = %.3f, want 1.0 (one quarter at 60 BPM)", n.Duration)
	}
}

func TestDefaultTempoWhenNoneSet(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)

	var tr smf.Track
	tr.Add(0, gomidi.NoteOn(0, 60, 64))
	tr.Add(480, gomidi.NoteOff(0, 60))
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatal(err)
	}

	file, err := fromSMF(s)
	if err != nil {
		t.Fatal(err)
	}
	if file.BPM != defaultBPM {
		t.Errorf("BPM = %.1f, want default %d", file.BPM, defaultBPM)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.mid")
	if err := buildTestSMF(t).WriteFile(path); err != nil {
		t.Fatal(err)
	}

	file, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(file.Notes) != 2 {
		t.Errorf("got %d notes after roundtrip, want 2", len(file.Notes))
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.mid")); err == nil {
		t.Error("expected error for missing file")
	}
}
