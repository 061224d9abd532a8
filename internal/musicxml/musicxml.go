// Package musicxml writes minimal score-partwise MusicXML documents.
// It exists as the always-available fallback when the MuseScore CLI
// cannot do the MIDI→MusicXML conversion; the output is a plain
// single-part treble-clef rendering, deliberately simpler than what
// MuseScore's importer produces.
package musicxml

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/ac1965/music2score/internal/midi"
)

// divisions per quarter note; 4 gives sixteenth-note resolution, which
// matches the granularity Basic Pitch transcriptions are useful at.
const divisions = 4

const (
	beatsPerMeasure     = 4
	divisionsPerMeasure = beatsPerMeasure * divisions
)

// Score is a score-partwise MusicXML document
type Score struct {
	XMLName  xml.Name `xml:"score-partwise"`
	Version  string   `xml:"version,attr"`
	PartList PartList `xml:"part-list"`
	Parts    []Part   `xml:"part"`
}

type PartList struct {
	ScoreParts []ScorePart `xml:"score-part"`
}

type ScorePart struct {
	ID       string `xml:"id,attr"`
	PartName string `xml:"part-name"`
}

type Part struct {
	ID       string    `xml:"id,attr"`
	Measures []Measure `xml:"measure"`
}

type Measure struct {
	Number     int         `xml:"number,attr"`
	Attributes *Attributes `xml:"attributes,omitempty"`
	Notes      []Note      `xml:"note"`
}

type Attributes struct {
	Divisions int  `xml:"divisions"`
	Key       Key  `xml:"key"`
	Time      Time `xml:"time"`
	Clef      Clef `xml:"clef"`
}

type Key struct {
	Fifths int `xml:"fifths"`
}

type Time struct {
	Beats    int `xml:"beats"`
	BeatType int `xml:"beat-type"`
}

type Clef struct {
	Sign string `xml:"sign"`
	Line int    `xml:"line"`
}

type Note struct {
	Chord    *struct{} `xml:"chord,omitempty"`
	Rest     *struct{} `xml:"rest,omitempty"`
	Pitch    *Pitch    `xml:"pitch,omitempty"`
	Duration int       `xml:"duration"`
	Voice    int       `xml:"voice"`
	Type     string    `xml:"type,omitempty"`
}

type Pitch struct {
	Step   string `xml:"step"`
	Alter  int    `xml:"alter,omitempty"`
	Octave int    `xml:"octave"`
}

var steps = [12]struct {
	step  string
	alter int
}{
	{"C", 0}, {"C", 1}, {"D", 0}, {"D", 1}, {"E", 0}, {"F", 0},
	{"F", 1}, {"G", 0}, {"G", 1}, {"A", 0}, {"A", 1}, {"B", 0},
}

// PitchFor converts a MIDI note number to a MusicXML pitch, spelled
// with sharps.
func PitchFor(midiNote int) Pitch {
	s := steps[((midiNote%12)+12)%12]
	return Pitch{Step: s.step, Alter: s.alter, Octave: midiNote/12 - 1}
}

// quantNote is a note snapped to the divisions grid.
type quantNote struct {
	onset    int // in divisions from the start of the piece
	duration int
	pitch    int
}

// FromNotes builds a single-part score from second-based note events.
// Notes are quantized to sixteenths at the given tempo; simultaneous
// onsets become chords and overlapping tails are clipped. A fuller
// engraving (multiple voices, ties across barlines, key detection) is
// MuseScore's job, not this fallback's.
func FromNotes(notes []midi.Note, bpm float64) *Score {
	if bpm <= 0 {
		bpm = 120
	}

	quantized := quantize(notes, bpm)

	var measures []Measure
	cursor := 0 // grid position filled so far
	cur := newMeasure(1)

	// flush pads the open measure to the barline with a rest and appends
	// it. An empty trailing measure is dropped unless it is the only one.
	flush := func() {
		if len(cur.Notes) == 0 && len(measures) > 0 {
			return
		}
		if rem := cursor % divisionsPerMeasure; rem != 0 || len(cur.Notes) == 0 {
			cur.Notes = append(cur.Notes, restNote(divisionsPerMeasure-rem))
		}
		measures = append(measures, cur)
	}

	for i := 0; i < len(quantized); {
		n := quantized[i]

		// Keep onsets monotonic: a note starting inside the previous
		// one is pushed to the current cursor.
		onset := n.onset
		if onset < cursor {
			onset = cursor
		}

		// Fill the gap up to the onset with rests, one per measure.
		for cursor < onset {
			measureEnd := (cursor/divisionsPerMeasure + 1) * divisionsPerMeasure
			gap := onset - cursor
			if measureEnd-cursor < gap {
				gap = measureEnd - cursor
			}
			cur.Notes = append(cur.Notes, restNote(gap))
			cursor += gap
			if cursor == measureEnd {
				measures = append(measures, cur)
				cur = newMeasure(len(measures) + 2)
			}
		}

		// Clip the duration at the barline instead of tying over it.
		measureEnd := (cursor/divisionsPerMeasure + 1) * divisionsPerMeasure
		dur := n.duration
		if cursor+dur > measureEnd {
			dur = measureEnd - cursor
		}
		if dur < 1 {
			dur = 1
		}

		// All notes sharing this onset become one chord.
		first := true
		for ; i < len(quantized) && quantized[i].onset == n.onset; i++ {
			p := PitchFor(quantized[i].pitch)
			note := Note{
				Pitch:    &p,
				Duration: dur,
				Voice:    1,
				Type:     noteType(dur),
			}
			if !first {
				note.Chord = &struct{}{}
			}
			first = false
			cur.Notes = append(cur.Notes, note)
		}
		cursor += dur
		if cursor == measureEnd {
			measures = append(measures, cur)
			cur = newMeasure(len(measures) + 2)
		}
	}
	flush()

	for i := range measures {
		measures[i].Number = i + 1
		if i > 0 {
			measures[i].Attributes = nil
		}
	}

	return &Score{
		Version:  "3.1",
		PartList: PartList{ScoreParts: []ScorePart{{ID: "P1", PartName: "Transcription"}}},
		Parts:    []Part{{ID: "P1", Measures: measures}},
	}
}

// quantize snaps note events to the divisions grid, merging exact
// duplicates.
func quantize(notes []midi.Note, bpm float64) []quantNote {
	perSecond := bpm / 60 * divisions
	out := make([]quantNote, 0, len(notes))
	seen := map[[2]int]bool{}
	for _, n := range notes {
		onset := int(math.Round(n.Start * perSecond))
		dur := int(math.Round(n.Duration * perSecond))
		if dur < 1 {
			dur = 1
		}
		if seen[[2]int{onset, n.Pitch}] {
			continue
		}
		seen[[2]int{onset, n.Pitch}] = true
		out = append(out, quantNote{onset: onset, duration: dur, pitch: n.Pitch})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].onset != out[j].onset {
			return out[i].onset < out[j].onset
		}
		return out[i].pitch < out[j].pitch
	})
	return out
}

func newMeasure(number int) Measure {
	m := Measure{Number: number}
	if number == 1 {
		m.Attributes = &Attributes{
			Divisions: divisions,
			Key:       Key{Fifths: 0},
			Time:      Time{Beats: beatsPerMeasure, BeatType: 4},
			Clef:      Clef{Sign: "G", Line: 2},
		}
	}
	return m
}

func restNote(duration int) Note {
	return Note{Rest: &struct{}{}, Duration: duration, Voice: 1, Type: noteType(duration)}
}

// noteType maps a duration in divisions to the closest notated value.
func noteType(duration int) string {
	switch {
	case duration >= 16:
		return "whole"
	case duration >= 8:
		return "half"
	case duration >= 4:
		return "quarter"
	case duration >= 2:
		return "eighth"
	default:
		return "16th"
	}
}

const header = xml.Header + `<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.1 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">
`

// WriteFile serializes the score to path.
func WriteFile(path string, score *Score) error {
	data, err := xml.MarshalIndent(score, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal musicxml: %w", err)
	}
	return os.WriteFile(path, append([]byte(header), append(data, '\n')...), 0644)
}
