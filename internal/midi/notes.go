// Package midi reads Standard MIDI Files into flat note events for the
// fallback score converter.
package midi

import (
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Note represents a single note event
type Note struct {
	Pitch    int     // MIDI note number
	Start    float64 // onset in seconds
	Duration float64 // length in seconds
	Velocity int
}

// File is the parsed content of an SMF
type File struct {
	Notes []Note
	BPM   float64 // first tempo found, 120 when none
}

const defaultBPM = 120

// ReadFile parses an SMF from disk.
func ReadFile(path string) (*File, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read smf: %w", err)
	}
	return fromSMF(s)
}

type tempoChange struct {
	tick uint32
	bpm  float64
	sec  float64 // seconds elapsed at tick, filled by buildTempoMap
}

// fromSMF flattens all tracks into a single sorted note list with
// second-based timing.
func fromSMF(s *smf.SMF) (*File, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported SMF time format: %v", s.TimeFormat)
	}
	tpq := float64(ticks.Resolution())
	if tpq <= 0 {
		tpq = 960
	}

	tempos := buildTempoMap(s, tpq)

	file := &File{BPM: tempos[0].bpm}

	type pending struct {
		tick     uint32
		velocity uint8
	}

	for _, track := range s.Tracks {
		open := map[[2]uint8]pending{} // (channel, key) → note-on
		var abs uint32
		for _, ev := range track {
			abs += ev.Delta
			var ch, key, vel uint8
			switch {
			case ev.Message.GetNoteStart(&ch, &key, &vel):
				open[[2]uint8{ch, key}] = pending{tick: abs, velocity: vel}
			case ev.Message.GetNoteEnd(&ch, &key):
				on, ok := open[[2]uint8{ch, key}]
				if !ok {
					continue
				}
				delete(open, [2]uint8{ch, key})
				start := secondsAt(tempos, tpq, on.tick)
				end := secondsAt(tempos, tpq, abs)
				file.Notes = append(file.Notes, Note{
					Pitch:    int(key),
					Start:    start,
					Duration: end - start,
					Velocity: int(on.velocity),
				})
			}
		}
	}

	sort.Slice(file.Notes, func(i, j int) bool {
		if file.Notes[i].Start != file.Notes[j].Start {
			return file.Notes[i].Start < file.Notes[j].Start
		}
		return file.Notes[i].Pitch < file.Notes[j].Pitch
	})

	return file, nil
}

// buildTempoMap collects tempo meta events across all tracks and
// precomputes the wall-clock second of each change. There is always an
// entry at tick 0.
func buildTempoMap(s *smf.SMF, tpq float64) []tempoChange {
	var changes []tempoChange
	for _, track := range s.Tracks {
		var abs uint32
		for _, ev := range track {
			abs += ev.Delta
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
				changes = append(changes, tempoChange{tick: abs, bpm: bpm})
			}
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].tick < changes[j].tick })
	if len(changes) == 0 || changes[0].tick != 0 {
		changes = append([]tempoChange{{tick: 0, bpm: defaultBPM}}, changes...)
	}

	for i := 1; i < len(changes); i++ {
		prev := changes[i-1]
		dt := float64(changes[i].tick-prev.tick) / tpq * 60 / prev.bpm
		changes[i].sec = prev.sec + dt
	}
	return changes
}

// secondsAt converts an absolute tick to seconds using the tempo map.
func secondsAt(tempos []tempoChange, tpq float64, tick uint32) float64 {
	cur := tempos[0]
	for _, tc := range tempos[1:] {
		if tc.tick > tick {
			break
		}
		cur = tc
	}
	return cur.sec + float64(tick-cur.tick)/tpq*60/cur.bpm
}
