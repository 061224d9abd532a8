package audio

import (
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	apperrors "github.com/ac1965/music2score/internal/errors"
)

const (
	// DefaultSampleRate matches what the Basic Pitch model was trained
	// around; transcription quality drops with higher-rate input.
	DefaultSampleRate = 22050

	// peakTarget leaves a little headroom below full scale.
	peakTarget = 0.95

	outputBitDepth = 16
)

// Preprocessor converts arbitrary WAV input into the canonical
// intermediate form: mono, resampled, peak-normalized.
type Preprocessor struct {
	SampleRate int
}

// NewPreprocessor creates a preprocessor targeting the given sample rate
// (DefaultSampleRate when zero).
func NewPreprocessor(sampleRate int) *Preprocessor {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Preprocessor{SampleRate: sampleRate}
}

// Normalize loads src as mono at the target rate, scales the peak to
// peakTarget and writes the result to dst, overwriting unconditionally.
// Normalization is cheap and always re-runs so dst reflects the current
// source file.
func (p *Preprocessor) Normalize(src, dst string) error {
	samples, err := loadMono(src, p.SampleRate)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrEmptyAudio, src)
	}

	normalizePeak(samples)

	if err := writeWAV(dst, samples, p.SampleRate); err != nil {
		return fmt.Errorf("write normalized audio: %w", err)
	}
	return nil
}

// loadMono decodes a WAV file, mixes it down to a single channel and
// resamples it to targetRate. Samples are returned in [-1, 1].
func loadMono(path string, targetRate int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCorruptedFile, err)
	}
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("%w: no PCM data", apperrors.ErrCorruptedFile)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		mono[i] = sum / float64(channels) / scale
	}

	return resample(mono, buf.Format.SampleRate, targetRate), nil
}

// resample converts between sample rates with linear interpolation.
// That is accurate enough here: the transcription model applies its own
// filtering, and normalization does not depend on spectral fidelity.
func resample(in []float64, from, to int) []float64 {
	if from == to || from <= 0 || len(in) == 0 {
		return in
	}
	ratio := float64(to) / float64(from)
	n := int(math.Round(float64(len(in)) * ratio))
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	for i := range out {
		pos := float64(i) / ratio
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}

// normalizePeak scales samples in place so the peak hits peakTarget.
// All-silence input passes through untouched rather than dividing by
// zero.
func normalizePeak(samples []float64) {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	gain := peakTarget / peak
	for i := range samples {
		samples[i] *= gain
	}
}

// writeWAV encodes samples as 16-bit mono PCM.
func writeWAV(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, sampleRate, outputBitDepth, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: outputBitDepth,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		v := math.Round(s * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		buf.Data[i] = int(v)
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
