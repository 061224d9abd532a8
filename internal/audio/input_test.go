package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/ac1965/music2score/internal/errors"
)

func TestValidateInput(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing", func(t *testing.T) {
		err := ValidateInput(filepath.Join(dir, "nope.wav"))
		if !errors.Is(err, apperrors.ErrFileNotFound) {
			t.Errorf("expected ErrFileNotFound, got %v", err)
		}
	})

	t.Run("NotWAV", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		if err := os.WriteFile(path, []byte("definitely not audio data"), 0644); err != nil {
			t.Fatal(err)
		}
		err := ValidateInput(path)
		if !errors.Is(err, apperrors.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("WAV", func(t *testing.T) {
		path := filepath.Join(dir, "ok.wav")
		writeTestWAV(t, path, 22050, 1, make([]int, 100))
		if err := ValidateInput(path); err != nil {
			t.Errorf("valid WAV rejected: %v", err)
		}
	})
}
