// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/wav"
	"github.com/ik5/audmix/internal/audiotest"
)

// writeWAV renders src into dir/name and returns the path.
func writeWAV(t *testing.T, dir, name string, src audio.Source) string {
	t.Helper()

	samples, err := audio.ReadAll(src)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := wav.NewWriter(f, src.SampleRate(), src.Channels())
	if err := w.Write(samples); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func toneFile(t *testing.T, rate, channels, frames int) string {
	t.Helper()
	return writeWAV(t, t.TempDir(), "tone.wav", audiotest.Sine(rate, channels, frames, 440))
}
