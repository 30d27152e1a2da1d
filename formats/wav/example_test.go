// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ik5/audmix/formats/wav"
)

func Example() {
	dir, _ := os.MkdirTemp("", "wav-example")
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "tone.wav")

	out, _ := os.Create(path)
	w := wav.NewWriter(out, 16000, 1)
	_ = w.Write([]float32{0.1, 0.2, 0.3, 0.4, 0.5})
	_ = w.Close()
	_ = out.Close()

	in, _ := os.Open(path)
	defer in.Close()

	src, err := wav.Decoder{}.Decode(in)
	if err != nil {
		fmt.Println("decode:", err)
		return
	}

	buf := make([]float32, 10)
	n, _ := src.ReadSamples(buf)
	fmt.Printf("%d Hz, %d ch, %d samples\n", src.SampleRate(), src.Channels(), n)
	// Output:
	// 16000 Hz, 1 ch, 5 samples
}
