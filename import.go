// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/bank"
	"github.com/ik5/audmix/formats"
)

// Import names one file for ImportFiles.
type Import struct {
	Path string
	// Name defaults to the file name without its extension.
	Name string
	Loop bool
}

func (im Import) name() string {
	if im.Name != "" {
		return im.Name
	}
	base := filepath.Base(im.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OpenSource decodes path and conforms it to rate Hz and at most two
// channels, ready to be streamed as a segment Source.
func OpenSource(path string, rate int) (audio.Source, error) {
	src, err := formats.Registry().DecodeFile(path)
	if err != nil {
		return nil, err
	}
	out, err := audio.Conform(src, rate, 2)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// ImportFiles decodes every file and returns a bank image of 16-bit assets
// at rate Hz.
func ImportFiles(rate int, files ...Import) ([]byte, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	b := bank.NewBuilder()
	for _, f := range files {
		if err := addFile(b, rate, f); err != nil {
			return nil, err
		}
	}
	return b.Bytes()
}

func addFile(b *bank.Builder, rate int, f Import) error {
	src, err := OpenSource(f.Path, rate)
	if err != nil {
		return err
	}
	defer src.Close()

	samples, err := audio.ReadAll(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.Path, err)
	}
	if err := b.AddPCM(f.name(), samples, rate, src.Channels(), f.Loop); err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	return nil
}

// LoadFiles imports files straight into a loaded bank.
func LoadFiles(rate int, files ...Import) (*bank.Bank, error) {
	img, err := ImportFiles(rate, files...)
	if err != nil {
		return nil, err
	}
	return bank.Load(img)
}
