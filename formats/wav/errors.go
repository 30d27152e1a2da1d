// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile           = errors.New("not a WAV file")
	ErrUnsupportedEncoding  = errors.New("only integer PCM WAV is supported")
	ErrUnsupportedWavChunks = errors.New("unsupported WAV chunks")
	ErrPartialFrame         = errors.New("sample count is not a whole number of frames")
)
