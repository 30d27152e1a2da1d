// SPDX-License-Identifier: EPL-2.0

package dsp

import "errors"

var (
	// ErrDecodeFailure is returned when a block cannot be decoded.
	ErrDecodeFailure = errors.New("decode failure")

	ErrInvalidBlockSize = errors.New("block frames must be a power of two between 64 and 8192")
	ErrInvalidRate      = errors.New("sample rate must be positive")
	ErrInvalidDelay     = errors.New("invalid delay model")
)
