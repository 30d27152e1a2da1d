// SPDX-License-Identifier: EPL-2.0

package mixer

import "errors"

var (
	// ErrInvalidHandle is returned for stale or unknown handles. Mutators
	// treat it as a no-op.
	ErrInvalidHandle = errors.New("invalid voice handle")
	// ErrNoVoiceAvailable means the pool is full and nothing could be
	// evicted. The request is dropped; this is a normal outcome.
	ErrNoVoiceAvailable = errors.New("no voice available")
	// ErrDeviceConfigMismatch is fatal: the device delivered a buffer of a
	// size other than the negotiated one.
	ErrDeviceConfigMismatch = errors.New("device buffer size mismatch")

	ErrCommandQueueFull  = errors.New("command queue full")
	ErrSegmentQueueFull  = errors.New("segment queue full")
	ErrNoStreamAvailable = errors.New("no stream channel available")
	ErrNotStream         = errors.New("voice is not a stream")
	ErrUnsupportedAsset  = errors.New("unsupported asset")
	ErrInvalidState      = errors.New("invalid mixer state")
	ErrInvalidConfig     = errors.New("invalid mixer config")
)
