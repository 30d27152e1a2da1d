// SPDX-License-Identifier: EPL-2.0

package device

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid device config")
	ErrClosed        = errors.New("device closed")
	ErrNotStarted    = errors.New("device not started")
)
