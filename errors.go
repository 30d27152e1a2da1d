// SPDX-License-Identifier: EPL-2.0

package audmix

import "errors"

var (
	ErrUnknownBackend = errors.New("unknown output backend")
	ErrNoFiles        = errors.New("no files to import")
)
