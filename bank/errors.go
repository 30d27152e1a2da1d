// SPDX-License-Identifier: EPL-2.0

package bank

import "errors"

var (
	// ErrBankInUse is returned by Unload while voices still reference the
	// bank. Retry once they have finished.
	ErrBankInUse = errors.New("bank in use")
	// ErrBankUnloaded is returned when acquiring an unloaded bank.
	ErrBankUnloaded = errors.New("bank unloaded")

	ErrBadMagic   = errors.New("not a sound bank")
	ErrBadVersion = errors.New("unsupported bank version")
	ErrTruncated  = errors.New("bank image truncated")
	ErrBadRange   = errors.New("asset range outside bank image")
	ErrBadAsset   = errors.New("invalid asset descriptor")
	ErrNoAsset    = errors.New("no such asset")
)
