// SPDX-License-Identifier: EPL-2.0

// Package bank loads sound banks: one owned byte arena holding a header, a
// table of asset descriptors and their sample data.
//
// # Image Format
//
// All integers are little-endian.
//
//	offset  size  field
//	0       4     magic "AMXB"
//	4       2     version (1)
//	6       2     asset count
//	8       32*n  asset entries
//	...           names and sample data
//
// Each entry is
//
//	offset u32, size u32, loopStart u32, loopEnd u32,
//	nameOff u32, nameLen u16, bitrate u16, sampleRate u32,
//	channels u8, flags u8, reserved u16
//
// Offsets are relative to the start of the image. Loop bounds are byte
// offsets into the asset's own data. Bitrate is bits per sample, 8 or 16.
// Flag bit 0 marks an asset that loops by default.
//
// Load copies the image and checks every range against it, so an Asset can
// never reach outside its bank. A Bank counts the live voices that
// reference it and refuses to Unload while that count is positive.
package bank
