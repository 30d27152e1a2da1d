// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files through
// github.com/jfreymuth/oggvorbis.
//
//	src, err := vorbis.Decoder{}.Decode(file)
//
// Reads must be a whole number of frames.
package vorbis
