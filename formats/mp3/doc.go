// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 files through github.com/hajimehoshi/go-mp3.
//
// go-mp3 always yields 16-bit stereo, so the Source reports two channels
// even for mono files. The mixer's importer folds or keeps them as
// configured.
package mp3
