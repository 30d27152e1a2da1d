// SPDX-License-Identifier: EPL-2.0

// Package audmix wires the real-time voice mixer to an output device.
//
// The mixer itself lives in the mixer package. This package adds what a
// host application needs around it: building a sound bank from ordinary
// audio files, choosing an output backend by name and running the refill
// worker next to the device.
//
// # Quick Start
//
//	cfg, _ := config.Load("audmix.yaml")
//	sys, _ := audmix.Open(cfg, logger)
//	defer sys.Close(context.Background())
//
//	b, _ := audmix.LoadFiles(sys.Engine().SampleRate(),
//		audmix.Import{Path: "click.wav"},
//		audmix.Import{Path: "rain.ogg", Loop: true},
//	)
//	rain, _ := b.Lookup("rain")
//
//	h, _ := sys.Engine().Play(rain, mixer.PlayParams{
//		Priority: mixer.PriorityNormal,
//		Volume:   mixer.VolumeMax / 2,
//		FadeIn:   20,
//	})
//	go sys.Run(ctx)
//
// # Backends
//
// The backend key of the configuration selects the output:
//   - miniaudio through malgo (device/miniaudio)
//   - oto (device/otoplayer)
//   - beep speaker (device/beepspeaker)
//   - wav records the mix to the output file (device/wavfile)
//   - headless renders on a timer and discards the mix
//
// # Supported Formats
//
// ImportFiles and OpenSource decode WAV, AIFF, MP3 and Ogg Vorbis through
// the formats package. Sources are resampled to the engine rate and folded
// to at most two channels.
package audmix
