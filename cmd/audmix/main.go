// SPDX-License-Identifier: EPL-2.0

// Command audmix plays or streams audio files through the mixer.
//
//	audmix play [flags] file...    mix every file at once as voices
//	audmix stream [flags] file...  play the files back to back on one stream
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/config"
	"github.com/ik5/audmix/mixer"
)

const usage = `usage: audmix <play|stream> [flags] file...

Settings come from -config, then AUDMIX_* variables, then flags.
`

type options struct {
	configPath string
	backend    string
	output     string
	volume     int
	pan        int
	fadeIn     int
	loop       bool
	duration   time.Duration
	files      []string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd := os.Args[1]
	if cmd != "play" && cmd != "stream" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	opts, err := parseFlags(cmd, os.Args[2:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cmd, opts); err != nil {
		fmt.Fprintln(os.Stderr, "audmix:", err)
		os.Exit(1)
	}
}

func parseFlags(cmd string, args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "YAML config file")
	fs.StringVar(&o.backend, "backend", "", "output backend (miniaudio, oto, beep, wav, headless)")
	fs.StringVar(&o.output, "o", "", "output file for the wav backend")
	fs.IntVar(&o.volume, "volume", int(mixer.VolumeMax), "voice volume 0..10000")
	fs.IntVar(&o.pan, "pan", int(mixer.PanCentre), "pan in degrees, 0 is centre")
	fs.IntVar(&o.fadeIn, "fade", 0, "fade-in in periods")
	fs.BoolVar(&o.loop, "loop", false, "loop every file (play only)")
	fs.DurationVar(&o.duration, "for", 0, "stop after this long")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.files = fs.Args()
	if len(o.files) == 0 {
		return o, errors.New("no input files")
	}
	return o, nil
}

func loadConfig(o options) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		f, err := os.Open(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg, err = config.Parse(f)
		f.Close()
		if err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if o.output != "" {
		cfg.Output = o.output
		if o.backend == "" {
			cfg.Backend = config.BackendWav
		}
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func run(ctx context.Context, cmd string, o options) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if o.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.duration)
		defer cancel()
	}

	sys, err := audmix.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := sys.Close(sctx); err != nil {
			log.Warn("close", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sys.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		if cmd == "stream" {
			return streamFiles(gctx, sys.Engine(), o, log)
		}
		return playFiles(gctx, sys.Engine(), o, log)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func playFiles(ctx context.Context, e *mixer.Engine, o options, log *zap.Logger) error {
	imports := make([]audmix.Import, len(o.files))
	for i, f := range o.files {
		imports[i] = audmix.Import{Path: f, Name: fmt.Sprintf("%d", i), Loop: o.loop}
	}
	b, err := audmix.LoadFiles(e.SampleRate(), imports...)
	if err != nil {
		return err
	}

	p := mixer.DefaultPlayParams()
	p.Volume = int32(o.volume)
	p.Pan = int32(o.pan)
	p.FadeIn = int32(o.fadeIn)

	var handles []mixer.Handle
	for i := range b.Len() {
		a, _ := b.Asset(i)
		h, err := e.Play(a, p)
		if err != nil {
			log.Warn("not played", zap.String("file", o.files[i]), zap.Error(err))
			continue
		}
		handles = append(handles, h)
	}

	return waitFor(ctx, e, func() bool {
		for _, h := range handles {
			if e.Valid(h) {
				return false
			}
		}
		return true
	})
}

func streamFiles(ctx context.Context, e *mixer.Engine, o options, log *zap.Logger) error {
	segment := func(path string) (mixer.Segment, error) {
		src, err := audmix.OpenSource(path, e.SampleRate())
		if err != nil {
			return mixer.Segment{}, err
		}
		return mixer.Segment{Source: src, Channels: src.Channels()}, nil
	}

	first, err := segment(o.files[0])
	if err != nil {
		return err
	}
	h, err := e.StartStream(mixer.StreamParams{
		Priority: mixer.PriorityHigh,
		Volume:   int32(o.volume),
		Pan:      int32(o.pan),
		FadeIn:   int32(o.fadeIn),
	}, first)
	if err != nil {
		first.Source.Close()
		return err
	}

	for _, path := range o.files[1:] {
		seg, err := segment(path)
		if err != nil {
			log.Warn("skipped", zap.String("file", path), zap.Error(err))
			continue
		}
		for {
			err = e.QueueSegment(h, seg)
			if !errors.Is(err, mixer.ErrSegmentQueueFull) {
				break
			}
			select {
			case <-ctx.Done():
				seg.Source.Close()
				return ctx.Err()
			case <-time.After(e.Period()):
			}
		}
		if err != nil {
			seg.Source.Close()
			return err
		}
		log.Debug("queued", zap.String("file", path))
	}

	return waitFor(ctx, e, func() bool { return !e.Valid(h) })
}

// waitFor polls done once per period.
func waitFor(ctx context.Context, e *mixer.Engine, done func() bool) error {
	t := time.NewTicker(e.Period())
	defer t.Stop()
	for !done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}
