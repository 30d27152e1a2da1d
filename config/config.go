// SPDX-License-Identifier: EPL-2.0

// Package config loads audmix settings from YAML and AUDMIX_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ik5/audmix/dsp"
	"github.com/ik5/audmix/mixer"
)

var ErrInvalid = errors.New("invalid config")

// Modes and backends.
const (
	ModeNormal        = "normal"
	ModeAutoDowngrade = "auto_downgrade"
	ModeLowQuality    = "low_quality"

	BackendMiniaudio = "miniaudio"
	BackendOto       = "oto"
	BackendBeep      = "beep"
	BackendWav       = "wav"
	BackendHeadless  = "headless"
)

var (
	modes    = []string{ModeNormal, ModeAutoDowngrade, ModeLowQuality}
	backends = []string{BackendMiniaudio, BackendOto, BackendBeep, BackendWav, BackendHeadless}
)

// Config mirrors audmix.yaml.
type Config struct {
	SampleRate          int       `yaml:"sample_rate"`
	Voices              int       `yaml:"voices"`
	Streams             int       `yaml:"streams"`
	ReservedHeadroom    int       `yaml:"reserved_headroom"`
	AlwaysAdmitPriority int       `yaml:"always_admit_priority"`
	Mode                string    `yaml:"mode"`
	FadeOutTicks        int       `yaml:"fade_out_ticks"`
	PauseTimeoutPeriods int       `yaml:"pause_timeout_periods"`
	SwapChannels        bool      `yaml:"swap_channels"`
	MasterEQ            []float64 `yaml:"master_eq"`
	CommandQueue        int       `yaml:"command_queue"`
	SegmentQueue        int       `yaml:"segment_queue"`

	Backend  string `yaml:"backend"`
	Output   string `yaml:"output"`
	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	m := mixer.DefaultConfig()
	return Config{
		SampleRate:          m.SampleRate,
		Voices:              m.Voices,
		Streams:             m.Streams,
		ReservedHeadroom:    m.ReservedHeadroom,
		AlwaysAdmitPriority: int(m.AlwaysAdmit),
		Mode:                ModeNormal,
		FadeOutTicks:        int(m.FadeOutTicks),
		PauseTimeoutPeriods: m.PauseTimeoutPeriods,
		CommandQueue:        m.CommandQueue,
		SegmentQueue:        m.SegmentQueue,
		Backend:             BackendMiniaudio,
		LogLevel:            "info",
	}
}

// Load reads path over the defaults, applies the environment and
// validates. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		if cfg, err = Parse(f); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from AUDMIX_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"AUDMIX_VOICES", &c.Voices},
		{"AUDMIX_SAMPLE_RATE", &c.SampleRate},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, e.key, v)
		}
		*e.dst = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"AUDMIX_MODE", &c.Mode},
		{"AUDMIX_BACKEND", &c.Backend},
		{"AUDMIX_LOG_LEVEL", &c.LogLevel},
		{"AUDMIX_OUTPUT", &c.Output},
	}
	for _, e := range strs {
		if v, ok := lookup(e.key); ok {
			*e.dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("AUDMIX_SWAP_CHANNELS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: AUDMIX_SWAP_CHANNELS=%q", ErrInvalid, v)
		}
		c.SwapChannels = b
	}
	return nil
}

func (c *Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate %d", ErrInvalid, c.SampleRate)
	case c.Voices < 1 || c.Voices > mixer.MaxVoices:
		return fmt.Errorf("%w: voices %d outside 1..%d", ErrInvalid, c.Voices, mixer.MaxVoices)
	case c.Streams < 0:
		return fmt.Errorf("%w: streams %d", ErrInvalid, c.Streams)
	case c.ReservedHeadroom < 0 || c.ReservedHeadroom >= c.Voices:
		return fmt.Errorf("%w: reserved_headroom %d", ErrInvalid, c.ReservedHeadroom)
	case c.AlwaysAdmitPriority < int(mixer.PriorityLowest) || c.AlwaysAdmitPriority > int(mixer.PriorityCritical):
		return fmt.Errorf("%w: always_admit_priority %d", ErrInvalid, c.AlwaysAdmitPriority)
	case !slices.Contains(modes, c.Mode):
		return fmt.Errorf("%w: mode %q, want one of %v", ErrInvalid, c.Mode, modes)
	case !slices.Contains(backends, c.Backend):
		return fmt.Errorf("%w: backend %q, want one of %v", ErrInvalid, c.Backend, backends)
	case c.Backend == BackendWav && c.Output == "":
		return fmt.Errorf("%w: backend wav needs output", ErrInvalid)
	case len(c.MasterEQ) != 0 && len(c.MasterEQ) != dsp.NumBands:
		return fmt.Errorf("%w: master_eq has %d gains, want %d", ErrInvalid, len(c.MasterEQ), dsp.NumBands)
	case c.FadeOutTicks < 0 || c.PauseTimeoutPeriods < 0 || c.CommandQueue < 0 || c.SegmentQueue < 0:
		return fmt.Errorf("%w: negative timing or queue size", ErrInvalid)
	case c.PauseTimeoutPeriods > 0 && c.FadeOutTicks > c.PauseTimeoutPeriods:
		return fmt.Errorf("%w: fade_out_ticks %d exceeds pause_timeout_periods %d",
			ErrInvalid, c.FadeOutTicks, c.PauseTimeoutPeriods)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses log_level.
func (c *Config) Level() (zapcore.Level, error) {
	l, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return l, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}

// Quality maps mode onto the mixer quality.
func (c *Config) Quality() mixer.Quality {
	switch c.Mode {
	case ModeAutoDowngrade:
		return mixer.QualityAutoDowngrade
	case ModeLowQuality:
		return mixer.QualityLow
	}
	return mixer.QualityNormal
}

// Mixer builds the engine config. Zero sizes fall back to mixer defaults.
func (c *Config) Mixer(log *zap.Logger) mixer.Config {
	admit := mixer.Priority(c.AlwaysAdmitPriority)
	if admit == mixer.PriorityLowest {
		admit = mixer.AlwaysAdmitLowest
	}
	m := mixer.Config{
		SampleRate:          c.SampleRate,
		Voices:              c.Voices,
		Streams:             c.Streams,
		ReservedHeadroom:    c.ReservedHeadroom,
		AlwaysAdmit:         admit,
		Quality:             c.Quality(),
		FadeOutTicks:        int32(c.FadeOutTicks),
		PauseTimeoutPeriods: c.PauseTimeoutPeriods,
		SwapChannels:        c.SwapChannels,
		CommandQueue:        c.CommandQueue,
		SegmentQueue:        c.SegmentQueue,
		Logger:              log,
	}
	if len(c.MasterEQ) == dsp.NumBands {
		eq := dsp.DB([dsp.NumBands]float64(c.MasterEQ))
		m.MasterEQ = &eq
	}
	return m
}
