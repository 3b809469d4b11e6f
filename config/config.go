// Package config loads engine and patch configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dudk/ugen"
	"github.com/dudk/ugen/log"
	"github.com/dudk/ugen/sample"
	"github.com/dudk/ugen/ugens"
)

// Environment variables that override file values.
const (
	EnvBufferSize = "UGEN_BUFFER_SIZE"
	EnvSampleRate = "UGEN_SAMPLE_RATE"
	EnvLogLevel   = "UGEN_LOG_LEVEL"
)

// ErrInvalid is returned when configuration values are out of range.
var ErrInvalid = errors.New("invalid configuration")

type (
	// Config is the complete configuration of a ugen run.
	Config struct {
		Engine  Engine  `yaml:"engine"`
		Logging Logging `yaml:"logging"`
		Metrics Metrics `yaml:"metrics"`
		Patch   Patch   `yaml:"patch"`
	}

	// Engine holds context parameters.
	Engine struct {
		BufferSize  int     `yaml:"buffer_size"`
		SampleRate  float64 `yaml:"sample_rate"`
		Channels    int     `yaml:"channels"`
		PoolReserve int     `yaml:"pool_reserve"`
	}

	// Logging holds logger parameters.
	Logging struct {
		Level string `yaml:"level"`
	}

	// Metrics holds address to serve metrics on. Empty disables the
	// endpoint.
	Metrics struct {
		Listen string `yaml:"listen"`
	}

	// Patch describes the graph built under the root node.
	Patch struct {
		Gain        float64      `yaml:"gain"`
		Oscillators []Oscillator `yaml:"oscillators"`
		Bank        *Bank        `yaml:"bank"`
		Sample      *Sample      `yaml:"sample"`
	}

	// Oscillator is a single voice, sine by default. Attack and release
	// are in milliseconds, release starts after hold. Zero release keeps
	// the voice forever.
	Oscillator struct {
		Shape     string  `yaml:"shape"`
		Frequency float64 `yaml:"frequency"`
		Gain      float64 `yaml:"gain"`
		Attack    float64 `yaml:"attack"`
		Hold      float64 `yaml:"hold"`
		Release   float64 `yaml:"release"`
	}

	// Bank is an oscillator bank. Missing gains default to one.
	Bank struct {
		Shape       string    `yaml:"shape"`
		Frequencies []float64 `yaml:"frequencies"`
		Gains       []float64 `yaml:"gains"`
		Gain        float64   `yaml:"gain"`
	}

	// Sample is a wav or mp3 file played from the start.
	Sample struct {
		File          string  `yaml:"file"`
		Rate          float64 `yaml:"rate"`
		Gain          float64 `yaml:"gain"`
		Loop          bool    `yaml:"loop"`
		Interpolation string  `yaml:"interpolation"`
	}
)

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Engine: Engine{
			BufferSize:  512,
			SampleRate:  44100,
			Channels:    2,
			PoolReserve: 64,
		},
		Logging: Logging{
			Level: "info",
		},
		Patch: Patch{
			Gain: 1,
		},
	}
}

// Load reads configuration from the file and applies environment
// overrides. Empty path loads defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv(EnvBufferSize); val != "" {
		v, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBufferSize, err)
		}
		cfg.Engine.BufferSize = v
	}
	if val := os.Getenv(EnvSampleRate); val != "" {
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSampleRate, err)
		}
		cfg.Engine.SampleRate = v
	}
	if val := os.Getenv(EnvLogLevel); val != "" {
		cfg.Logging.Level = val
	}
	return nil
}

// Validate checks all sections of configuration.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine configuration: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging configuration: %w", err)
	}
	if err := c.Patch.Validate(); err != nil {
		return fmt.Errorf("patch configuration: %w", err)
	}
	return nil
}

// Validate checks engine parameters.
func (e *Engine) Validate() error {
	switch {
	case e.BufferSize <= 0:
		return fmt.Errorf("%w: buffer size %d", ErrInvalid, e.BufferSize)
	case e.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %v", ErrInvalid, e.SampleRate)
	case e.Channels <= 0:
		return fmt.Errorf("%w: channels %d", ErrInvalid, e.Channels)
	case e.PoolReserve < 0:
		return fmt.Errorf("%w: pool reserve %d", ErrInvalid, e.PoolReserve)
	}
	return nil
}

// Validate normalizes and checks log level.
func (l *Logging) Validate() error {
	if strings.TrimSpace(l.Level) == "" {
		l.Level = "info"
	}
	level := strings.TrimSpace(strings.ToLower(l.Level))
	if _, err := logrus.ParseLevel(level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	l.Level = level
	return nil
}

// Validate checks voices of the patch.
func (p *Patch) Validate() error {
	if p.Gain < 0 {
		return fmt.Errorf("%w: gain %v", ErrInvalid, p.Gain)
	}
	for i := range p.Oscillators {
		o := &p.Oscillators[i]
		if o.Gain == 0 {
			o.Gain = 1
		}
		if o.Frequency <= 0 {
			return fmt.Errorf("%w: oscillator %d frequency %v", ErrInvalid, i, o.Frequency)
		}
		if o.Attack < 0 || o.Hold < 0 || o.Release < 0 {
			return fmt.Errorf("%w: oscillator %d has negative duration", ErrInvalid, i)
		}
		if _, err := ugens.ParseShape(o.Shape); err != nil {
			return fmt.Errorf("%w: oscillator %d: %v", ErrInvalid, i, err)
		}
	}
	if b := p.Bank; b != nil {
		if len(b.Frequencies) == 0 {
			return fmt.Errorf("%w: bank has no frequencies", ErrInvalid)
		}
		for i, f := range b.Frequencies {
			if f <= 0 {
				return fmt.Errorf("%w: bank frequency %d: %v", ErrInvalid, i, f)
			}
		}
		if len(b.Gains) > len(b.Frequencies) {
			return fmt.Errorf("%w: bank has %d gains for %d frequencies", ErrInvalid, len(b.Gains), len(b.Frequencies))
		}
		for len(b.Gains) < len(b.Frequencies) {
			b.Gains = append(b.Gains, 1)
		}
		if b.Gain == 0 {
			b.Gain = 1
		}
		if _, err := ugens.ParseShape(b.Shape); err != nil {
			return fmt.Errorf("%w: bank: %v", ErrInvalid, err)
		}
	}
	if s := p.Sample; s != nil {
		if s.File == "" {
			return fmt.Errorf("%w: sample file is empty", ErrInvalid)
		}
		if s.Rate == 0 {
			s.Rate = 1
		}
		if s.Gain == 0 {
			s.Gain = 1
		}
		if _, err := sample.ParseInterpolation(s.Interpolation); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return nil
}

// Logger returns logger with configured level.
func (c *Config) Logger() *logrus.Logger {
	return log.WithLevel(c.Logging.Level)
}

// Options converts engine configuration to context options. Logger is
// derived from logging section.
func (c *Config) Options() []ugen.Option {
	return []ugen.Option{
		ugen.WithBufferSize(c.Engine.BufferSize),
		ugen.WithSampleRate(c.Engine.SampleRate),
		ugen.WithChannels(c.Engine.Channels),
		ugen.WithPoolReserve(c.Engine.PoolReserve),
		ugen.WithLogger(c.Logger()),
	}
}

// String returns configuration in YAML format.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(data)
}
