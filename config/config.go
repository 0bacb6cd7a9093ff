// SPDX-License-Identifier: EPL-2.0

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ik5/splicebox/stretch"
)

// Config is the complete splicebox configuration.
type Config struct {
	Sampler SamplerConfig   `yaml:"sampler"`
	Stretch stretch.Options `yaml:"stretch"`
	Engine  EngineConfig    `yaml:"engine"`
	Export  ExportConfig    `yaml:"export"`
	Logging LoggingConfig   `yaml:"logging"`
}

// SamplerConfig describes the target hardware.
type SamplerConfig struct {
	MaxDuration float64 `yaml:"max_duration"` // seconds
	Truncate    bool    `yaml:"truncate"`
	UndoDepth   int     `yaml:"undo_depth"`
}

// EngineConfig sizes the stretch engine.
type EngineConfig struct {
	ArenaLimit int `yaml:"arena_limit"` // bytes
}

// ExportConfig controls written files.
type ExportConfig struct {
	SampleRate int  `yaml:"sample_rate"` // 0 keeps the source rate
	Mono       bool `yaml:"mono"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default matches a sampler with a 174 second memory.
func Default() *Config {
	return &Config{
		Sampler: SamplerConfig{
			MaxDuration: 174,
			Truncate:    true,
			UndoDepth:   32,
		},
		Stretch: stretch.DefaultOptions(),
		Engine: EngineConfig{
			ArenaLimit: stretch.DefaultArenaLimit,
		},
		Export: ExportConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Sampler.Validate(); err != nil {
		return fmt.Errorf("sampler config: %w", err)
	}

	if err := c.Stretch.Validate(); err != nil {
		return fmt.Errorf("stretch config: %w", err)
	}

	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func (s *SamplerConfig) Validate() error {
	if s.MaxDuration <= 0 {
		return fmt.Errorf("max_duration must be positive, got %f", s.MaxDuration)
	}

	if s.UndoDepth < 0 {
		return fmt.Errorf("undo_depth cannot be negative, got %d", s.UndoDepth)
	}

	return nil
}

func (e *EngineConfig) Validate() error {
	if e.ArenaLimit < 1<<16 {
		return fmt.Errorf("arena_limit must be at least 65536 bytes, got %d", e.ArenaLimit)
	}

	return nil
}

func (e *ExportConfig) Validate() error {
	if e.SampleRate != 0 && (e.SampleRate < 4000 || e.SampleRate > 192000) {
		return fmt.Errorf("sample_rate must be 0 or between 4000 and 192000 Hz, got %d", e.SampleRate)
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be one of debug, info, warn, error, got %q", l.Level)
	}

	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be text or json, got %q", l.Format)
	}

	return nil
}
