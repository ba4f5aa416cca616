// Package config loads cache settings from YAML or TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/IvanBrykalov/swrcache/cache"
	"github.com/hashicorp/go-hclog"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("config: unsupported format")

// Format identifies a file syntax.
type Format string

const (
	// FormatYAML is selected by the .yaml and .yml extensions.
	FormatYAML Format = "yaml"
	// FormatTOML is selected by the .toml extension.
	FormatTOML Format = "toml"
)

// file mirrors the on-disk schema. Durations are Go duration strings.
type file struct {
	Duration          string `yaml:"duration" toml:"duration"`
	DurationUntilCold string `yaml:"duration_until_cold" toml:"duration_until_cold"`
	LogLevel          string `yaml:"log_level" toml:"log_level"`
}

// Config is the validated, resolved configuration.
// Zero durations keep the cache defaults.
type Config struct {
	Duration          time.Duration
	DurationUntilCold time.Duration
	LogLevel          hclog.Level
}

// Load reads path, picking the syntax from its extension.
func Load(path string) (Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FormatOf maps a file name to its Format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Parse decodes data in the given format. Unknown keys are rejected.
func Parse(data []byte, format Format) (Config, error) {
	var raw file
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF; treat it as all defaults.
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return raw.resolve()
}

func (f file) resolve() (Config, error) {
	var (
		cfg Config
		err error
	)
	if cfg.Duration, err = parseDuration("duration", f.Duration); err != nil {
		return Config{}, err
	}
	if cfg.DurationUntilCold, err = parseDuration("duration_until_cold", f.DurationUntilCold); err != nil {
		return Config{}, err
	}
	if err := cache.CheckDurations(cfg.Duration, cfg.DurationUntilCold); err != nil {
		return Config{}, err
	}

	cfg.LogLevel = hclog.Info
	if f.LogLevel != "" {
		cfg.LogLevel = hclog.LevelFromString(f.LogLevel)
		if cfg.LogLevel == hclog.NoLevel {
			return Config{}, fmt.Errorf("log_level: unknown level %q", f.LogLevel)
		}
	}
	return cfg, nil
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Options converts cfg into cache options. Fields not carried by the file
// (Clock, Metrics, OnEvict) are left for the caller.
func Options[K comparable](cfg Config, logger hclog.Logger) cache.Options[K] {
	return cache.Options[K]{
		Duration:          cfg.Duration,
		DurationUntilCold: cfg.DurationUntilCold,
		Logger:            logger,
	}
}

// Logger builds a named logger at the configured level.
func (c Config) Logger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: c.LogLevel,
	})
}
