// Package config holds the settings shared by the engine and the sgeproto
// command. Settings come from defaults, an optional YAML file and a few
// environment variables, applied in that order.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/sgeproto/errors"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel = "SGEPROTO_LOG_LEVEL"
	EnvStrict   = "SGEPROTO_STRICT"
	EnvSchema   = "SGEPROTO_SCHEMA"
)

// Config is the root configuration document.
type Config struct {
	Schema  string  `yaml:"schema"`
	Decode  Decode  `yaml:"decode"`
	Frame   Frame   `yaml:"frame"`
	Log     Log     `yaml:"log"`
	Metrics Metrics `yaml:"metrics"`
}

// Decode controls decoder behavior.
type Decode struct {
	// Strict rejects unknown field tags and repeated singular fields.
	Strict bool `yaml:"strict"`
}

// Frame controls packing and the sizes accepted when unpacking.
type Frame struct {
	MaxRawBytes     int  `yaml:"max_raw_bytes"`
	MaxPayloadBytes int  `yaml:"max_payload_bytes"`
	ZeroPack        bool `yaml:"zero_pack"`
}

// Log selects the logger built by internal/logging.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Frame: Frame{
			MaxRawBytes:     64 << 20,
			MaxPayloadBytes: 64 << 20,
			ZeroPack:        true,
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Metrics: Metrics{
			Namespace: "sgeproto",
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return cfg, errors.NotFound(errors.PhaseLoad, "config file", path, err)
		}
		return cfg, errors.Load("read config "+path, err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, errors.Load("parse config "+path, err)
	}
	return cfg, nil
}

// Parse unmarshals YAML into cfg, rejecting unknown keys. An empty document
// leaves cfg unchanged.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from the SGEPROTO_* environment variables.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvSchema); ok && v != "" {
		c.Schema = v
	}
	if v, ok := lookup(EnvStrict); ok && v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("%s: %q is not a boolean", EnvStrict, v))
		}
		c.Decode.Strict = strict
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Frame.MaxRawBytes <= 0 {
		return invalid("frame.max_raw_bytes must be positive, got %d", c.Frame.MaxRawBytes)
	}
	if c.Frame.MaxPayloadBytes <= 0 {
		return invalid("frame.max_payload_bytes must be positive, got %d", c.Frame.MaxPayloadBytes)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q is not json or console", c.Log.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return invalid("metrics.namespace is required when metrics are enabled")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf(format, args...))
}
