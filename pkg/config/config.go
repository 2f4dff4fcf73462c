// Package config loads boxbridge.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "boxbridge.yaml"

// BuildMode selects how a source becomes script text.
type BuildMode string

const (
	BuildModeJSX     BuildMode = "jsx"
	BuildModeCommand BuildMode = "command"
	BuildModeFile    BuildMode = "file"
)

// Config is the full configuration.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Build   BuildConfig   `yaml:"build"`
	Style   StyleConfig   `yaml:"style"`
	Layout  LayoutConfig  `yaml:"layout"`
	Preview PreviewConfig `yaml:"preview"`
	Metrics MetricsConfig `yaml:"metrics"`
	Watch   WatchConfig   `yaml:"watch"`
}

// OutputConfig names the artifacts of a run.
type OutputConfig struct {
	Path string `yaml:"path"`
	// PNG enables the preview image when set.
	PNG string `yaml:"png,omitempty"`
}

// BuildConfig configures the build step.
type BuildConfig struct {
	Mode    BuildMode `yaml:"mode"`
	Command []string  `yaml:"command,omitempty"`
	// Dir is the working directory of the build command.
	Dir         string `yaml:"dir,omitempty"`
	HeaderLines *int   `yaml:"header_lines,omitempty"`
	Timeout     string `yaml:"timeout"`
	NoPrelude   bool   `yaml:"no_prelude,omitempty"`
}

type StyleConfig struct {
	Policy string `yaml:"policy"`
}

type LayoutConfig struct {
	PointScaleFactor *float64 `yaml:"point_scale_factor,omitempty"`
	Direction        string   `yaml:"direction"`
}

type PreviewConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// Load reads the configuration at path. A .env file in the working directory
// is loaded first and ${VAR} references in the YAML are expanded. A missing
// config file yields the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration with every default spelled out.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
