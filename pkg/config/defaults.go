package config

import (
	"errors"
	"fmt"
	"time"

	"boxbridge/pkg/build"
	"boxbridge/pkg/flex"
	"boxbridge/pkg/output"
	"boxbridge/pkg/style"
)

const (
	defaultTimeout  = "60s"
	defaultDebounce = "300ms"
	// npm prints a blank line and two "> " lines ahead of the bundle.
	commandHeaderLines = 3
)

func applyDefaults(cfg *Config) {
	if cfg.Output.Path == "" {
		cfg.Output.Path = output.DefaultPath
	}
	if cfg.Build.Mode == "" {
		cfg.Build.Mode = BuildModeJSX
	}
	if cfg.Build.Mode == BuildModeCommand && len(cfg.Build.Command) == 0 {
		cfg.Build.Command = append([]string(nil), build.DefaultCommand...)
	}
	if cfg.Build.HeaderLines == nil {
		n := 0
		if cfg.Build.Mode == BuildModeCommand {
			n = commandHeaderLines
		}
		cfg.Build.HeaderLines = &n
	}
	if cfg.Build.Timeout == "" {
		cfg.Build.Timeout = defaultTimeout
	}
	if cfg.Style.Policy == "" {
		cfg.Style.Policy = style.Strict.String()
	}
	if cfg.Layout.PointScaleFactor == nil {
		f := float64(flex.DefaultConfig().PointScaleFactor)
		cfg.Layout.PointScaleFactor = &f
	}
	if cfg.Layout.Direction == "" {
		cfg.Layout.Direction = "ltr"
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = defaultDebounce
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.Build.Mode {
	case BuildModeJSX, BuildModeFile:
	case BuildModeCommand:
		if len(c.Build.Command) == 0 {
			errs = append(errs, errors.New("build.command must not be empty in command mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown build.mode %q", c.Build.Mode))
	}
	if c.Build.HeaderLines != nil && *c.Build.HeaderLines < 0 {
		errs = append(errs, fmt.Errorf("build.header_lines must be >= 0, got %d", *c.Build.HeaderLines))
	}
	if _, err := c.BuildTimeout(); err != nil {
		errs = append(errs, fmt.Errorf("build.timeout: %w", err))
	}
	if _, err := style.ParsePolicy(c.Style.Policy); err != nil {
		errs = append(errs, err)
	}
	if c.Layout.PointScaleFactor != nil && *c.Layout.PointScaleFactor < 0 {
		errs = append(errs, fmt.Errorf("layout.point_scale_factor must be >= 0, got %g", *c.Layout.PointScaleFactor))
	}
	if _, err := c.Direction(); err != nil {
		errs = append(errs, err)
	}
	if c.Preview.Width < 0 || c.Preview.Height < 0 {
		errs = append(errs, fmt.Errorf("preview size must be >= 0, got %dx%d", c.Preview.Width, c.Preview.Height))
	}
	if _, err := c.WatchDebounce(); err != nil {
		errs = append(errs, fmt.Errorf("watch.debounce: %w", err))
	}
	return errors.Join(errs...)
}

// Headers returns the number of build output lines to drop.
func (c *Config) Headers() int {
	if c.Build.HeaderLines == nil {
		return 0
	}
	return *c.Build.HeaderLines
}

// BuildTimeout parses build.timeout. Zero means no limit.
func (c *Config) BuildTimeout() (time.Duration, error) {
	return parseDuration(c.Build.Timeout)
}

// WatchDebounce parses watch.debounce.
func (c *Config) WatchDebounce() (time.Duration, error) {
	return parseDuration(c.Watch.Debounce)
}

// Policy returns the style policy.
func (c *Config) Policy() style.Policy {
	p, _ := style.ParsePolicy(c.Style.Policy)
	return p
}

// Engine returns the layout engine settings.
func (c *Config) Engine() flex.Config {
	cfg := flex.DefaultConfig()
	if c.Layout.PointScaleFactor != nil {
		cfg.PointScaleFactor = float32(*c.Layout.PointScaleFactor)
	}
	return cfg
}

// Direction returns the writing direction of layout passes.
func (c *Config) Direction() (flex.Direction, error) {
	switch c.Layout.Direction {
	case "", "ltr", "LTR":
		return flex.LTR, nil
	case "rtl", "RTL":
		return flex.RTL, nil
	}
	return flex.LTR, fmt.Errorf("unknown layout.direction %q", c.Layout.Direction)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must be >= 0, got %s", s)
	}
	return d, nil
}
