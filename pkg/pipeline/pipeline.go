// Package pipeline assembles a script Runner and its side artifacts from a
// configuration.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"boxbridge/pkg/build"
	"boxbridge/pkg/config"
	"boxbridge/pkg/metrics"
	"boxbridge/pkg/output"
	"boxbridge/pkg/preview"
	"boxbridge/pkg/registry"
	"boxbridge/pkg/script"
)

// Pipeline runs a source through build, script evaluation and output, then
// writes the optional preview image and metrics textfile.
type Pipeline struct {
	Runner  *script.Runner
	Painter *preview.Painter
	// PNGPath enables the preview image when set.
	PNGPath string
	// Metrics is nil unless metrics are exported.
	Metrics  *metrics.PrometheusRecorder
	Textfile string

	logger *slog.Logger
}

// Option adjusts a Pipeline after it is built from the configuration.
type Option func(*Pipeline)

// WithMetrics records into rec even when no textfile is configured.
func WithMetrics(rec *metrics.PrometheusRecorder) Option {
	return func(p *Pipeline) { p.Metrics = rec }
}

// WithSink replaces the file sink named by output.path.
func WithSink(s output.Sink) Option {
	return func(p *Pipeline) { p.Runner.Sink = s }
}

// New builds a Pipeline from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	builder, err := NewBuilder(cfg)
	if err != nil {
		return nil, err
	}
	dir, err := cfg.Direction()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		Runner: &script.Runner{
			Builder:     builder,
			Interpreter: &script.GojaInterpreter{NoPrelude: cfg.Build.NoPrelude, Logger: logger},
			Sink:        output.NewFileSink(cfg.Output.Path),
			HeaderLines: cfg.Headers(),
			RegistryOptions: []registry.Option{
				registry.WithPolicy(cfg.Policy()),
				registry.WithEngine(cfg.Engine()),
				registry.WithDirection(dir),
			},
			Logger: logger,
		},
		Painter:  preview.NewPainter(cfg.Preview.Width, cfg.Preview.Height),
		PNGPath:  cfg.Output.PNG,
		Textfile: cfg.Metrics.Textfile,
		logger:   logger,
	}
	p.Painter.Logger = logger
	if p.Textfile != "" {
		p.Metrics = metrics.NewPrometheusRecorder(nil)
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.Metrics != nil {
		p.Runner.Recorder = p.Metrics
	}
	return p, nil
}

// NewBuilder returns the Builder selected by build.mode.
func NewBuilder(cfg *config.Config) (build.Builder, error) {
	switch cfg.Build.Mode {
	case config.BuildModeJSX, "":
		return build.JSXBuilder{}, nil
	case config.BuildModeFile:
		return build.FileBuilder{}, nil
	case config.BuildModeCommand:
		timeout, err := cfg.BuildTimeout()
		if err != nil {
			return nil, err
		}
		return &build.CommandBuilder{
			Command: cfg.Build.Command,
			Dir:     cfg.Build.Dir,
			Timeout: timeout,
		}, nil
	}
	return nil, fmt.Errorf("unknown build mode %q", cfg.Build.Mode)
}

// Run executes one pass over source. The returned error joins the run's own
// error with any failure writing the preview or the metrics textfile.
func (p *Pipeline) Run(ctx context.Context, source string) (script.Result, error) {
	res := p.Runner.Run(ctx, source)
	errs := []error{res.Err}

	if res.Status == script.Rendered && p.PNGPath != "" {
		if err := p.Painter.SavePNG(p.PNGPath, res.Registry.Placements()); err != nil {
			errs = append(errs, fmt.Errorf("preview: %w", err))
		}
	}
	if p.Metrics != nil && p.Textfile != "" {
		if err := p.Metrics.WriteTextfile(p.Textfile); err != nil {
			errs = append(errs, err)
		}
	}
	return res, errors.Join(errs...)
}

// Preview paints the boxes of a rendered result.
func (p *Pipeline) Preview(res script.Result) (image.Image, error) {
	if res.Registry == nil {
		return nil, preview.ErrEmptyCanvas
	}
	return p.Painter.Paint(res.Registry.Placements())
}

// RunAndPaint runs source and paints the result when it rendered. The image
// is returned even when writing an artifact failed; the error then joins the
// artifact failure with any painting failure.
func (p *Pipeline) RunAndPaint(ctx context.Context, source string) (script.Result, image.Image, error) {
	res, runErr := p.Run(ctx, source)
	if res.Status != script.Rendered {
		return res, nil, runErr
	}
	img, paintErr := p.Preview(res)
	return res, img, errors.Join(runErr, paintErr)
}
