package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boxbridge/pkg/config"
	"boxbridge/pkg/metrics"
	"boxbridge/pkg/pipeline"
	"boxbridge/pkg/script"
	"boxbridge/pkg/watch"

	"github.com/alecthomas/kong"
)

// Global carries state shared by subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"boxbridge.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run   RunCmd   `cmd:"" default:"withargs" help:"Build, lay out and render a source once"`
	Watch WatchCmd `cmd:"" help:"Re-render whenever the source changes"`
	Init  InitCmd  `cmd:"" help:"Write a configuration file with the defaults"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return nil
}

// Overrides are per-invocation settings that win over the config file.
type Overrides struct {
	Output string `short:"o" help:"Output markup path (overrides output.path)"`
	PNG    string `help:"Write a preview PNG here (overrides output.png)"`
	Policy string `help:"Style type mismatch policy: strict or lenient"`
	RTL    bool   `help:"Lay out right-to-left"`
}

func (o Overrides) apply(cfg *config.Config) error {
	if o.Output != "" {
		cfg.Output.Path = o.Output
	}
	if o.PNG != "" {
		cfg.Output.PNG = o.PNG
	}
	if o.Policy != "" {
		cfg.Style.Policy = o.Policy
	}
	if o.RTL {
		cfg.Layout.Direction = "rtl"
	}
	return cfg.Validate()
}

func loadConfig(root *CLI, o Overrides) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := o.apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunCmd implements the 'run' command.
type RunCmd struct {
	Source string `arg:"" optional:"" help:"UI description source" default:"layout.jsx" type:"path"`
	Overrides
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, r.Overrides)
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg, g.Logger)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := p.Run(ctx, r.Source)
	if err != nil {
		return fmt.Errorf("%s: %w", res.Status, err)
	}
	fmt.Printf("Rendered %s to %s (%d bytes)\n", r.Source, cfg.Output.Path, len(res.Output))
	return nil
}

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Source string   `arg:"" optional:"" help:"UI description source" default:"layout.jsx" type:"path"`
	Also   []string `help:"Additional files whose changes trigger a run" type:"path"`
	Listen string   `name:"metrics-listen" help:"Serve Prometheus metrics on this address, e.g. :9090"`
	Overrides
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, w.Overrides)
	if err != nil {
		return err
	}
	debounce, err := cfg.WatchDebounce()
	if err != nil {
		return err
	}

	var opts []pipeline.Option
	var rec *metrics.PrometheusRecorder
	if w.Listen != "" {
		rec = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, pipeline.WithMetrics(rec))
	}
	p, err := pipeline.New(cfg, g.Logger, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if rec != nil {
		srv := &http.Server{Addr: w.Listen, Handler: metrics.HTTPHandler(rec.Registry()), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				g.Logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		g.Logger.Info("Serving metrics", "addr", w.Listen)
	}

	render := func(ctx context.Context) {
		res, err := p.Run(ctx, w.Source)
		if err != nil && res.Status != script.Rendered {
			g.Logger.Warn("Render failed, waiting for the next change", "status", res.Status.String(), "error", err)
		} else if err != nil {
			g.Logger.Warn("Rendered with artifact errors", "error", err)
		}
	}
	render(ctx)

	watcher, err := watch.New(append([]string{w.Source}, w.Also...), debounce, render, g.Logger)
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	fmt.Printf("Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	fmt.Println("initialized successfully")
	return nil
}
