package script

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"boxbridge/pkg/build"
	"boxbridge/pkg/metrics"
	"boxbridge/pkg/output"
	"boxbridge/pkg/registry"
)

// Status is the outcome of one Runner.Run.
type Status int

const (
	// Rendered means the script ran and its markup was persisted.
	Rendered Status = iota
	// NoScript means the build step produced nothing to evaluate.
	NoScript
	// NoOutput means a script was evaluated but nothing was written.
	NoOutput
	// Failed means the artifact could not be persisted.
	Failed
)

func (s Status) String() string {
	return string(s.runStatus())
}

func (s Status) runStatus() metrics.RunStatus {
	switch s {
	case Rendered:
		return metrics.RunRendered
	case NoScript:
		return metrics.RunNoScript
	case NoOutput:
		return metrics.RunNoOutput
	default:
		return metrics.RunFailed
	}
}

// ErrEmptyScript is reported when the built text holds no script.
var ErrEmptyScript = errors.New("build produced an empty script")

// ErrNothingWritten is reported when a script completes without calling
// writeData.
var ErrNothingWritten = errors.New("script finished without writing output")

// Result describes a finished run. Registry is the session the script built,
// nil when no script was evaluated.
type Result struct {
	Status   Status
	Output   string
	Registry *registry.Registry
	Duration time.Duration
	Err      error
}

// Runner builds a source, evaluates it and persists the markup it renders.
// Every Run gets a fresh registry session.
type Runner struct {
	Builder     build.Builder
	Interpreter Interpreter
	Sink        output.Sink
	// HeaderLines is the number of leading lines dropped from built text.
	HeaderLines int
	// RegistryOptions apply to each run's registry.
	RegistryOptions []registry.Option
	Logger          *slog.Logger
	Recorder        metrics.Recorder
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) recorder() metrics.Recorder {
	if r.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return r.Recorder
}

// Run executes the pipeline for source once.
func (r *Runner) Run(ctx context.Context, source string) Result {
	start := time.Now()
	res := r.run(ctx, source)
	res.Duration = time.Since(start)
	r.recorder().ObserveRun(res.Status.runStatus(), res.Duration)

	log := r.logger().With("path", source, "status", res.Status.String(), "duration", res.Duration)
	if res.Err != nil {
		log.Warn("Pipeline run did not render", "error", res.Err)
	} else {
		log.Info("Pipeline run rendered", "bytes", len(res.Output))
	}
	return res
}

func (r *Runner) run(ctx context.Context, source string) Result {
	text, err := r.Builder.Build(ctx, source)
	if err != nil {
		return Result{Status: NoScript, Err: err}
	}
	text = build.StripHeader(text, r.HeaderLines)
	if strings.TrimSpace(text) == "" {
		return Result{Status: NoScript, Err: ErrEmptyScript}
	}

	opts := append([]registry.Option{
		registry.WithLogger(r.logger()),
		registry.WithRecorder(r.recorder()),
	}, r.RegistryOptions...)
	reg := registry.New(opts...)
	session := NewSession(reg, r.Sink, r.logger().With("session", reg.ID()))

	runErr := r.Interpreter.Run(ctx, source, text, session)
	if fatal := session.Fatal(); fatal != nil {
		return Result{Status: Failed, Registry: reg, Err: fatal}
	}
	if runErr != nil {
		return Result{Status: NoOutput, Registry: reg, Err: runErr}
	}
	out, ok := session.Output()
	if !ok {
		return Result{Status: NoOutput, Registry: reg, Err: ErrNothingWritten}
	}
	return Result{Status: Rendered, Output: out, Registry: reg}
}
