package build

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"
)

// DefaultCommand is the bundler invocation the source path is appended to.
var DefaultCommand = []string{"npm", "run", "build"}

// CommandBuilder runs an external bundler and returns its standard output.
type CommandBuilder struct {
	Command []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

// Build runs Command with source appended as the last argument.
func (b *CommandBuilder) Build(ctx context.Context, source string) (string, error) {
	command := b.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, command[1:]...), source)
	cmd := exec.CommandContext(ctx, command[0], args...)
	cmd.Dir = b.Dir
	if len(b.Env) > 0 {
		cmd.Env = b.Env
	}

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = errors.Join(err, ctxErr)
		}
		return "", &BuildPipelineError{Source: source, Stderr: errBuf.String(), Err: err}
	}
	slog.Debug("Build command finished", "command", command[0], "path", source,
		"bytes", outBuf.Len(), "duration", time.Since(start))
	return outBuf.String(), nil
}
