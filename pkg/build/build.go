// Package build turns a UI description source into script text the
// interpreter can evaluate.
package build

import (
	"context"
	"fmt"
	"strings"
)

// Builder produces evaluable script text for a source path.
type Builder interface {
	Build(ctx context.Context, source string) (string, error)
}

// BuildPipelineError reports that no script could be produced for Source.
type BuildPipelineError struct {
	Source string
	Stderr string
	Err    error
}

func (e *BuildPipelineError) Error() string {
	msg := fmt.Sprintf("build %s: %v", e.Source, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + firstLine(stderr)
	}
	return msg
}

func (e *BuildPipelineError) Unwrap() error {
	return e.Err
}

// StripHeader drops the first n lines of text. Build tools such as npm print
// a banner ahead of the bundle on stdout.
func StripHeader(text string, n int) string {
	if n <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if n >= len(lines) {
		return ""
	}
	return strings.Join(lines[n:], "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
