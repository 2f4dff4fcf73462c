package build

import (
	"context"
	"os"
)

// FileBuilder reads an already-built script from disk.
type FileBuilder struct{}

func (FileBuilder) Build(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &BuildPipelineError{Source: source, Err: err}
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", &BuildPipelineError{Source: source, Err: err}
	}
	return string(data), nil
}
