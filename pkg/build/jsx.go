package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// JSX factory names the prelude runtime defines.
const (
	DefaultJSXFactory  = "createElement"
	DefaultJSXFragment = "Fragment"
)

// JSXBuilder compiles a JSX source file in-process with esbuild, calling
// Factory for every element.
type JSXBuilder struct {
	Factory  string
	Fragment string
}

func (b JSXBuilder) Build(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &BuildPipelineError{Source: source, Err: err}
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", &BuildPipelineError{Source: source, Err: err}
	}
	return b.Transform(source, string(data))
}

// Transform compiles JSX text; name is only used in messages.
func (b JSXBuilder) Transform(name, text string) (string, error) {
	factory, fragment := b.Factory, b.Fragment
	if factory == "" {
		factory = DefaultJSXFactory
	}
	if fragment == "" {
		fragment = DefaultJSXFragment
	}

	result := api.Transform(text, api.TransformOptions{
		Loader:      api.LoaderJSX,
		JSX:         api.JSXTransform,
		JSXFactory:  factory,
		JSXFragment: fragment,
		Target:      api.ES2015,
		Sourcefile:  name,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			if m.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
			} else {
				msgs = append(msgs, m.Text)
			}
		}
		return "", &BuildPipelineError{Source: name, Err: errors.New(strings.Join(msgs, "; "))}
	}
	return string(result.Code), nil
}
