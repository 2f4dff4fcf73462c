// Package script evaluates built UI-description scripts against a registry
// session and persists what they render.
package script

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"boxbridge/pkg/registry"

	"github.com/dop251/goja"
)

//go:embed prelude.js
var prelude string

// Prelude returns the runtime source evaluated ahead of every script.
func Prelude() string {
	return prelude
}

// Evaluation phases reported by InterpreterError.
const (
	PhasePrelude = "prelude"
	PhaseScript  = "script"
	PhaseEntry   = "entry"
)

// ErrNoEntryPoint is returned when the script defines no render function.
var ErrNoEntryPoint = errors.New("script defines no render() entry point")

// InterpreterError reports that a script could not be evaluated. Cause is the
// Go error a host function raised, when that is what ended the phase.
type InterpreterError struct {
	Phase string
	Err   error
	Cause error
}

func (e *InterpreterError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *InterpreterError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// Interpreter evaluates script text with a host function table bound.
type Interpreter interface {
	Run(ctx context.Context, name, src string, host Host) error
}

// entry drives a script that exposes render() returning a View tree.
const entry = `(function () {
	if (typeof render !== 'function') {
		return false;
	}
	const root = render();
	calculateLayout(root.node);
	writeData(root.render());
	return true;
})()`

// GojaInterpreter runs scripts in a fresh goja runtime per call.
type GojaInterpreter struct {
	// NoPrelude skips the View/createElement runtime.
	NoPrelude bool
	Logger    *slog.Logger
}

func (g *GojaInterpreter) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// Run evaluates the prelude, then src, then calls render(), lays out the
// returned tree and writes its markup. Cancelling ctx interrupts the script.
func (g *GojaInterpreter) Run(ctx context.Context, name, src string, host Host) error {
	vm := goja.New()
	b := &binding{vm: vm, host: host, logger: g.logger()}
	b.register()

	if done := ctx.Done(); done != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-done:
				vm.Interrupt(ctx.Err())
			case <-stop:
			}
		}()
	}

	if !g.NoPrelude {
		if _, err := vm.RunScript("prelude.js", prelude); err != nil {
			return b.fail(ctx, PhasePrelude, err)
		}
	}
	if _, err := vm.RunScript(name, src); err != nil {
		return b.fail(ctx, PhaseScript, err)
	}
	ran, err := vm.RunScript("entry", entry)
	if err != nil {
		return b.fail(ctx, PhaseEntry, err)
	}
	if !ran.ToBoolean() {
		return &InterpreterError{Phase: PhaseEntry, Err: ErrNoEntryPoint}
	}
	return nil
}

// binding exposes a Host as JS globals.
type binding struct {
	vm     *goja.Runtime
	host   Host
	logger *slog.Logger
}

func (b *binding) register() {
	b.vm.Set("createNode", b.createNode)
	b.vm.Set("calculateLayout", b.calculateLayout)
	b.vm.Set("getLayout", b.getLayout)
	b.vm.Set("writeData", b.writeData)
	b.vm.Set("print", b.print)
	b.vm.Set("__trace", b.trace)
}

func (b *binding) throw(err error) {
	panic(b.vm.NewGoError(err))
}

func (b *binding) fail(ctx context.Context, phase string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &InterpreterError{Phase: phase, Err: ctxErr}
	}
	return &InterpreterError{Phase: phase, Err: err, Cause: hostCause(err)}
}

// hostCause returns the Go error carried by the exception that escaped the
// script, or nil when the script threw something of its own. A host error
// the script caught earlier is not reported.
func hostCause(err error) error {
	var exc *goja.Exception
	if !errors.As(err, &exc) {
		return nil
	}
	obj, ok := exc.Value().(*goja.Object)
	if !ok {
		return nil
	}
	v := obj.Get("value")
	if v == nil {
		return nil
	}
	cause, _ := v.Export().(error)
	return cause
}

func (b *binding) createNode(call goja.FunctionCall) goja.Value {
	children := handles(call.Argument(0).Export())
	props, _ := call.Argument(1).Export().(map[string]any)
	h, err := b.host.CreateNode(children, props)
	if err != nil {
		b.throw(err)
	}
	return b.vm.ToValue(int64(h))
}

// calculateLayout ignores its arguments; layout always starts at the current
// root.
func (b *binding) calculateLayout(goja.FunctionCall) goja.Value {
	b.host.CalculateLayout()
	return goja.Undefined()
}

func (b *binding) getLayout(call goja.FunctionCall) goja.Value {
	obj := b.vm.NewObject()
	h, ok := handle(call.Argument(0).Export())
	if !ok {
		return obj
	}
	for k, v := range b.host.GetLayout(h) {
		obj.Set(k, float64(v))
	}
	return obj
}

func (b *binding) writeData(call goja.FunctionCall) goja.Value {
	if err := b.host.WriteData(call.Argument(0).String()); err != nil {
		b.throw(err)
	}
	return goja.Undefined()
}

func (b *binding) print(call goja.FunctionCall) goja.Value {
	b.host.Print(call.Argument(0).String())
	return goja.Undefined()
}

func (b *binding) trace(call goja.FunctionCall) goja.Value {
	b.logger.Debug("createElement", "props", call.Argument(0).String())
	return goja.Undefined()
}

// handles converts an exported JS array to handles. Entries that are not
// non-negative integers become the zero handle, which never resolves.
func handles(v any) []registry.Handle {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]registry.Handle, len(list))
	for i, item := range list {
		out[i], _ = handle(item)
	}
	return out
}

func handle(v any) (registry.Handle, bool) {
	switch n := v.(type) {
	case int64:
		if n > 0 {
			return registry.Handle(n), true
		}
	case float64:
		if n > 0 && n == math.Trunc(n) && n <= math.MaxInt64 {
			return registry.Handle(n), true
		}
	}
	return 0, false
}
