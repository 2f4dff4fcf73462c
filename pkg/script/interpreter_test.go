package script

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"boxbridge/pkg/output"
	"boxbridge/pkg/registry"
	"boxbridge/pkg/style"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, opts ...registry.Option) (*Session, *output.MemorySink) {
	t.Helper()
	sink := &output.MemorySink{}
	return NewSession(registry.New(opts...), sink, nil), sink
}

// runJS evaluates src followed by a render() stub so the entry phase passes.
func runJS(t *testing.T, host Host, src string) error {
	t.Helper()
	src += "\nfunction render() { return { node: 0, render: function () { return ''; } }; }"
	return (&GojaInterpreter{}).Run(context.Background(), "test.js", src, host)
}

func TestCreateNodeReturnsFreshHandles(t *testing.T) {
	s, _ := newSession(t)
	err := runJS(t, s, `
		var a = createNode([], {});
		var b = createNode([a], {width: 10});
		if (typeof a !== "number") throw new Error("handle is not a number: " + typeof a);
		if (a === b) throw new Error("handles repeat");
		if (a < 1) throw new Error("handle zero issued");
	`)
	require.NoError(t, err)
}

func TestCreateNodeSkipsJunkChildren(t *testing.T) {
	s, _ := newSession(t)
	err := runJS(t, s, `
		var a = createNode([], {width: 5, height: 5});
		var p = createNode([9999999, "x", null, a, -4, 1.5], {});
	`)
	require.NoError(t, err)

	root, err := s.Registry().CurrentRoot()
	require.NoError(t, err)
	children, ok := s.Registry().Children(root)
	require.True(t, ok)
	assert.Equal(t, []registry.Handle{1}, children)
}

func TestCreateNodeAcceptsMissingArguments(t *testing.T) {
	s, _ := newSession(t)
	require.NoError(t, runJS(t, s, `createNode();`))

	h, err := s.Registry().CurrentRoot()
	require.NoError(t, err)
	st, _ := s.Registry().Style(h)
	assert.Equal(t, style.Default(), st)
}

func TestCreateNodeThrowsOnStyleMismatch(t *testing.T) {
	s, _ := newSession(t)
	err := runJS(t, s, `
		var caught = null;
		try {
			createNode([], {width: "wide"});
		} catch (e) {
			caught = e;
		}
		if (caught === null) throw new Error("expected a throw");
		if (String(caught).indexOf("width") < 0) throw new Error("error does not name the key: " + caught);
	`)
	require.NoError(t, err)
	assert.Zero(t, s.Registry().Len())
}

func TestCreateNodeLenientDefaults(t *testing.T) {
	s, _ := newSession(t, registry.WithPolicy(style.Lenient))
	err := runJS(t, s, `
		var h = createNode([], {width: "wide", height: 20});
		calculateLayout();
		var l = getLayout(h);
		if (l.height !== 20) throw new Error("height: " + l.height);
		if (l.width !== 0) throw new Error("width: " + l.width);
	`)
	require.NoError(t, err)
}

func TestGetLayoutRoundTrip(t *testing.T) {
	s, _ := newSession(t)
	err := runJS(t, s, `
		var h1 = createNode([], {width: 100, height: 50});
		if (Object.keys(getLayout(h1)).length !== 0) throw new Error("layout before any pass");
		calculateLayout(h1);
		var l = getLayout(h1);
		if (l.top !== 0 || l.left !== 0) throw new Error("origin: " + JSON.stringify(l));
		if (l.width !== 100 || l.height !== 50) throw new Error("size: " + JSON.stringify(l));
		if (Object.keys(getLayout(4242)).length !== 0) throw new Error("unknown handle has layout");
		if (Object.keys(getLayout("nope")).length !== 0) throw new Error("string handle has layout");
	`)
	require.NoError(t, err)
}

func TestCalculateLayoutIgnoresArgument(t *testing.T) {
	s, _ := newSession(t)
	err := runJS(t, s, `
		var inner = createNode([], {width: 30, height: 30});
		var outer = createNode([inner], {width: 60, height: 60});
		calculateLayout(inner);
		if (getLayout(outer).width !== 60) throw new Error("layout did not start at the root");
	`)
	require.NoError(t, err)
}

func TestWriteDataPersists(t *testing.T) {
	s, sink := newSession(t)
	require.NoError(t, runJS(t, s, `writeData("<div></div>"); writeData("<p>é</p>");`))

	assert.Equal(t, "<p>é</p>", sink.Text())
	assert.Equal(t, 2, sink.Writes())
	out, ok := s.Output()
	assert.True(t, ok)
	assert.Equal(t, "<p>é</p>", out)
}

func TestWriteDataFailureIsFatal(t *testing.T) {
	sink := output.NewFileSink(t.TempDir() + "/missing/dir/layout.html")
	s := NewSession(registry.New(), sink, nil)
	err := (&GojaInterpreter{}).Run(context.Background(), "x.js", `
		try { writeData("x"); } catch (e) {}
		var swallowed = true;
	`, s)
	var ie *InterpreterError
	require.True(t, errors.As(err, &ie))
	assert.ErrorIs(t, err, ErrNoEntryPoint, "the script itself swallowed the exception")

	var writeErr *output.OutputWriteError
	assert.True(t, errors.As(s.Fatal(), &writeErr))
}

func TestPrintLogsUnderScriptGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := NewSession(registry.New(), &output.MemorySink{}, logger)

	require.NoError(t, runJS(t, s, `print("hello from js");`))
	assert.Contains(t, buf.String(), `script.msg="hello from js"`)
	assert.Zero(t, s.Registry().Len())
}

func TestPreludeRendersMarkup(t *testing.T) {
	s, sink := newSession(t)
	err := (&GojaInterpreter{}).Run(context.Background(), "app.js", `
		function render() {
			return createElement(View, {style: {width: 100, height: 50, flexDirection: "column"}},
				createElement(View, {style: {flexGrow: 1, background: "red"}}),
				[createElement(View, {style: {height: 10}})],
				null);
		}
	`, s)
	require.NoError(t, err)

	want := `<div style="position:absolute;background:#ffffff;top:0px;left:0px;width:100px;height:50px;">` +
		`<div style="position:absolute;background:red;top:0px;left:0px;width:100px;height:40px;"></div>` +
		`<div style="position:absolute;background:#ffffff;top:40px;left:0px;width:100px;height:10px;"></div>` +
		`</div>`
	assert.Equal(t, want, sink.Text())
}

func TestPreludeFragmentFlattens(t *testing.T) {
	s, _ := newSession(t)
	err := runJS(t, s, `
		var v = createElement(View, null,
			createElement(Fragment, null,
				createElement(View, null),
				createElement(View, null)));
		if (v.children.length !== 2) throw new Error("children: " + v.children.length);
	`)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Registry().Len())
}

func TestRunWithoutPrelude(t *testing.T) {
	s, _ := newSession(t)
	err := (&GojaInterpreter{NoPrelude: true}).Run(context.Background(), "bare.js", `
		if (typeof View !== "undefined") throw new Error("prelude loaded");
		function render() { return {node: createNode([], {}), render: function () { return "ok"; }}; }
	`, s)
	require.NoError(t, err)
	out, _ := s.Output()
	assert.Equal(t, "ok", out)
}

func TestRunReportsPhase(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		phase string
		is    error
	}{
		{"syntax", `function render( {`, PhaseScript, nil},
		{"throw at load", `throw new Error("boom");`, PhaseScript, nil},
		{"no entry", `var x = 1;`, PhaseEntry, ErrNoEntryPoint},
		{"render throws", `function render() { throw new Error("bad"); }`, PhaseEntry, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSession(t)
			err := (&GojaInterpreter{}).Run(context.Background(), "x.js", tt.src, s)
			var ie *InterpreterError
			require.True(t, errors.As(err, &ie), "got %v", err)
			assert.Equal(t, tt.phase, ie.Phase)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestRunUncaughtStyleErrorKeepsCause(t *testing.T) {
	s, _ := newSession(t)
	err := (&GojaInterpreter{}).Run(context.Background(), "x.js", `
		function render() { return createElement(View, {style: {flexDirection: "diagonal"}}); }
	`, s)
	var typeErr *style.StyleTypeError
	require.True(t, errors.As(err, &typeErr), "got %v", err)
	assert.Equal(t, "flexDirection", typeErr.Key)
}

func TestRunCaughtStyleErrorIsNotTheCause(t *testing.T) {
	s, _ := newSession(t)
	err := (&GojaInterpreter{}).Run(context.Background(), "x.js", `
		try { createNode([], {width: "wide"}); } catch (e) {}
		throw new Error("unrelated");
	`, s)
	var ie *InterpreterError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, PhaseScript, ie.Phase)
	assert.Nil(t, ie.Cause)
	assert.Contains(t, err.Error(), "unrelated")

	var typeErr *style.StyleTypeError
	assert.False(t, errors.As(err, &typeErr))
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := newSession(t)
	err := (&GojaInterpreter{}).Run(ctx, "spin.js", `while (true) {}`, s)
	assert.ErrorIs(t, err, context.Canceled)
}
