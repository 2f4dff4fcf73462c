// Package registry stores the boxes a script builds, runs layout passes over
// the current root, and hands computed geometry back by handle.
//
// A Registry is a session value: every operation goes through it and two
// registries never share state. Boxes live in a table keyed by Handle; a
// handle is a counter value and never an address, so a stale or forged
// handle can only miss, never alias another box.
package registry

import (
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"boxbridge/pkg/flex"
	"boxbridge/pkg/metrics"
	"boxbridge/pkg/style"

	"github.com/google/uuid"
)

// ErrEmptyRegistry is returned by CurrentRoot before any box exists.
var ErrEmptyRegistry = errors.New("registry: no box has been created")

// Handle identifies a box within one Registry. The zero Handle is never
// issued.
type Handle uint64

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h), 10)
}

// Engine is the box-layout engine driven by ComputeLayout.
// flex.Config, backed by Yoga, satisfies it.
type Engine interface {
	Calculate(root *flex.Node, availableWidth, availableHeight float32, dir flex.Direction)
}

// box is immutable after Create except for computed, which each layout pass
// that reaches it replaces.
type box struct {
	style    style.Style
	children []Handle
	computed *ComputedLayout
}

// Registry owns all boxes of a session plus the current root.
type Registry struct {
	mu    sync.Mutex
	id    string
	last  Handle
	boxes map[Handle]*box
	root  Handle
	// adopted holds every handle already listed as some box's child.
	adopted map[Handle]struct{}

	policy   style.Policy
	engine   Engine
	dir      flex.Direction
	logger   *slog.Logger
	recorder metrics.Recorder
	passes   int
}

// Option configures a Registry.
type Option func(*Registry)

// WithPolicy sets how style type mismatches are handled. Default style.Strict.
func WithPolicy(p style.Policy) Option {
	return func(r *Registry) { r.policy = p }
}

// WithEngine replaces the layout engine. Default flex.DefaultConfig().
func WithEngine(e Engine) Option {
	return func(r *Registry) { r.engine = e }
}

// WithDirection sets the writing direction of layout passes. Default LTR.
func WithDirection(d flex.Direction) Option {
	return func(r *Registry) { r.dir = d }
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithRecorder sets the metrics recorder. Default metrics.NoopRecorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Registry) { r.recorder = rec }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		id:       uuid.NewString(),
		boxes:    make(map[Handle]*box),
		adopted:  make(map[Handle]struct{}),
		policy:   style.Strict,
		engine:   flex.DefaultConfig(),
		dir:      flex.LTR,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("session", r.id)
	return r
}

// ID returns the session id used in log lines.
func (r *Registry) ID() string {
	return r.id
}

// Create registers a new box and makes it the current root.
//
// props is resolved with the registry's style policy; under style.Strict a
// mismatch fails the call with a *style.StyleTypeError and nothing is stored.
// Children that do not resolve to a box, or that already belong to another
// box (including an earlier slot of this same call), are skipped, keeping the
// order of the rest. Every box therefore has at most one parent and the
// stored boxes form a forest.
func (r *Registry) Create(children []Handle, props map[string]any) (Handle, error) {
	s, err := style.Resolve(props, r.policy)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.last++
	h := r.last
	b := &box{style: s, children: make([]Handle, 0, len(children))}
	skipped, adopted := 0, 0
	for _, child := range children {
		if _, ok := r.boxes[child]; !ok {
			skipped++
			continue
		}
		if _, taken := r.adopted[child]; taken {
			adopted++
			continue
		}
		r.adopted[child] = struct{}{}
		b.children = append(b.children, child)
	}

	r.boxes[h] = b
	r.root = h

	r.recorder.IncNodesCreated()
	if skipped > 0 {
		r.recorder.IncChildrenSkipped(skipped)
		r.logger.Debug("Skipped unknown child handles", "handle", h, "skipped", skipped)
	}
	if adopted > 0 {
		r.recorder.IncChildrenSkipped(adopted)
		r.logger.Warn("Skipped child handles that already have a parent", "handle", h, "skipped", adopted)
	}
	r.logger.Debug("Created box", "handle", h, "children", len(b.children))
	return h, nil
}

// CurrentRoot returns the most recently created handle.
func (r *Registry) CurrentRoot() (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.root == 0 {
		return 0, ErrEmptyRegistry
	}
	return r.root, nil
}

// Len returns the number of boxes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boxes)
}

// Style returns the resolved style of h.
func (r *Registry) Style(h Handle) (style.Style, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.boxes[h]
	if !ok {
		return style.Style{}, false
	}
	return b.style, true
}

// Children returns a copy of h's child handles.
func (r *Registry) Children(h Handle) ([]Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.boxes[h]
	if !ok {
		return nil, false
	}
	out := make([]Handle, len(b.children))
	copy(out, b.children)
	return out, true
}
