package registry

import (
	"time"

	"boxbridge/pkg/flex"
	"boxbridge/pkg/style"
)

// Geometry keys used by ComputedLayout.Map.
const (
	KeyTop    = "top"
	KeyLeft   = "left"
	KeyWidth  = "width"
	KeyHeight = "height"
)

// ComputedLayout is the geometry a layout pass assigned to a box. Top and
// Left are relative to the parent box the pass reached it through.
type ComputedLayout struct {
	Top    float32
	Left   float32
	Width  float32
	Height float32
}

// Map returns the layout keyed by top, left, width and height.
func (l ComputedLayout) Map() map[string]float32 {
	return map[string]float32{
		KeyTop:    l.Top,
		KeyLeft:   l.Left,
		KeyWidth:  l.Width,
		KeyHeight: l.Height,
	}
}

// placement pairs a handle with the engine node built for it in one pass.
type placement struct {
	handle Handle
	node   *flex.Node
}

// ComputeLayout runs the layout engine over everything reachable from the
// current root. The root's own width and height are the available space; an
// auto dimension is passed as unconstrained. Without a root it does nothing.
//
// The engine tree is rebuilt from the stored styles on every call, so
// repeated passes over an unchanged registry give identical geometry. Boxes
// the pass does not reach keep whatever layout they had.
func (r *Registry) ComputeLayout() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.root == 0 {
		r.logger.Debug("Layout skipped, registry is empty")
		return
	}

	start := time.Now()
	var order []placement
	tree := r.buildNode(r.root, &order)

	rootStyle := r.boxes[r.root].style
	r.engine.Calculate(tree, available(rootStyle.Width), available(rootStyle.Height), r.dir)

	for _, p := range order {
		l := p.node.Layout
		r.boxes[p.handle].computed = &ComputedLayout{
			Top:    l.Top,
			Left:   l.Left,
			Width:  l.Width,
			Height: l.Height,
		}
	}

	r.passes++
	elapsed := time.Since(start)
	r.recorder.ObserveLayoutPass(len(order), elapsed)
	r.logger.Debug("Computed layout", "root", r.root, "nodes", len(order), "duration", elapsed)
}

// Passes returns the number of completed layout passes.
func (r *Registry) Passes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.passes
}

// buildNode converts the box at h and its subtree into engine nodes,
// appending every visit to order in depth-first pre-order. Create keeps the
// boxes a forest, so each handle is visited at most once.
func (r *Registry) buildNode(h Handle, order *[]placement) *flex.Node {
	b := r.boxes[h]
	n := flex.NewNode(engineStyle(b.style))
	*order = append(*order, placement{handle: h, node: n})
	for _, child := range b.children {
		n.Append(r.buildNode(child, order))
	}
	return n
}

func engineStyle(s style.Style) flex.Style {
	out := flex.Style{
		FlexDirection: flex.Row,
		Wrap:          flex.NoWrap,
		FlexGrow:      s.FlexGrow,
		FlexShrink:    s.FlexShrink,
		Width:         available(s.Width),
		Height:        available(s.Height),
	}
	if s.FlexDirection == style.FlexDirectionColumn {
		out.FlexDirection = flex.Column
	}
	if s.FlexWrap == style.FlexWrapWrap {
		out.Wrap = flex.WrapLines
	}
	return out
}

func available(d style.Dimension) float32 {
	if d.IsAuto() {
		return flex.Undefined
	}
	return d.Value
}
