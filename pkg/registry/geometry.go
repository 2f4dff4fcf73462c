package registry

// Computed returns the geometry of h from the most recent pass that reached
// it. ok is false for unknown handles and for boxes no pass has reached.
func (r *Registry) Computed(h Handle) (ComputedLayout, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.boxes[h]
	if !ok || b.computed == nil {
		return ComputedLayout{}, false
	}
	return *b.computed, true
}

// LayoutOf returns h's geometry keyed by top, left, width and height, or an
// empty map when there is nothing to report. It never fails.
func (r *Registry) LayoutOf(h Handle) map[string]float32 {
	l, ok := r.Computed(h)
	if !ok {
		return map[string]float32{}
	}
	return l.Map()
}

// Placement is one box of the current root's tree with its position
// accumulated from the root's top-left corner.
type Placement struct {
	Handle  Handle
	Depth   int
	Layout  ComputedLayout
	AbsLeft float32
	AbsTop  float32
}

// Placements lists the computed boxes reachable from the current root in
// depth-first pre-order. Subtrees below a box without a layout are left out.
func (r *Registry) Placements() []Placement {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.root == 0 {
		return nil
	}
	var out []Placement
	r.collect(r.root, 0, 0, 0, &out)
	return out
}

func (r *Registry) collect(h Handle, depth int, parentLeft, parentTop float32, out *[]Placement) {
	b := r.boxes[h]
	if b.computed == nil {
		return
	}
	l := *b.computed
	p := Placement{
		Handle:  h,
		Depth:   depth,
		Layout:  l,
		AbsLeft: parentLeft + l.Left,
		AbsTop:  parentTop + l.Top,
	}
	*out = append(*out, p)
	for _, child := range b.children {
		r.collect(child, depth+1, p.AbsLeft, p.AbsTop, out)
	}
}
