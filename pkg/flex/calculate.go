package flex

import (
	yoga "github.com/kjk/flex"
)

// Config tunes an engine run.
type Config struct {
	// PointScaleFactor snaps results to a 1/PointScaleFactor grid.
	// Zero leaves results unrounded.
	PointScaleFactor float32
}

// DefaultConfig rounds to whole points.
func DefaultConfig() Config {
	return Config{PointScaleFactor: 1}
}

// Calculate lays out the tree rooted at root with DefaultConfig.
func Calculate(root *Node, availableWidth, availableHeight float32, dir Direction) {
	DefaultConfig().Calculate(root, availableWidth, availableHeight, dir)
}

// binding pairs a caller node with the engine node mirroring it.
type binding struct {
	node *Node
	yn   *yoga.Node
}

// Calculate lays out the tree rooted at root. A fixed root width or height
// wins over the available space; an auto one takes the available space, or
// its content size when the available space is Undefined. Every node in the
// tree gets its Layout overwritten.
//
// The engine tree is built fresh on each call, so a *Node listed under
// several parents gets the geometry of its last occurrence.
func (c Config) Calculate(root *Node, availableWidth, availableHeight float32, dir Direction) {
	if root == nil {
		return
	}

	cfg := yoga.NewConfig()
	yoga.ConfigSetPointScaleFactor(cfg, nonNegative(c.PointScaleFactor))

	var bound []binding
	tree := mirror(root, cfg, &bound)
	yoga.CalculateLayout(tree, fixedSize(availableWidth), fixedSize(availableHeight), engineDirection(dir))

	for _, b := range bound {
		b.node.Layout = Layout{
			Left:   b.yn.LayoutGetLeft(),
			Top:    b.yn.LayoutGetTop(),
			Width:  b.yn.LayoutGetWidth(),
			Height: b.yn.LayoutGetHeight(),
		}
	}
}

// mirror builds the engine node for n and its subtree.
func mirror(n *Node, cfg *yoga.Config, bound *[]binding) *yoga.Node {
	yn := yoga.NewNodeWithConfig(cfg)
	applyStyle(yn, n.Style)
	*bound = append(*bound, binding{node: n, yn: yn})
	for i, child := range n.Children {
		yn.InsertChild(mirror(child, cfg, bound), i)
	}
	return yn
}

func applyStyle(yn *yoga.Node, s Style) {
	if s.FlexDirection == Column {
		yn.StyleSetFlexDirection(yoga.FlexDirectionColumn)
	} else {
		yn.StyleSetFlexDirection(yoga.FlexDirectionRow)
	}
	if s.Wrap == WrapLines {
		yn.StyleSetFlexWrap(yoga.WrapWrap)
	} else {
		yn.StyleSetFlexWrap(yoga.WrapNoWrap)
	}
	yn.StyleSetFlexGrow(s.FlexGrow)
	yn.StyleSetFlexShrink(s.FlexShrink)
	if !IsUndefined(s.Width) {
		yn.StyleSetWidth(nonNegative(s.Width))
	}
	if !IsUndefined(s.Height) {
		yn.StyleSetHeight(nonNegative(s.Height))
	}
}

func engineDirection(d Direction) yoga.Direction {
	if d == RTL {
		return yoga.DirectionRTL
	}
	return yoga.DirectionLTR
}

// fixedSize turns a size into one the engine accepts. Negative sizes
// collapse to zero.
func fixedSize(v float32) float32 {
	if IsUndefined(v) {
		return Undefined
	}
	return nonNegative(v)
}

func nonNegative(v float32) float32 {
	if v < 0 {
		return 0
	}
	return v
}
