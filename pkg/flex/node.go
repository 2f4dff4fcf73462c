// Package flex describes box trees for the Yoga layout engine. It knows
// nothing about handles or scripts: callers build a tree of *Node, call
// Calculate on the root, and read each node's Layout back.
//
// Supported inputs are the main axis (row or column), wrapping, grow and
// shrink factors, and fixed or automatic width and height. Everything else
// keeps Yoga's defaults: items stretch on the cross axis, and both items and
// wrapped lines pack at the start.
package flex

import "math"

// Undefined marks a size that is not known. It is a NaN, so compare with
// IsUndefined rather than ==.
var Undefined = float32(math.NaN())

// IsUndefined reports whether v is Undefined.
func IsUndefined(v float32) bool {
	return v != v
}

// Direction is the writing direction of a layout pass.
type Direction uint8

const (
	LTR Direction = iota
	RTL
)

// FlexDirection is the main axis of a container.
type FlexDirection uint8

const (
	Row FlexDirection = iota
	Column
)

// Wrap controls line breaking of a container's children.
type Wrap uint8

const (
	NoWrap Wrap = iota
	WrapLines
)

// Style holds the inputs the engine reads from a node.
type Style struct {
	FlexDirection FlexDirection
	Wrap          Wrap
	FlexGrow      float32
	FlexShrink    float32
	Width         float32 // Undefined means auto
	Height        float32 // Undefined means auto
}

// DefaultStyle returns a row, non-wrapping, auto-sized style with shrink 1.
func DefaultStyle() Style {
	return Style{
		FlexDirection: Row,
		Wrap:          NoWrap,
		FlexShrink:    1,
		Width:         Undefined,
		Height:        Undefined,
	}
}

// Layout is the computed geometry of a node. Left and Top are relative to the
// parent's top-left corner.
type Layout struct {
	Left   float32
	Top    float32
	Width  float32
	Height float32
}

// Node is an element of the tree handed to the engine.
type Node struct {
	Style    Style
	Children []*Node
	Layout   Layout
}

// NewNode creates a node with the given style and children.
func NewNode(style Style, children ...*Node) *Node {
	return &Node{Style: style, Children: children}
}

// Append adds children at the end of n's child list.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}
