// Package style turns the loosely-typed property bag a script passes to
// createNode into a typed Style record.
package style

import (
	"fmt"
	"math"
	"strconv"
)

// Known property keys. Anything else in a property bag is ignored.
const (
	KeyFlexDirection = "flexDirection"
	KeyFlexWrap      = "flexWrap"
	KeyFlexGrow      = "flexGrow"
	KeyFlexShrink    = "flexShrink"
	KeyWidth         = "width"
	KeyHeight        = "height"
)

// FlexDirection is the main axis of a box.
type FlexDirection string

const (
	FlexDirectionRow    FlexDirection = "row"
	FlexDirectionColumn FlexDirection = "column"
)

// FlexWrap controls whether children may break onto several lines.
type FlexWrap string

const (
	FlexWrapNoWrap FlexWrap = "nowrap"
	FlexWrapWrap   FlexWrap = "wrap"
)

// Unit tells whether a Dimension carries a value.
type Unit uint8

const (
	UnitAuto Unit = iota
	UnitPoint
)

// Dimension is either Auto or a fixed number of points.
type Dimension struct {
	Unit  Unit
	Value float32
}

// Auto returns an unconstrained dimension.
func Auto() Dimension {
	return Dimension{Unit: UnitAuto}
}

// Point returns a fixed dimension of v points.
func Point(v float32) Dimension {
	return Dimension{Unit: UnitPoint, Value: v}
}

// IsAuto reports whether d has no fixed value.
func (d Dimension) IsAuto() bool {
	return d.Unit == UnitAuto
}

func (d Dimension) String() string {
	if d.IsAuto() {
		return "auto"
	}
	return strconv.FormatFloat(float64(d.Value), 'g', -1, 32)
}

// Style is the resolved layout record of a box.
type Style struct {
	FlexDirection FlexDirection
	FlexWrap      FlexWrap
	FlexGrow      float32
	FlexShrink    float32
	Width         Dimension
	Height        Dimension
}

// Default returns the style of a box created with an empty property bag.
func Default() Style {
	return Style{
		FlexDirection: FlexDirectionRow,
		FlexWrap:      FlexWrapNoWrap,
		FlexGrow:      0,
		FlexShrink:    1,
		Width:         Auto(),
		Height:        Auto(),
	}
}

// Policy decides what happens when a known key holds a value of the wrong type.
type Policy uint8

const (
	// Strict fails the whole resolution with a *StyleTypeError.
	Strict Policy = iota
	// Lenient substitutes the field's default.
	Lenient
)

func (p Policy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// ParsePolicy maps a config value to a Policy. The empty string is Strict.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	}
	return Strict, fmt.Errorf("unknown style policy %q", s)
}

// StyleTypeError reports a known key whose value cannot be coerced.
type StyleTypeError struct {
	Key   string
	Value any
	Want  string
}

func (e *StyleTypeError) Error() string {
	return fmt.Sprintf("style %s: cannot use %v (%T) as %s", e.Key, e.Value, e.Value, e.Want)
}

// Resolve reads every known key of props and returns the typed style.
// Keys are checked in a fixed order so a Strict failure always names the
// same key for the same input. A nil value counts as absent.
func Resolve(props map[string]any, policy Policy) (Style, error) {
	s := Default()
	r := resolver{props: props, policy: policy}

	if v, ok := r.lookup(KeyFlexDirection); ok {
		if d, good := toDirection(v); good {
			s.FlexDirection = d
		} else if r.fail(KeyFlexDirection, v, "row|column") {
			return Style{}, r.err
		}
	}
	if v, ok := r.lookup(KeyFlexWrap); ok {
		if w, good := toWrap(v); good {
			s.FlexWrap = w
		} else if r.fail(KeyFlexWrap, v, "nowrap|wrap") {
			return Style{}, r.err
		}
	}
	if v, ok := r.lookup(KeyFlexGrow); ok {
		if f, good := toFloat32(v); good {
			s.FlexGrow = f
		} else if r.fail(KeyFlexGrow, v, "number") {
			return Style{}, r.err
		}
	}
	if v, ok := r.lookup(KeyFlexShrink); ok {
		if f, good := toFloat32(v); good {
			s.FlexShrink = f
		} else if r.fail(KeyFlexShrink, v, "number") {
			return Style{}, r.err
		}
	}
	if v, ok := r.lookup(KeyWidth); ok {
		if d, good := toDimension(v); good {
			s.Width = d
		} else if r.fail(KeyWidth, v, "number|auto") {
			return Style{}, r.err
		}
	}
	if v, ok := r.lookup(KeyHeight); ok {
		if d, good := toDimension(v); good {
			s.Height = d
		} else if r.fail(KeyHeight, v, "number|auto") {
			return Style{}, r.err
		}
	}
	return s, nil
}

type resolver struct {
	props  map[string]any
	policy Policy
	err    error
}

func (r *resolver) lookup(key string) (any, bool) {
	v, ok := r.props[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// fail records a mismatch and reports whether resolution must stop.
func (r *resolver) fail(key string, v any, want string) bool {
	if r.policy == Lenient {
		return false
	}
	r.err = &StyleTypeError{Key: key, Value: v, Want: want}
	return true
}

func toDirection(v any) (FlexDirection, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	switch FlexDirection(s) {
	case FlexDirectionRow, FlexDirectionColumn:
		return FlexDirection(s), true
	}
	return "", false
}

func toWrap(v any) (FlexWrap, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	switch s {
	case "nowrap", "noWrap":
		return FlexWrapNoWrap, true
	case "wrap":
		return FlexWrapWrap, true
	}
	return "", false
}

func toDimension(v any) (Dimension, bool) {
	if s, ok := v.(string); ok {
		if s == "auto" {
			return Auto(), true
		}
		return Dimension{}, false
	}
	f, ok := toFloat32(v)
	if !ok {
		return Dimension{}, false
	}
	return Point(f), true
}

// toFloat32 narrows any Go numeric value. The layout engine works in 32-bit
// floats so precision beyond that is dropped here, once.
func toFloat32(v any) (float32, bool) {
	switch n := v.(type) {
	case float64:
		return float32(n), true
	case float32:
		return n, true
	case int:
		return float32(n), true
	case int8:
		return float32(n), true
	case int16:
		return float32(n), true
	case int32:
		return float32(n), true
	case int64:
		return float32(n), true
	case uint:
		return float32(n), true
	case uint8:
		return float32(n), true
	case uint16:
		return float32(n), true
	case uint32:
		return float32(n), true
	case uint64:
		return float32(n), true
	}
	return float32(math.NaN()), false
}
