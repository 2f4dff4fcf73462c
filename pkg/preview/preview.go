// Package preview paints computed box geometry to an image.
package preview

import (
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"

	"boxbridge/pkg/registry"

	"github.com/fogleman/gg"
)

// ErrEmptyCanvas is returned when there is nothing to size the canvas from.
var ErrEmptyCanvas = errors.New("preview: canvas has no area")

// DefaultPalette fills boxes by depth, cycling when the tree is deeper.
var DefaultPalette = []color.Color{
	color.RGBA{0xf5, 0xf5, 0xf5, 0xff},
	color.RGBA{0x81, 0xd4, 0xfa, 0xff},
	color.RGBA{0x80, 0xcb, 0xc4, 0xff},
	color.RGBA{0xff, 0xcc, 0x80, 0xff},
	color.RGBA{0xce, 0x93, 0xd8, 0xff},
	color.RGBA{0xa5, 0xd6, 0xa7, 0xff},
}

// Painter draws placements as filled, outlined rectangles.
type Painter struct {
	// Width and Height fix the canvas size. Zero takes the root box's size.
	Width, Height int
	Palette       []color.Color
	Outline       color.Color
	Logger        *slog.Logger
}

// NewPainter returns a Painter with the default palette and a dark outline.
func NewPainter(width, height int) *Painter {
	return &Painter{
		Width:   width,
		Height:  height,
		Palette: DefaultPalette,
		Outline: color.RGBA{0x33, 0x33, 0x33, 0xff},
	}
}

// Paint renders placements, the first of which is taken as the root.
func (p *Painter) Paint(placements []registry.Placement) (image.Image, error) {
	dc, err := p.draw(placements)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// SavePNG renders placements to a PNG file at path.
func (p *Painter) SavePNG(path string, placements []registry.Placement) error {
	dc, err := p.draw(placements)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(path); err != nil {
		return err
	}
	p.logger().Debug("Saved preview", "path", path, "nodes", len(placements))
	return nil
}

// EncodePNG renders placements as PNG to w.
func (p *Painter) EncodePNG(w io.Writer, placements []registry.Placement) error {
	dc, err := p.draw(placements)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func (p *Painter) draw(placements []registry.Placement) (*gg.Context, error) {
	w, h := p.canvasSize(placements)
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyCanvas
	}

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetLineWidth(1)

	for _, pl := range placements {
		l := pl.Layout
		if l.Width <= 0 || l.Height <= 0 {
			continue
		}
		dc.DrawRectangle(float64(pl.AbsLeft), float64(pl.AbsTop), float64(l.Width), float64(l.Height))
		dc.SetColor(p.fill(pl.Depth))
		if p.Outline == nil {
			dc.Fill()
			continue
		}
		dc.FillPreserve()
		dc.SetColor(p.Outline)
		dc.Stroke()
	}
	return dc, nil
}

func (p *Painter) canvasSize(placements []registry.Placement) (int, int) {
	w, h := p.Width, p.Height
	if len(placements) == 0 {
		return w, h
	}
	root := placements[0].Layout
	if w == 0 {
		w = int(math.Ceil(float64(root.Width)))
	}
	if h == 0 {
		h = int(math.Ceil(float64(root.Height)))
	}
	return w, h
}

func (p *Painter) fill(depth int) color.Color {
	palette := p.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return palette[depth%len(palette)]
}

func (p *Painter) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
