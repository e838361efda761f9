// Package terminal draws frames into a tcell screen and turns terminal key
// presses into input events.
package terminal

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-kinetics/pkg/entity"
	"github.com/opd-ai/go-kinetics/pkg/render"
)

// Fill is the rune painted into covered cells.
const Fill = '█'

// Renderer rasterizes recorded draws into terminal cells. Clip space
// (-1..1 on both axes, +Y up) is stretched over the whole screen.
type Renderer struct {
	*render.Frame
	screen     tcell.Screen
	background tcell.Style
}

// NewRenderer creates a renderer on an initialized screen.
func NewRenderer(screen tcell.Screen, clearColor mgl32.Vec3) *Renderer {
	return &Renderer{
		Frame:      render.NewFrame(nil),
		screen:     screen,
		background: tcell.StyleDefault.Background(rgb(clearColor.Vec4(1))),
	}
}

// Present implements entity.Renderer.
func (r *Renderer) Present() error {
	shapes, err := r.Shapes()
	if err != nil {
		return err
	}
	r.screen.Fill(' ', r.background)
	w, h := r.screen.Size()
	for _, s := range shapes {
		r.paint(s, w, h)
	}
	r.screen.Show()
	return nil
}

func (r *Renderer) paint(s render.Shape, w, h int) {
	style := r.background.Foreground(rgb(s.Color))
	for i := 0; i+2 < len(s.Indices); i += 3 {
		a := s.Vertices[s.Indices[i]].Vec2()
		b := s.Vertices[s.Indices[i+1]].Vec2()
		c := s.Vertices[s.Indices[i+2]].Vec2()
		if !r.fillTriangle(a, b, c, w, h, style) {
			// smaller than a cell: mark the cell under its centroid
			centroid := a.Add(b).Add(c).Mul(1.0 / 3)
			if x, y, ok := clipToCell(centroid, w, h); ok {
				r.screen.SetContent(x, y, Fill, nil, style)
			}
		}
	}
}

// fillTriangle paints every cell whose center lies inside abc and reports
// whether any cell was painted.
func (r *Renderer) fillTriangle(a, b, c mgl32.Vec2, w, h int, style tcell.Style) bool {
	minX, minY := cellFloor(min(a.X(), b.X(), c.X()), max(a.Y(), b.Y(), c.Y()), w, h)
	maxX, maxY := cellFloor(max(a.X(), b.X(), c.X()), min(a.Y(), b.Y(), c.Y()), w, h)
	painted := false
	for y := clampInt(minY, 0, h-1); y <= clampInt(maxY, 0, h-1); y++ {
		for x := clampInt(minX, 0, w-1); x <= clampInt(maxX, 0, w-1); x++ {
			if inside(cellCenter(x, y, w, h), a, b, c) {
				r.screen.SetContent(x, y, Fill, nil, style)
				painted = true
			}
		}
	}
	return painted
}

// clipToCell maps a clip-space point to the cell containing it.
func clipToCell(p mgl32.Vec2, w, h int) (int, int, bool) {
	x, y := cellFloor(p.X(), p.Y(), w, h)
	return x, y, x >= 0 && x < w && y >= 0 && y < h
}

func cellFloor(cx, cy float32, w, h int) (int, int) {
	x := int(math.Floor(float64((cx + 1) / 2 * float32(w))))
	y := int(math.Floor(float64((1 - cy) / 2 * float32(h))))
	return x, y
}

func cellCenter(x, y, w, h int) mgl32.Vec2 {
	return mgl32.Vec2{
		(float32(x)+0.5)/float32(w)*2 - 1,
		1 - (float32(y)+0.5)/float32(h)*2,
	}
}

// inside reports whether p lies in triangle abc, for either winding.
func inside(p, a, b, c mgl32.Vec2) bool {
	d1 := edge(a, b, p)
	d2 := edge(b, c, p)
	d3 := edge(c, a, p)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

func edge(a, b, p mgl32.Vec2) float32 {
	return (b.X()-a.X())*(p.Y()-a.Y()) - (b.Y()-a.Y())*(p.X()-a.X())
}

func rgb(c mgl32.Vec4) tcell.Color {
	ch := func(v float32) int32 {
		return int32(mgl32.Clamp(v, 0, 1)*255 + 0.5)
	}
	return tcell.NewRGBColor(ch(c.X()), ch(c.Y()), ch(c.Z()))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

var _ entity.Renderer = (*Renderer)(nil)
