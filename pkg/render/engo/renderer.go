// pkg/render/engo/renderer.go
package engo

import (
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-kinetics/pkg/entity"
	"github.com/opd-ai/go-kinetics/pkg/render"
)

// sprite is the engo entity standing in for one uniform slot.
type sprite struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent

	z float32
}

// Renderer implements entity.Renderer on top of engo's RenderSystem. Each
// recorded draw becomes a rectangle covering the shape's bounds.
type Renderer struct {
	*render.Frame

	renderSystem *common.RenderSystem
	sprites      map[int]*sprite
	width        float32
	height       float32
}

// NewRenderer creates a renderer for a width x height pixel canvas.
func NewRenderer(width, height float32) *Renderer {
	return &Renderer{
		Frame:   render.NewFrame(nil),
		sprites: make(map[int]*sprite),
		width:   width,
		height:  height,
	}
}

// Attach hands the renderer the scene's render system. Sprites created
// earlier are added to it.
func (r *Renderer) Attach(rs *common.RenderSystem) {
	r.renderSystem = rs
	for _, s := range r.sprites {
		rs.Add(&s.BasicEntity, &s.RenderComponent, &s.SpaceComponent)
		s.SetZIndex(s.z)
	}
}

// SetViewport changes the canvas size used to map clip space to pixels.
func (r *Renderer) SetViewport(width, height float32) {
	r.width = width
	r.height = height
}

// Present implements entity.Renderer. Slots not drawn this frame are
// hidden rather than removed.
func (r *Renderer) Present() error {
	shapes, err := r.Shapes()
	if err != nil {
		return err
	}
	for _, s := range r.sprites {
		s.Hidden = true
	}
	for i, shape := range shapes {
		s := r.spriteFor(shape.Slot)
		lo, hi := r.bounds(shape.Vertices)
		s.Position = lo
		s.Width = hi.X - lo.X
		s.Height = hi.Y - lo.Y
		s.Color = rgba(shape.Color)
		s.Hidden = false
		r.setZ(s, float32(i))
	}
	return nil
}

// setZ reorders s only when its depth rank changed. RenderComponent.SetZIndex
// notifies engo's mailbox, which exists only once the scene runs.
func (r *Renderer) setZ(s *sprite, z float32) {
	if s.z == z {
		return
	}
	s.z = z
	if r.renderSystem != nil {
		s.SetZIndex(z)
	}
}

func (r *Renderer) spriteFor(slot int) *sprite {
	if s, ok := r.sprites[slot]; ok {
		return s
	}
	s := &sprite{BasicEntity: ecs.NewBasic()}
	s.RenderComponent = common.RenderComponent{Drawable: common.Rectangle{}}
	r.sprites[slot] = s
	if r.renderSystem != nil {
		r.renderSystem.Add(&s.BasicEntity, &s.RenderComponent, &s.SpaceComponent)
	}
	return s
}

// bounds returns the screen-space box around verts.
func (r *Renderer) bounds(verts []mgl32.Vec3) (engo.Point, engo.Point) {
	if len(verts) == 0 {
		return engo.Point{}, engo.Point{}
	}
	lo := r.toScreen(verts[0])
	hi := lo
	for _, v := range verts[1:] {
		p := r.toScreen(v)
		lo.X, lo.Y = min(lo.X, p.X), min(lo.Y, p.Y)
		hi.X, hi.Y = max(hi.X, p.X), max(hi.Y, p.Y)
	}
	return lo, hi
}

// toScreen maps clip space (y up, [-1, 1]) to pixels (y down).
func (r *Renderer) toScreen(v mgl32.Vec3) engo.Point {
	return engo.Point{
		X: (v.X() + 1) / 2 * r.width,
		Y: (1 - v.Y()) / 2 * r.height,
	}
}

func rgba(c mgl32.Vec4) color.RGBA {
	return color.RGBA{
		R: channel(c.X()),
		G: channel(c.Y()),
		B: channel(c.Z()),
		A: channel(c.W()),
	}
}

func channel(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}

var _ entity.Renderer = (*Renderer)(nil)
