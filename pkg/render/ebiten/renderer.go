package ebiten

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/go-kinetics/pkg/entity"
	"github.com/opd-ai/go-kinetics/pkg/render"
)

// maxBatchVertices is how many vertices one uint16-indexed DrawTriangles
// call can address.
const maxBatchVertices = 1 << 16

// ErrShapeTooLarge is returned by Present for a shape whose vertices cannot
// all be addressed by a single draw.
var ErrShapeTooLarge = errors.New("ebiten: shape exceeds draw vertex limit")

// batch is one DrawTriangles call worth of geometry.
type batch struct {
	vertices []ebiten.Vertex
	indices  []uint16
}

// Renderer implements entity.Renderer by packing the recorded draws into as
// few DrawTriangles calls as 16-bit indices allow.
type Renderer struct {
	*render.Frame

	width, height int
	background    color.Color
	batches       []batch
	whiteImg      *ebiten.Image
}

// NewRenderer creates a renderer for a width x height pixel screen.
func NewRenderer(width, height int, background color.Color) *Renderer {
	if background == nil {
		background = color.Black
	}
	return &Renderer{
		Frame:      render.NewFrame(nil),
		width:      width,
		height:     height,
		background: background,
	}
}

// Size returns the logical screen size.
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// Present implements entity.Renderer. It converts the frame's shapes to
// screen-space vertices for the next DrawTo.
func (r *Renderer) Present() error {
	shapes, err := r.Shapes()
	if err != nil {
		return err
	}
	return r.build(shapes)
}

func (r *Renderer) build(shapes []render.Shape) error {
	r.batches = r.batches[:0]
	for _, s := range shapes {
		n := len(s.Vertices)
		if n == 0 {
			continue
		}
		if n > maxBatchVertices {
			return fmt.Errorf("%w: slot %d has %d vertices", ErrShapeTooLarge, s.Slot, n)
		}
		b := r.batchFor(n)
		base := uint16(len(b.vertices))
		for _, v := range s.Vertices {
			b.vertices = append(b.vertices, r.vertex(v, s.Color))
		}
		for _, i := range s.Indices {
			b.indices = append(b.indices, base+i)
		}
	}
	return nil
}

// batchFor returns the batch that n more vertices go into, opening a new
// one when the current batch would overflow. Batch storage is reused
// across frames.
func (r *Renderer) batchFor(n int) *batch {
	if k := len(r.batches); k > 0 && len(r.batches[k-1].vertices)+n <= maxBatchVertices {
		return &r.batches[k-1]
	}
	if len(r.batches) < cap(r.batches) {
		r.batches = r.batches[:len(r.batches)+1]
		b := &r.batches[len(r.batches)-1]
		b.vertices = b.vertices[:0]
		b.indices = b.indices[:0]
		return b
	}
	r.batches = append(r.batches, batch{})
	return &r.batches[len(r.batches)-1]
}

// vertex maps a clip-space point (y up, [-1, 1]) to a screen vertex
// (y down, pixels).
func (r *Renderer) vertex(v mgl32.Vec3, c mgl32.Vec4) ebiten.Vertex {
	return ebiten.Vertex{
		DstX:   (v.X() + 1) / 2 * float32(r.width),
		DstY:   (1 - v.Y()) / 2 * float32(r.height),
		SrcX:   1,
		SrcY:   1,
		ColorR: c.X(),
		ColorG: c.Y(),
		ColorB: c.Z(),
		ColorA: c.W(),
	}
}

// DrawTo paints the last presented frame onto screen.
func (r *Renderer) DrawTo(screen *ebiten.Image) {
	screen.Fill(r.background)
	if len(r.batches) == 0 {
		return
	}
	if r.whiteImg == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		r.whiteImg = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	opts := &ebiten.DrawTrianglesOptions{
		AntiAlias: false,
	}
	for _, b := range r.batches {
		screen.DrawTriangles(b.vertices, b.indices, r.whiteImg, opts)
	}
}

var _ entity.Renderer = (*Renderer)(nil)
