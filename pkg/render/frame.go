package render

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-kinetics/pkg/entity"
)

// ErrUnknownSlot is returned when a draw references a slot with no
// uniform written this frame.
var ErrUnknownSlot = errors.New("render: no uniform written for slot")

// DrawCall is one indexed draw recorded during a frame.
type DrawCall struct {
	Slot    int
	Mesh    entity.Mesh
	Uniform PlacementUniform
}

// Shape is a draw call resolved to translated clip-space triangles.
type Shape struct {
	Slot     int
	Vertices []mgl32.Vec3
	Indices  []uint16
	Color    mgl32.Vec4
}

// Frame records uniforms and draws between Clear and Present. Frontends
// embed it and implement Present by walking Shapes.
type Frame struct {
	device   *MemoryDevice
	uniforms map[int]PlacementUniform
	draws    []DrawCall
}

// NewFrame creates a recorder backed by dev, or a fresh MemoryDevice when
// dev is nil.
func NewFrame(dev *MemoryDevice) *Frame {
	if dev == nil {
		dev = NewMemoryDevice()
	}
	return &Frame{device: dev, uniforms: make(map[int]PlacementUniform)}
}

// Device implements entity.Renderer.
func (f *Frame) Device() entity.Device {
	return f.device
}

// Memory returns the concrete device.
func (f *Frame) Memory() *MemoryDevice {
	return f.device
}

// Clear implements entity.Renderer. Uniforms persist across frames, the
// way GPU uniform buffers do; only the draw list is reset.
func (f *Frame) Clear() {
	f.draws = f.draws[:0]
}

// WriteUniform implements entity.Renderer.
func (f *Frame) WriteUniform(slot int, payload []byte) error {
	u, err := UnpackPlacementUniform(payload)
	if err != nil {
		return fmt.Errorf("slot %d: %w", slot, err)
	}
	f.uniforms[slot] = u
	return nil
}

// Uniform returns the last uniform written to slot.
func (f *Frame) Uniform(slot int) (PlacementUniform, bool) {
	u, ok := f.uniforms[slot]
	return u, ok
}

// DrawIndexed implements entity.Renderer.
func (f *Frame) DrawIndexed(slot int, mesh entity.Mesh) error {
	u, ok := f.uniforms[slot]
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownSlot, slot)
	}
	if _, err := f.device.Contents(mesh.Vertices); err != nil {
		return err
	}
	if _, err := f.device.Contents(mesh.Indices); err != nil {
		return err
	}
	f.draws = append(f.draws, DrawCall{Slot: slot, Mesh: mesh, Uniform: u})
	return nil
}

// Draws returns the draw calls recorded since the last Clear.
func (f *Frame) Draws() []DrawCall {
	out := make([]DrawCall, len(f.draws))
	copy(out, f.draws)
	return out
}

// Shapes resolves the recorded draws into translated triangles, back to
// front by depth so painters can draw them in order.
func (f *Frame) Shapes() ([]Shape, error) {
	shapes := make([]Shape, 0, len(f.draws))
	for _, dc := range f.draws {
		g, err := f.device.Geometry(dc.Mesh)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", dc.Slot, err)
		}
		offset := dc.Uniform.Position()
		verts := make([]mgl32.Vec3, len(g.Vertices))
		for i, v := range g.Vertices {
			verts[i] = mgl32.Vec3(v).Add(offset)
		}
		shapes = append(shapes, Shape{
			Slot:     dc.Slot,
			Vertices: verts,
			Indices:  g.Indices,
			Color:    dc.Uniform.Color,
		})
	}
	sort.SliceStable(shapes, func(i, j int) bool {
		return depth(shapes[i]) > depth(shapes[j])
	})
	return shapes, nil
}

func depth(s Shape) float32 {
	if len(s.Vertices) == 0 {
		return 0
	}
	return s.Vertices[0].Z()
}
