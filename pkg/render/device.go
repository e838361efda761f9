package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/opd-ai/go-kinetics/pkg/entity"
)

// ErrUnknownBuffer is returned for handles the device did not create.
var ErrUnknownBuffer = errors.New("render: unknown buffer")

type buffer struct {
	label string
	usage entity.BufferUsage
	data  []byte
}

// MemoryDevice keeps buffers in host memory. Frontends without a GPU
// pipeline of their own read geometry back from it when presenting.
type MemoryDevice struct {
	mu      sync.RWMutex
	buffers map[uint32]buffer
	nextID  uint32
}

// NewMemoryDevice creates an empty device.
func NewMemoryDevice() *MemoryDevice {
	return &MemoryDevice{buffers: make(map[uint32]buffer)}
}

// CreateBuffer implements entity.Device. The contents are copied.
func (d *MemoryDevice) CreateBuffer(label string, contents []byte, usage entity.BufferUsage) (entity.BufferHandle, error) {
	if usage != entity.VertexBuffer && usage != entity.IndexBuffer {
		return entity.BufferHandle{}, fmt.Errorf("render: buffer %q: unsupported usage %v", label, usage)
	}
	data := make([]byte, len(contents))
	copy(data, contents)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.buffers[d.nextID] = buffer{label: label, usage: usage, data: data}
	return entity.BufferHandle{ID: d.nextID, Size: len(data), Usage: usage}, nil
}

// Contents returns the bytes stored for h.
func (d *MemoryDevice) Contents(h entity.BufferHandle) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.buffers[h.ID]
	if !ok || b.usage != h.Usage {
		return nil, fmt.Errorf("%w: id %d (%v)", ErrUnknownBuffer, h.ID, h.Usage)
	}
	return b.data, nil
}

// Label returns the debug label the buffer was created with.
func (d *MemoryDevice) Label(h entity.BufferHandle) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buffers[h.ID].label
}

// Len returns the number of buffers created.
func (d *MemoryDevice) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.buffers)
}

// Geometry decodes the vertices and indices referenced by mesh.
func (d *MemoryDevice) Geometry(mesh entity.Mesh) (entity.Geometry, error) {
	vb, err := d.Contents(mesh.Vertices)
	if err != nil {
		return entity.Geometry{}, err
	}
	ib, err := d.Contents(mesh.Indices)
	if err != nil {
		return entity.Geometry{}, err
	}
	verts, err := entity.DecodeVertices(vb)
	if err != nil {
		return entity.Geometry{}, err
	}
	indices, err := entity.DecodeIndices(ib)
	if err != nil {
		return entity.Geometry{}, err
	}
	if int(mesh.IndexCount) > len(indices) {
		return entity.Geometry{}, fmt.Errorf("render: index count %d exceeds buffer of %d", mesh.IndexCount, len(indices))
	}
	return entity.Geometry{Vertices: verts, Indices: indices[:mesh.IndexCount]}, nil
}

var _ entity.Device = (*MemoryDevice)(nil)
