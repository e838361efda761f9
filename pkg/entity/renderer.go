package entity

import (
	"errors"
	"fmt"
)

// ErrGraphicsNotInitialized is returned when mesh handles are requested
// before InitGraphics has run.
var ErrGraphicsNotInitialized = errors.New("entity: graphics resources not initialized")

// BufferUsage tells the device what a buffer will be bound as.
type BufferUsage int

const (
	VertexBuffer BufferUsage = iota
	IndexBuffer
)

func (u BufferUsage) String() string {
	switch u {
	case VertexBuffer:
		return "vertex"
	case IndexBuffer:
		return "index"
	default:
		return fmt.Sprintf("BufferUsage(%d)", int(u))
	}
}

// BufferHandle references a buffer owned by a Device.
type BufferHandle struct {
	ID    uint32
	Size  int
	Usage BufferUsage
}

// Mesh references the buffers needed for one indexed draw.
type Mesh struct {
	Vertices   BufferHandle
	Indices    BufferHandle
	IndexCount uint32
}

// Device creates buffers on behalf of objects.
type Device interface {
	CreateBuffer(label string, contents []byte, usage BufferUsage) (BufferHandle, error)
}

// Renderer handles drawing objects. The core writes one uniform payload
// and issues one indexed draw per object per frame.
type Renderer interface {
	Device() Device
	Clear()
	WriteUniform(slot int, payload []byte) error
	DrawIndexed(slot int, mesh Mesh) error
	Present() error
}
