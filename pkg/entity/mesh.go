package entity

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Geometry is CPU-side mesh data: float32 x,y,z vertices and uint16
// triangle-list indices.
type Geometry struct {
	Vertices [][3]float32
	Indices  []uint16
}

// QuadGeometry returns a square of the given half extent centred on the
// origin, wound counter-clockwise.
func QuadGeometry(half float32) Geometry {
	return Geometry{
		Vertices: [][3]float32{
			{-half, -half, 0},
			{half, -half, 0},
			{half, half, 0},
			{-half, half, 0},
		},
		Indices: []uint16{0, 1, 2, 0, 2, 3},
	}
}

// VertexBytes packs the vertices little-endian, 12 bytes per vertex.
func (g Geometry) VertexBytes() []byte {
	buf := make([]byte, 0, len(g.Vertices)*12)
	for _, v := range g.Vertices {
		for _, c := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
		}
	}
	return buf
}

// IndexBytes packs the indices little-endian, 2 bytes per index.
func (g Geometry) IndexBytes() []byte {
	buf := make([]byte, 0, len(g.Indices)*2)
	for _, i := range g.Indices {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	return buf
}

// DecodeVertices is the inverse of VertexBytes.
func DecodeVertices(data []byte) ([][3]float32, error) {
	if len(data)%12 != 0 {
		return nil, fmt.Errorf("entity: vertex data length %d is not a multiple of 12", len(data))
	}
	out := make([][3]float32, len(data)/12)
	for i := range out {
		for c := 0; c < 3; c++ {
			off := i*12 + c*4
			out[i][c] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		}
	}
	return out, nil
}

// DecodeIndices is the inverse of IndexBytes.
func DecodeIndices(data []byte) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("entity: index data length %d is odd", len(data))
	}
	out := make([]uint16, len(data)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return out, nil
}

// uploadGeometry creates the vertex and index buffers for g on dev.
func uploadGeometry(dev Device, label string, g Geometry) (Mesh, error) {
	if dev == nil {
		return Mesh{}, fmt.Errorf("entity: %s: nil device", label)
	}
	if len(g.Vertices) == 0 || len(g.Indices) == 0 {
		return Mesh{}, fmt.Errorf("entity: %s: empty geometry", label)
	}
	for _, idx := range g.Indices {
		if int(idx) >= len(g.Vertices) {
			return Mesh{}, fmt.Errorf("entity: %s: index %d out of range for %d vertices", label, idx, len(g.Vertices))
		}
	}

	vb, err := dev.CreateBuffer(label+" vertices", g.VertexBytes(), VertexBuffer)
	if err != nil {
		return Mesh{}, fmt.Errorf("entity: %s: create vertex buffer: %w", label, err)
	}
	ib, err := dev.CreateBuffer(label+" indices", g.IndexBytes(), IndexBuffer)
	if err != nil {
		return Mesh{}, fmt.Errorf("entity: %s: create index buffer: %w", label, err)
	}
	return Mesh{Vertices: vb, Indices: ib, IndexCount: uint32(len(g.Indices))}, nil
}
