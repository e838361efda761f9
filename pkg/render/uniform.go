package render

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-kinetics/pkg/entity"
)

// UniformSize is the packed size of a PlacementUniform: two vec4 of
// float32, std140 layout.
const UniformSize = 32

// ErrPayloadSize is returned when a uniform payload has the wrong length.
var ErrPayloadSize = errors.New("render: uniform payload must be 32 bytes")

// DefaultColor is used until an object reports a color of its own.
var DefaultColor = mgl32.Vec4{0, 0.5, 0.5, 1}

// PlacementUniform is the per-object payload shaders read: a location and
// a color, each padded to a vec4.
type PlacementUniform struct {
	Location mgl32.Vec4
	Color    mgl32.Vec4
}

// NewPlacementUniform returns a uniform at the origin with DefaultColor.
func NewPlacementUniform() PlacementUniform {
	return PlacementUniform{
		Location: mgl32.Vec4{0, 0, 0, 1},
		Color:    DefaultColor,
	}
}

// Update copies the placement's position, and its color when it has one.
func (u *PlacementUniform) Update(p entity.Placement) {
	u.Location = p.Vector().Vec4(1)
	if p.HasColor {
		u.Color = mgl32.Vec4{p.Color.R, p.Color.G, p.Color.B, 1}
	}
}

// Position returns the location without its padding component.
func (u PlacementUniform) Position() mgl32.Vec3 {
	return u.Location.Vec3()
}

// Bytes packs the uniform little-endian, location first.
func (u PlacementUniform) Bytes() []byte {
	buf := make([]byte, 0, UniformSize)
	for _, v := range [2]mgl32.Vec4{u.Location, u.Color} {
		for _, c := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
		}
	}
	return buf
}

// UnpackPlacementUniform is the inverse of Bytes.
func UnpackPlacementUniform(payload []byte) (PlacementUniform, error) {
	if len(payload) != UniformSize {
		return PlacementUniform{}, fmt.Errorf("%w, got %d", ErrPayloadSize, len(payload))
	}
	var u PlacementUniform
	for i := 0; i < 4; i++ {
		u.Location[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
		u.Color[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[16+i*4:]))
	}
	return u, nil
}
