// pkg/entity/entity.go
package entity

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-kinetics/pkg/physics"
)

// Object is the capability surface every controllable, drawable thing
// provides. Each move mutates the object's own state; what a single move
// means (a fixed step, a thrust impulse) is up to the variant.
type Object interface {
	MoveUp()
	MoveDown()
	MoveLeft()
	MoveRight()

	// Placement returns a snapshot of the object's renderable position.
	Placement() Placement

	// InitGraphics uploads the object's mesh through the device. It is
	// called once, before the first frame.
	InitGraphics(dev Device) error

	// Mesh returns the buffer handles created by InitGraphics, or
	// ErrGraphicsNotInitialized if InitGraphics has not run.
	Mesh() (Mesh, error)
}

// Physical is implemented by objects whose motion is driven by forces.
type Physical interface {
	Kinetics() *physics.Kinetics
	// Step integrates the forces accumulated since the previous step.
	Step(dt float64) error
}

// Rotator is the reserved surface for rotation commands. No shipped
// variant implements it.
type Rotator interface {
	RotateLeft() error
	RotateRight() error
}

// Color is a linear RGB triple in the 0..1 range.
type Color struct {
	R, G, B float32
}

// Placement is an object's renderable spatial state.
type Placement struct {
	X, Y, Z float32

	// Color is only meaningful when HasColor is set; otherwise the
	// renderer keeps its own default.
	Color    Color
	HasColor bool
}

// Vector returns the position as a 3-component vector.
func (p Placement) Vector() mgl32.Vec3 {
	return mgl32.Vec3{p.X, p.Y, p.Z}
}

// WithColor returns a copy of the placement tinted with c.
func (p Placement) WithColor(c Color) Placement {
	p.Color = c
	p.HasColor = true
	return p
}

// placementFromVector converts a physics position into a placement on the
// given depth plane.
func placementFromVector(v physics.Vector2D, z float32) Placement {
	return Placement{X: float32(v.X), Y: float32(v.Y), Z: z}
}
