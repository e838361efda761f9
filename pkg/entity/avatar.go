// pkg/entity/avatar.go
package entity

// Avatar is a directly steered object: every move shifts its placement by
// a fixed step, with no inertia.
type Avatar struct {
	Name      string
	placement Placement
	step      float32
	geometry  Geometry

	mesh  Mesh
	ready bool
}

// NewAvatar creates an avatar at start that moves step units per command.
func NewAvatar(name string, start Placement, step float32, geometry Geometry) *Avatar {
	return &Avatar{
		Name:      name,
		placement: start,
		step:      step,
		geometry:  geometry,
	}
}

// MoveUp shifts the avatar one step along +Y
func (a *Avatar) MoveUp() { a.placement.Y += a.step }

// MoveDown shifts the avatar one step along -Y
func (a *Avatar) MoveDown() { a.placement.Y -= a.step }

// MoveLeft shifts the avatar one step along -X
func (a *Avatar) MoveLeft() { a.placement.X -= a.step }

// MoveRight shifts the avatar one step along +X
func (a *Avatar) MoveRight() { a.placement.X += a.step }

// Placement implements Object.
func (a *Avatar) Placement() Placement {
	return a.placement
}

// Step returns the distance covered by one move.
func (a *Avatar) Step() float32 {
	return a.step
}

// InitGraphics implements Object.
func (a *Avatar) InitGraphics(dev Device) error {
	mesh, err := uploadGeometry(dev, a.Name, a.geometry)
	if err != nil {
		return err
	}
	a.mesh = mesh
	a.ready = true
	return nil
}

// Mesh implements Object.
func (a *Avatar) Mesh() (Mesh, error) {
	if !a.ready {
		return Mesh{}, ErrGraphicsNotInitialized
	}
	return a.mesh, nil
}
