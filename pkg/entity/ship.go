// pkg/entity/ship.go
package entity

import (
	"fmt"

	"github.com/opd-ai/go-kinetics/pkg/physics"
)

// ShipConfig describes a force-driven object.
type ShipConfig struct {
	Name     string
	Start    Placement
	Mass     float64
	Thrust   float64 // force applied per held direction per step
	MaxSpeed float64 // 0 disables the cap
	Policy   physics.PositionIntegration
	Geometry Geometry
}

// Ship is steered by thrust: each move command adds a force for the
// current step, and Step integrates them through its Kinetics.
type Ship struct {
	Name     string
	kinetics *physics.Kinetics
	thrust   float64
	maxSpeed float64
	z        float32
	color    Color
	hasColor bool
	geometry Geometry

	pending []physics.Vector2D

	mesh  Mesh
	ready bool
}

// NewShip creates a ship at rest at cfg.Start.
func NewShip(cfg ShipConfig) (*Ship, error) {
	start := physics.Vector2D{X: float64(cfg.Start.X), Y: float64(cfg.Start.Y)}
	k, err := physics.NewKinetics(cfg.Mass,
		physics.WithPosition(start),
		physics.WithPositionIntegration(cfg.Policy),
	)
	if err != nil {
		return nil, fmt.Errorf("entity: ship %q: %w", cfg.Name, err)
	}
	return &Ship{
		Name:     cfg.Name,
		kinetics: k,
		thrust:   cfg.Thrust,
		maxSpeed: cfg.MaxSpeed,
		z:        cfg.Start.Z,
		color:    cfg.Start.Color,
		hasColor: cfg.Start.HasColor,
		geometry: cfg.Geometry,
		pending:  make([]physics.Vector2D, 0, 4),
	}, nil
}

// MoveUp queues thrust along +Y
func (s *Ship) MoveUp() { s.push(physics.Vector2D{Y: s.thrust}) }

// MoveDown queues thrust along -Y
func (s *Ship) MoveDown() { s.push(physics.Vector2D{Y: -s.thrust}) }

// MoveLeft queues thrust along -X
func (s *Ship) MoveLeft() { s.push(physics.Vector2D{X: -s.thrust}) }

// MoveRight queues thrust along +X
func (s *Ship) MoveRight() { s.push(physics.Vector2D{X: s.thrust}) }

func (s *Ship) push(f physics.Vector2D) {
	s.pending = append(s.pending, f)
}

// PendingForces returns a copy of the forces queued for the next step.
func (s *Ship) PendingForces() []physics.Vector2D {
	out := make([]physics.Vector2D, len(s.pending))
	copy(out, s.pending)
	return out
}

// ClearForces drops any queued thrust without integrating it.
func (s *Ship) ClearForces() {
	s.pending = s.pending[:0]
}

// Kinetics implements Physical.
func (s *Ship) Kinetics() *physics.Kinetics {
	return s.kinetics
}

// Step implements Physical. Queued forces are consumed even when the
// integration is rejected, so a bad frame does not replay its thrust.
func (s *Ship) Step(dt float64) error {
	defer s.ClearForces()
	if err := s.kinetics.Update(s.pending, dt); err != nil {
		return fmt.Errorf("entity: ship %q: %w", s.Name, err)
	}
	if s.maxSpeed > 0 && s.kinetics.Velocity().Length() > s.maxSpeed {
		dir, err := s.kinetics.Velocity().Normalize()
		if err != nil {
			return err
		}
		return s.kinetics.SetVelocity(dir.Scale(s.maxSpeed))
	}
	return nil
}

// Placement implements Object.
func (s *Ship) Placement() Placement {
	p := placementFromVector(s.kinetics.Position(), s.z)
	if s.hasColor {
		p = p.WithColor(s.color)
	}
	return p
}

// InitGraphics implements Object.
func (s *Ship) InitGraphics(dev Device) error {
	mesh, err := uploadGeometry(dev, s.Name, s.geometry)
	if err != nil {
		return err
	}
	s.mesh = mesh
	s.ready = true
	return nil
}

// Mesh implements Object.
func (s *Ship) Mesh() (Mesh, error) {
	if !s.ready {
		return Mesh{}, ErrGraphicsNotInitialized
	}
	return s.mesh, nil
}
