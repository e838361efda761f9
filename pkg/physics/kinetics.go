// pkg/physics/kinetics.go
package physics

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidMass is returned when a body is created with a mass that is
	// not a finite, strictly positive number.
	ErrInvalidMass = errors.New("physics: mass must be finite and greater than zero")

	// ErrInvalidTimeStep is returned when Update is given a negative or
	// non-finite time step.
	ErrInvalidTimeStep = errors.New("physics: time step must be finite and non-negative")

	// ErrInvalidForce is returned when the summed force has a NaN or
	// infinite component. The body's state is left unchanged.
	ErrInvalidForce = errors.New("physics: force must be finite")

	// ErrInvalidState is returned when a position or velocity being set has
	// a NaN or infinite component.
	ErrInvalidState = errors.New("physics: position and velocity must be finite")
)

// PositionIntegration selects how velocity is folded into position during
// an integration step.
type PositionIntegration int

const (
	// ScaledPosition advances position by velocity*dt.
	ScaledPosition PositionIntegration = iota
	// RawPosition advances position by velocity alone and ignores dt when
	// advancing position.
	RawPosition
)

// String returns the configuration name of the policy.
func (p PositionIntegration) String() string {
	switch p {
	case ScaledPosition:
		return "scaled"
	case RawPosition:
		return "raw"
	default:
		return fmt.Sprintf("PositionIntegration(%d)", int(p))
	}
}

// ParsePositionIntegration resolves a configuration name into a policy.
func ParsePositionIntegration(name string) (PositionIntegration, error) {
	switch name {
	case "", "scaled":
		return ScaledPosition, nil
	case "raw":
		return RawPosition, nil
	default:
		return ScaledPosition, fmt.Errorf("physics: unknown position integration %q", name)
	}
}

// Option configures a Kinetics at construction.
type Option func(*Kinetics)

// WithPositionIntegration sets the position integration policy.
func WithPositionIntegration(p PositionIntegration) Option {
	return func(k *Kinetics) {
		k.policy = p
	}
}

// WithPosition sets the starting position.
func WithPosition(pos Vector2D) Option {
	return func(k *Kinetics) {
		k.position = pos
	}
}

// Kinetics tracks the motion state of a single body and advances it with
// velocity Verlet integration.
type Kinetics struct {
	position     Vector2D
	velocity     Vector2D
	acceleration Vector2D
	mass         float64
	policy       PositionIntegration
}

// NewKinetics creates a body at rest at the origin.
func NewKinetics(mass float64, opts ...Option) (*Kinetics, error) {
	if math.IsNaN(mass) || math.IsInf(mass, 0) || mass <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidMass, mass)
	}
	k := &Kinetics{mass: mass}
	for _, opt := range opts {
		opt(k)
	}
	if !k.position.IsFinite() {
		return nil, fmt.Errorf("%w: position %v", ErrInvalidState, k.position)
	}
	return k, nil
}

// Position returns the current position
func (k *Kinetics) Position() Vector2D { return k.position }

// Velocity returns the current velocity
func (k *Kinetics) Velocity() Vector2D { return k.velocity }

// Acceleration returns the acceleration computed by the last step
func (k *Kinetics) Acceleration() Vector2D { return k.acceleration }

// Mass returns the body's mass
func (k *Kinetics) Mass() float64 { return k.mass }

// Policy returns the position integration policy in use
func (k *Kinetics) Policy() PositionIntegration { return k.policy }

// SetPosition moves the body without touching its velocity.
func (k *Kinetics) SetPosition(pos Vector2D) error {
	if !pos.IsFinite() {
		return fmt.Errorf("%w: position %v", ErrInvalidState, pos)
	}
	k.position = pos
	return nil
}

// SetVelocity overrides the current velocity.
func (k *Kinetics) SetVelocity(vel Vector2D) error {
	if !vel.IsFinite() {
		return fmt.Errorf("%w: velocity %v", ErrInvalidState, vel)
	}
	k.velocity = vel
	return nil
}

// Prime computes the acceleration for an initial force set without moving
// the body, so that the first Update starts from a consistent state.
func (k *Kinetics) Prime(forces []Vector2D) error {
	total := Sum(forces)
	if !total.IsFinite() {
		return fmt.Errorf("%w: force %v", ErrInvalidForce, total)
	}
	k.acceleration = total.Scale(1 / k.mass)
	return nil
}

// Update advances the body by one step of size dt under the given forces.
//
// The velocity is advanced in two half steps around the position update:
// the first half uses the acceleration from the previous step, the second
// half uses the acceleration produced by the current forces.
func (k *Kinetics) Update(forces []Vector2D, dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTimeStep, dt)
	}
	total := Sum(forces)
	if !total.IsFinite() {
		return fmt.Errorf("%w: force %v", ErrInvalidForce, total)
	}

	k.velocity = k.velocity.Add(k.acceleration.Scale(0.5 * dt))

	switch k.policy {
	case RawPosition:
		k.position = k.position.Add(k.velocity)
	default:
		k.position = k.position.Add(k.velocity.Scale(dt))
	}

	k.acceleration = total.Scale(1 / k.mass)
	k.velocity = k.velocity.Add(k.acceleration.Scale(0.5 * dt))
	return nil
}
