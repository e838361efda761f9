package engine

import (
	"fmt"

	"github.com/opd-ai/go-kinetics/pkg/config"
	"github.com/opd-ai/go-kinetics/pkg/entity"
	"github.com/opd-ai/go-kinetics/pkg/input"
	"github.com/opd-ai/go-kinetics/pkg/logging"
	"github.com/opd-ai/go-kinetics/pkg/physics"
)

// NewSimulationFromConfig builds the controller and every configured
// object. The caller still has to call Init.
func NewSimulationFromConfig(cfg *config.Config, renderer entity.Renderer, logger *logging.Logger) (*Simulation, error) {
	bindings, err := cfg.KeyBindings()
	if err != nil {
		return nil, err
	}
	controller, err := input.NewController(bindings)
	if err != nil {
		return nil, err
	}
	policy, err := cfg.PositionPolicy()
	if err != nil {
		return nil, err
	}

	sim := NewSimulation(controller, renderer, logger)
	for i, ec := range cfg.Entities {
		name := ec.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", ec.Kind, i)
		}
		obj, err := BuildObject(name, ec, policy)
		if err != nil {
			return nil, err
		}
		if err := sim.AddObject(name, obj, ec.RespondsToInput); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

// BuildObject creates the object an entity configuration describes.
func BuildObject(name string, ec config.EntityConfig, policy physics.PositionIntegration) (entity.Object, error) {
	start := entity.Placement{X: ec.X, Y: ec.Y, Z: ec.Z}
	if len(ec.Color) == 3 {
		start = start.WithColor(entity.Color{R: ec.Color[0], G: ec.Color[1], B: ec.Color[2]})
	}
	geometry := entity.QuadGeometry(ec.Size)

	switch ec.Kind {
	case config.KindAvatar:
		return entity.NewAvatar(name, start, ec.Speed, geometry), nil
	case config.KindShip:
		ship, err := entity.NewShip(entity.ShipConfig{
			Name:     name,
			Start:    start,
			Mass:     ec.Mass,
			Thrust:   ec.Thrust,
			MaxSpeed: ec.MaxSpeed,
			Policy:   policy,
			Geometry: geometry,
		})
		if err != nil {
			return nil, err
		}
		return ship, nil
	default:
		return nil, fmt.Errorf("engine: object %q: unknown kind %q", name, ec.Kind)
	}
}
