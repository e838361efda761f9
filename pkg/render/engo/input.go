// pkg/render/engo/input.go
package engo

import (
	"context"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-kinetics/pkg/input"
	"github.com/opd-ai/go-kinetics/pkg/logging"
	"github.com/opd-ai/go-kinetics/pkg/render"
)

// InputSystemPriority runs input before the simulation step.
const InputSystemPriority = 100

// ButtonState is the part of engo.Button the input system reads.
type ButtonState interface {
	JustPressed() bool
	JustReleased() bool
}

// InputSystem turns engo button edges into key events for the simulation.
type InputSystem struct {
	sim    render.Simulation
	button func(name string) ButtonState
	logger *logging.Logger
	quit   func()
	done   bool
}

// NewInputSystem creates an input system reading engo.Input.
func NewInputSystem(sim render.Simulation, logger *logging.Logger) *InputSystem {
	if logger == nil {
		logger = logging.Discard()
	}
	return &InputSystem{
		sim:    sim,
		button: func(name string) ButtonState { return engo.Input.Button(name) },
		logger: logger,
		quit:   engo.Exit,
	}
}

// Priority implements ecs.Prioritizer.
func (is *InputSystem) Priority() int {
	return InputSystemPriority
}

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(basic ecs.BasicEntity) {}

// Update forwards this frame's presses and releases in key order.
func (is *InputSystem) Update(dt float32) {
	if is.done {
		return
	}
	for _, ev := range is.Poll() {
		if _, quit := is.sim.HandleEvent(ev); quit {
			is.logger.Info(context.Background(), "Quit requested")
			is.done = true
			is.quit()
			return
		}
	}
}

// Poll collects the key transitions of the current frame. A key pressed
// and released within one frame yields both events.
func (is *InputSystem) Poll() []input.Event {
	var events []input.Event
	for _, k := range input.AllKeys {
		if _, ok := keyMap[k]; !ok {
			continue
		}
		b := is.button(ButtonName(k))
		if b.JustPressed() {
			events = append(events, input.KeyPress(k))
		}
		if b.JustReleased() {
			events = append(events, input.KeyRelease(k))
		}
	}
	return events
}
