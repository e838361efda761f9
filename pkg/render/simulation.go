package render

import "github.com/opd-ai/go-kinetics/pkg/input"

// Simulation is the frame-loop surface a frontend drives. All calls
// happen on the frontend's loop goroutine.
type Simulation interface {
	// HandleEvent feeds one platform event in arrival order. quit is set
	// when the event should end the run.
	HandleEvent(ev input.Event) (consumed, quit bool)
	// Update advances the simulation by dt seconds.
	Update(dt float64) error
	// Render clears, draws every object and presents.
	Render() error
	// Stop releases held input and marks the simulation finished.
	Stop()
}
