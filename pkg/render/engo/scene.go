// pkg/render/engo/scene.go
package engo

import (
	"context"
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-kinetics/pkg/input"
	"github.com/opd-ai/go-kinetics/pkg/logging"
	"github.com/opd-ai/go-kinetics/pkg/render"
)

// SimulationSystemPriority runs the simulation after input and before
// engo's RenderSystem.
const SimulationSystemPriority = 50

// SimulationSystem advances the simulation by engo's frame time and
// records the frame for the renderer.
type SimulationSystem struct {
	sim    render.Simulation
	logger *logging.Logger
	frames uint64
}

// NewSimulationSystem creates the per-frame driver for sim.
func NewSimulationSystem(sim render.Simulation, logger *logging.Logger) *SimulationSystem {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SimulationSystem{sim: sim, logger: logger}
}

// Priority implements ecs.Prioritizer.
func (ss *SimulationSystem) Priority() int {
	return SimulationSystemPriority
}

// Remove satisfies the ecs.System interface
func (ss *SimulationSystem) Remove(basic ecs.BasicEntity) {}

// Update steps and renders one frame. Errors are logged; the frame loop
// keeps going.
func (ss *SimulationSystem) Update(dt float32) {
	ss.frames++
	ctx := context.Background()
	if err := ss.sim.Update(float64(dt)); err != nil {
		ss.logger.Warn(ctx, "Update failed", "frame", ss.frames, "error", err.Error())
	}
	if err := ss.sim.Render(); err != nil {
		ss.logger.Error(ctx, "Render failed", err, "frame", ss.frames)
	}
}

// Frames returns how many frames the system has run.
func (ss *SimulationSystem) Frames() uint64 {
	return ss.frames
}

// Scene hosts a simulation in an engo window.
type Scene struct {
	sim        render.Simulation
	renderer   *Renderer
	logger     *logging.Logger
	background color.Color
	input      *InputSystem
}

// NewScene creates a scene drawing sim through renderer.
func NewScene(sim render.Simulation, renderer *Renderer, background color.Color, logger *logging.Logger) *Scene {
	if logger == nil {
		logger = logging.Discard()
	}
	if background == nil {
		background = color.Black
	}
	return &Scene{
		sim:        sim,
		renderer:   renderer,
		logger:     logger,
		background: background,
	}
}

// Type returns the scene type (required by Engo)
func (scene *Scene) Type() string {
	return "KineticsScene"
}

// Preload is called before the scene starts (required by Engo)
func (scene *Scene) Preload() {}

// Setup is called when the scene starts (required by Engo)
func (scene *Scene) Setup(u engo.Updater) {
	world, _ := u.(*ecs.World)
	common.SetBackground(scene.background)

	rs := &common.RenderSystem{}
	world.AddSystem(rs)
	scene.renderer.SetViewport(engo.GameWidth(), engo.GameHeight())
	scene.renderer.Attach(rs)

	SetupInputBindings()
	scene.input = NewInputSystem(scene.sim, scene.logger)
	world.AddSystem(scene.input)
	world.AddSystem(NewSimulationSystem(scene.sim, scene.logger))

	scene.logger.Info(context.Background(), "Scene ready",
		"width", engo.GameWidth(),
		"height", engo.GameHeight(),
	)
}

// Exit is called when the window closes (required by Engo). A quit the
// input system already delivered is not reported a second time.
func (scene *Scene) Exit() {
	if scene.input == nil || !scene.input.done {
		scene.sim.HandleEvent(input.Event{Kind: input.CloseEvent})
	}
	scene.sim.Stop()
}

// Options configures the engo window.
type Options struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
}

// Run opens the window and blocks until it closes.
func Run(opts Options, scene *Scene) {
	engo.Run(engo.RunOptions{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Fullscreen: opts.Fullscreen,
	}, scene)
}
