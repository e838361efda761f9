package ebiten

import (
	"context"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/opd-ai/go-kinetics/pkg/logging"
	"github.com/opd-ai/go-kinetics/pkg/render"
)

// Game adapts a simulation to ebiten.Game. Update feeds key edges and
// steps the simulation at ebiten's tick rate; Draw renders.
type Game struct {
	sim      render.Simulation
	renderer *Renderer
	logger   *logging.Logger

	pressed  []ebiten.Key
	released []ebiten.Key
	ticks    uint64
}

// NewGame creates the adapter.
func NewGame(sim render.Simulation, renderer *Renderer, logger *logging.Logger) *Game {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Game{sim: sim, renderer: renderer, logger: logger}
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	g.pressed = inpututil.AppendJustPressedKeys(g.pressed[:0])
	g.released = inpututil.AppendJustReleasedKeys(g.released[:0])
	return g.tick(g.pressed, g.released, 1/float64(ebiten.TPS()))
}

// tick handles one update with the given key edges. Returning
// ebiten.Termination ends RunGame without an error.
func (g *Game) tick(pressed, released []ebiten.Key, dt float64) error {
	g.ticks++
	for _, ev := range translate(pressed, released) {
		if _, quit := g.sim.HandleEvent(ev); quit {
			g.logger.Info(context.Background(), "Quit requested", "tick", g.ticks)
			return ebiten.Termination
		}
	}
	if err := g.sim.Update(dt); err != nil {
		g.logger.Warn(context.Background(), "Update failed", "tick", g.ticks, "error", err.Error())
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if err := g.sim.Render(); err != nil {
		g.logger.Error(context.Background(), "Render failed", err, "tick", g.ticks)
	}
	g.renderer.DrawTo(screen)
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.renderer.Size()
}

// Options configures the ebiten window.
type Options struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
}

// Run opens the window and blocks until it closes or the simulation quits.
func Run(opts Options, game *Game) error {
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetFullscreen(opts.Fullscreen)
	defer game.sim.Stop()
	return ebiten.RunGame(game)
}
