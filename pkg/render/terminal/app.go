package terminal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-kinetics/pkg/input"
	"github.com/opd-ai/go-kinetics/pkg/logging"
	"github.com/opd-ai/go-kinetics/pkg/render"
)

// App runs a simulation in a terminal at a fixed step.
type App struct {
	screen tcell.Screen
	sim    render.Simulation
	keys   *KeySource
	step   time.Duration
	logger *logging.Logger
}

// NewApp creates a terminal frontend. step is both the tick interval and
// the dt handed to the simulation. holdTimeout and repeatDelay configure
// the synthesized key releases, see KeySource.
func NewApp(screen tcell.Screen, sim render.Simulation, step, holdTimeout, repeatDelay time.Duration, logger *logging.Logger) *App {
	if logger == nil {
		logger = logging.Discard()
	}
	return &App{
		screen: screen,
		sim:    sim,
		keys:   NewKeySource(holdTimeout, repeatDelay),
		step:   step,
		logger: logger,
	}
}

// Run processes events and ticks until the simulation asks to quit or ctx
// is cancelled. The caller owns the screen and finalizes it afterwards.
func (a *App) Run(ctx context.Context) error {
	defer a.sim.Stop()

	events := make(chan tcell.Event, 64)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(a.step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info(ctx, "Terminal frontend cancelled")
			return nil

		case ev := <-events:
			if a.dispatch(ctx, a.keys.Translate(ev, time.Now())) {
				return nil
			}

		case now := <-ticker.C:
			if a.dispatch(ctx, a.keys.Expire(now)) {
				return nil
			}
			if err := a.sim.Update(a.step.Seconds()); err != nil {
				a.logger.Warn(ctx, "Frame update reported errors", "error", err.Error())
			}
			if err := a.sim.Render(); err != nil {
				return err
			}
		}
	}
}

func (a *App) dispatch(ctx context.Context, evs []input.Event) bool {
	for _, ev := range evs {
		if ev.Kind == input.ResizeEvent {
			a.screen.Sync()
		}
		if _, quit := a.sim.HandleEvent(ev); quit {
			a.logger.Info(ctx, "Quit requested", "key", ev.Key.String())
			return true
		}
	}
	return false
}
