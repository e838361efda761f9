// cmd/kinetics/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/opd-ai/go-kinetics/pkg/config"
	"github.com/opd-ai/go-kinetics/pkg/engine"
	"github.com/opd-ai/go-kinetics/pkg/entity"
	"github.com/opd-ai/go-kinetics/pkg/event"
	"github.com/opd-ai/go-kinetics/pkg/logging"
	"github.com/opd-ai/go-kinetics/pkg/render"
	ebitenrender "github.com/opd-ai/go-kinetics/pkg/render/ebiten"
	engorender "github.com/opd-ai/go-kinetics/pkg/render/engo"
	"github.com/opd-ai/go-kinetics/pkg/render/terminal"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (defaults and KINETICS_* env when empty)")
	backend := flag.String("renderer", "", "Renderer: terminal, engo, ebiten or null (overrides config)")
	width := flag.Int("width", 0, "Window width (engo and ebiten, overrides config)")
	height := flag.Int("height", 0, "Window height (engo and ebiten, overrides config)")
	fullscreen := flag.Bool("fullscreen", false, "Run in fullscreen mode (engo and ebiten)")
	frames := flag.Int("frames", 600, "Frames to run with the null renderer")
	logPath := flag.String("log", "", "Log file; the terminal renderer defaults to kinetics.log, others to stderr")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *backend != "" {
		cfg.Render.Backend = *backend
	}
	if *width > 0 {
		cfg.Render.Width = *width
	}
	if *height > 0 {
		cfg.Render.Height = *height
	}
	if *fullscreen {
		cfg.Render.Fullscreen = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, closeLog, err := newLogger(cfg, *logPath)
	if err != nil {
		log.Fatalf("Failed to open log: %v", err)
	}
	defer closeLog()

	if err := run(cfg, logger, *frames); err != nil {
		logger.Error(context.Background(), "Run failed", err)
		closeLog()
		log.Fatalf("kinetics: %v", err)
	}
}

func newLogger(cfg *config.Config, path string) (*logging.Logger, func(), error) {
	level, ok := logging.ParseLevel(cfg.Logging.Level)
	if !ok {
		return nil, nil, fmt.Errorf("unknown log level %q", cfg.Logging.Level)
	}
	level = logging.LevelFromEnv(level)

	if path == "" && cfg.Render.Backend == config.BackendTerminal {
		path = "kinetics.log"
	}
	var w io.Writer = os.Stderr
	closer := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closer = func() { f.Close() }
	}
	return logging.NewLoggerWithWriter(w, level), closer, nil
}

// run builds the simulation for the configured backend and drives it until
// the user quits.
func run(cfg *config.Config, logger *logging.Logger, frames int) error {
	cc := cfg.Render.ClearColor
	background := mgl32.Vec3{cc[0], cc[1], cc[2]}
	step := time.Duration(cfg.Simulation.TimeStep * float64(time.Second))

	switch cfg.Render.Backend {
	case config.BackendTerminal:
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to create screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("failed to init screen: %w", err)
		}
		defer screen.Fini()

		renderer := terminal.NewRenderer(screen, background)
		sim, err := start(cfg, renderer, logger)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return terminal.NewApp(screen, sim, step, cfg.Input.HoldTimeout, cfg.Input.RepeatDelay, logger).Run(ctx)

	case config.BackendEngo:
		renderer := engorender.NewRenderer(float32(cfg.Render.Width), float32(cfg.Render.Height))
		sim, err := start(cfg, renderer, logger)
		if err != nil {
			return err
		}
		defer sim.Stop()
		scene := engorender.NewScene(sim, renderer, rgb(background), logger)
		engorender.Run(engorender.Options{
			Title:      cfg.Render.Title,
			Width:      cfg.Render.Width,
			Height:     cfg.Render.Height,
			Fullscreen: cfg.Render.Fullscreen,
		}, scene)
		return nil

	case config.BackendEbiten:
		renderer := ebitenrender.NewRenderer(cfg.Render.Width, cfg.Render.Height, rgb(background))
		sim, err := start(cfg, renderer, logger)
		if err != nil {
			return err
		}
		return ebitenrender.Run(ebitenrender.Options{
			Title:      cfg.Render.Title,
			Width:      cfg.Render.Width,
			Height:     cfg.Render.Height,
			Fullscreen: cfg.Render.Fullscreen,
		}, ebitenrender.NewGame(sim, renderer, logger))

	default:
		sim, err := start(cfg, render.NewNullRenderer(logger), logger)
		if err != nil {
			return err
		}
		defer sim.Stop()
		for i := 0; i < frames; i++ {
			if err := sim.Update(cfg.Simulation.TimeStep); err != nil {
				logger.Warn(sim.Context(), "Update failed", "frame", i, "error", err.Error())
			}
			if err := sim.Render(); err != nil {
				return err
			}
		}
		for name, p := range sim.Snapshot() {
			logger.Info(sim.Context(), "Final placement", "object", name, "x", p.X, "y", p.Y, "z", p.Z)
		}
		return nil
	}
}

// start builds the configured simulation, hooks its events into the log and
// initializes graphics.
func start(cfg *config.Config, renderer entity.Renderer, logger *logging.Logger) (*engine.Simulation, error) {
	sim, err := engine.NewSimulationFromConfig(cfg, renderer, logger)
	if err != nil {
		return nil, err
	}
	sim.EventBus.Subscribe(event.QuitRequested, func(e event.Event) {
		logger.Info(sim.Context(), "Quit requested")
	})
	sim.EventBus.Subscribe(event.FrameError, func(e event.Event) {
		if fe, ok := e.(*event.FrameEvent); ok {
			logger.Debug(sim.Context(), "Frame error", "frame", fe.Frame, "error", fe.Err.Error())
		}
	})
	if err := sim.Init(); err != nil {
		return nil, err
	}
	logger.Info(sim.Context(), "Starting",
		"renderer", cfg.Render.Backend,
		"objects", len(sim.Names()),
		"time_step", cfg.Simulation.TimeStep,
	)
	return sim, nil
}

func rgb(c mgl32.Vec3) color.Color {
	return color.RGBA{
		R: uint8(mgl32.Clamp(c.X(), 0, 1) * 255),
		G: uint8(mgl32.Clamp(c.Y(), 0, 1) * 255),
		B: uint8(mgl32.Clamp(c.Z(), 0, 1) * 255),
		A: 255,
	}
}
