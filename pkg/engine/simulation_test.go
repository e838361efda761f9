// Package engine provides unit tests for simulation.go
package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/opd-ai/go-kinetics/pkg/config"
	"github.com/opd-ai/go-kinetics/pkg/entity"
	"github.com/opd-ai/go-kinetics/pkg/event"
	"github.com/opd-ai/go-kinetics/pkg/input"
	"github.com/opd-ai/go-kinetics/pkg/logging"
	"github.com/opd-ai/go-kinetics/pkg/physics"
	"github.com/opd-ai/go-kinetics/pkg/render"
)

const epsilon = 1e-6

// brokenObject fails graphics setup in configurable ways.
type brokenObject struct {
	initErr error
}

func (b *brokenObject) MoveUp() {}
func (b *brokenObject) MoveDown() {}
func (b *brokenObject) MoveLeft() {}
func (b *brokenObject) MoveRight() {}
func (b *brokenObject) Placement() entity.Placement { return entity.Placement{} }
func (b *brokenObject) InitGraphics(entity.Device) error { return b.initErr }
func (b *brokenObject) Mesh() (entity.Mesh, error) { return entity.Mesh{}, entity.ErrGraphicsNotInitialized }

func newController(t *testing.T, b input.KeyBinding) *input.Controller {
	t.Helper()
	c, err := input.NewController(b)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	return c
}

func newTestSimulation(t *testing.T, b input.KeyBinding) (*Simulation, *render.NullRenderer) {
	t.Helper()
	r := render.NewNullRenderer(nil)
	return NewSimulation(newController(t, b), r, nil), r
}

func newTestShip(t *testing.T, name string, mass, thrust float64) *entity.Ship {
	t.Helper()
	ship, err := entity.NewShip(entity.ShipConfig{
		Name:     name,
		Mass:     mass,
		Thrust:   thrust,
		Geometry: entity.QuadGeometry(0.05),
	})
	if err != nil {
		t.Fatalf("NewShip() error = %v", err)
	}
	return ship
}

func mustAdd(t *testing.T, sim *Simulation, name string, obj entity.Object, respondsToInput bool) {
	t.Helper()
	if err := sim.AddObject(name, obj, respondsToInput); err != nil {
		t.Fatalf("AddObject(%q) error = %v", name, err)
	}
}

func mustInit(t *testing.T, sim *Simulation) {
	t.Helper()
	if err := sim.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
}

// collect records every event of the given types published on bus.
func collect(bus *event.Bus, types ...event.Type) *[]event.Event {
	var got []event.Event
	for _, typ := range types {
		bus.Subscribe(typ, func(e event.Event) { got = append(got, e) })
	}
	return &got
}

func TestNewSimulation_InitializesState(t *testing.T) {
	sim, _ := newTestSimulation(t, input.DefaultBindings())
	if sim.Status() != StatusCreated {
		t.Errorf("Status() = %v, want created", sim.Status())
	}
	if sim.EventBus == nil || sim.Controller == nil {
		t.Fatal("simulation not wired")
	}
	if sim.CurrentTick != 0 || len(sim.Names()) != 0 {
		t.Errorf("unexpected initial state: tick %d names %v", sim.CurrentTick, sim.Names())
	}
}

func TestStatus_String(t *testing.T) {
	tests := map[Status]string{
		StatusCreated: "created",
		StatusRunning: "running",
		StatusStopped: "stopped",
		Status(9):     "Status(9)",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}

func TestSimulation_Init_UploadsAndSynchronizes(t *testing.T) {
	sim, r := newTestSimulation(t, input.DefaultBindings())
	start := entity.Placement{X: 0.25, Y: -0.5, Z: 0.1}.WithColor(entity.Color{R: 1})
	mustAdd(t, sim, "hero", entity.NewAvatar("hero", start, 0.1, entity.QuadGeometry(0.1)), true)
	mustAdd(t, sim, "rock", newTestShip(t, "rock", 1, 1), false)
	started := collect(sim.EventBus, event.SimulationStarted)

	mustInit(t, sim)

	if sim.Status() != StatusRunning {
		t.Errorf("Status() = %v, want running", sim.Status())
	}
	if r.Memory().Len() != 4 {
		t.Errorf("device holds %d buffers, want 4", r.Memory().Len())
	}
	u, ok := r.Uniform(0)
	if !ok {
		t.Fatal("no uniform written for slot 0")
	}
	want := render.NewPlacementUniform()
	want.Update(start)
	if u != want {
		t.Errorf("slot 0 uniform = %+v, want %+v", u, want)
	}
	if _, ok := r.Uniform(1); !ok {
		t.Error("no uniform written for slot 1")
	}
	if len(*started) != 1 {
		t.Errorf("SimulationStarted published %d times", len(*started))
	}
	if err := sim.Init(); err == nil {
		t.Error("second Init() succeeded")
	}
}

func TestSimulation_Init_Failures(t *testing.T) {
	tests := []struct {
		name   string
		obj    entity.Object
		target error
	}{
		{"init_graphics_fails", &brokenObject{initErr: errors.New("no device")}, nil},
		{"mesh_missing_after_init", &brokenObject{}, entity.ErrGraphicsNotInitialized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, _ := newTestSimulation(t, input.DefaultBindings())
			mustAdd(t, sim, "broken", tt.obj, false)
			err := sim.Init()
			if err == nil {
				t.Fatal("Init() succeeded")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("Init() error = %v, want %v", err, tt.target)
			}
			if sim.Status() != StatusCreated {
				t.Errorf("Status() = %v after failed Init", sim.Status())
			}
		})
	}
}

func TestSimulation_AddObject(t *testing.T) {
	sim, r := newTestSimulation(t, input.DefaultBindings())
	a := entity.NewAvatar("a", entity.Placement{}, 0.1, entity.QuadGeometry(0.1))
	mustAdd(t, sim, "a", a, true)

	if err := sim.AddObject("a", a, true); !errors.Is(err, ErrDuplicateObject) {
		t.Errorf("duplicate AddObject() error = %v", err)
	}
	if err := sim.AddObject("nil", nil, false); err == nil {
		t.Error("AddObject(nil) succeeded")
	}

	mustInit(t, sim)
	late := entity.NewAvatar("late", entity.Placement{X: 0.5}, 0.1, entity.QuadGeometry(0.1))
	mustAdd(t, sim, "late", late, false)
	if _, err := late.Mesh(); err != nil {
		t.Errorf("late object not initialized: %v", err)
	}
	if u, ok := r.Uniform(1); !ok || u.Location.X() != 0.5 {
		t.Errorf("late object uniform = %+v, %v", u, ok)
	}

	if obj, ok := sim.Object("late"); !ok || obj != late {
		t.Error("Object(late) not found")
	}
	if _, ok := sim.Object("missing"); ok {
		t.Error("Object(missing) found")
	}
	names := sim.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "late" {
		t.Errorf("Names() = %v", names)
	}
}

func TestSimulation_HandleEvent(t *testing.T) {
	bindings := input.DefaultBindings()
	tests := []struct {
		name         string
		bindings     input.KeyBinding
		ev           input.Event
		wantConsumed bool
		wantQuit     bool
	}{
		{"bound_press", bindings, input.KeyPress(input.KeyW), true, false},
		{"bound_release", bindings, input.KeyRelease(input.KeyW), false, false},
		{"unbound_key", bindings, input.KeyPress(input.KeySpace), false, false},
		{"escape_quits", bindings, input.KeyPress(input.KeyEscape), false, true},
		{"escape_release_ignored", bindings, input.KeyRelease(input.KeyEscape), false, false},
		{"bound_escape_consumed", input.KeyBinding{input.KeyEscape: input.MoveDown}, input.KeyPress(input.KeyEscape), true, false},
		{"close_quits", bindings, input.Event{Kind: input.CloseEvent}, false, true},
		{"resize_ignored", bindings, input.Event{Kind: input.ResizeEvent}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, _ := newTestSimulation(t, tt.bindings)
			quits := collect(sim.EventBus, event.QuitRequested)
			consumed, quit := sim.HandleEvent(tt.ev)
			if consumed != tt.wantConsumed || quit != tt.wantQuit {
				t.Errorf("HandleEvent() = %v, %v; want %v, %v", consumed, quit, tt.wantConsumed, tt.wantQuit)
			}
			if quit != (len(*quits) == 1) {
				t.Errorf("QuitRequested published %d times, quit = %v", len(*quits), quit)
			}
		})
	}
}

func TestSimulation_HandleEvent_LogsHeldCount(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerWithWriter(&buf, slog.LevelDebug)
	sim := NewSimulation(newController(t, input.DefaultBindings()), render.NewNullRenderer(nil), logger)

	sim.HandleEvent(input.KeyPress(input.KeyW))
	sim.HandleEvent(input.KeyPress(input.KeyD))
	sim.HandleEvent(input.KeyRelease(input.KeyW))

	var held []float64
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var rec map[string]interface{}
		if err := dec.Decode(&rec); err != nil {
			t.Fatalf("decode log record: %v", err)
		}
		if rec["msg"] == "Key event" {
			held = append(held, rec["held"].(float64))
		}
	}
	want := []float64{1, 2, 1}
	if len(held) != len(want) {
		t.Fatalf("logged %d key events, want %d", len(held), len(want))
	}
	for i := range want {
		if held[i] != want[i] {
			t.Errorf("key event %d held = %v, want %v", i, held[i], want[i])
		}
	}
}

func TestSimulation_Scenario_WASD(t *testing.T) {
	sim, r := newTestSimulation(t, input.DefaultBindings())
	a := entity.NewAvatar("hero", entity.Placement{}, 0.25, entity.QuadGeometry(0.1))
	mustAdd(t, sim, "hero", a, true)
	mustInit(t, sim)
	moves := collect(sim.EventBus, event.ObjectMoved)

	sim.HandleEvent(input.KeyPress(input.KeyW))
	if err := sim.Update(1.0 / 60); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if p := a.Placement(); p.Y != 0.25 || p.X != 0 {
		t.Errorf("placement after W = %+v", p)
	}
	u, _ := r.Uniform(0)
	if u.Location.Y() != 0.25 {
		t.Errorf("uniform not synchronized: %+v", u)
	}

	sim.HandleEvent(input.KeyRelease(input.KeyW))
	if err := sim.Update(1.0 / 60); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if p := a.Placement(); p.Y != 0.25 {
		t.Errorf("placement moved after release: %+v", p)
	}

	if len(*moves) != 1 {
		t.Fatalf("ObjectMoved published %d times, want 1", len(*moves))
	}
	mv := (*moves)[0].(*event.MoveEvent)
	if mv.Object != "hero" || mv.Y != 0.25 || mv.Frame != 1 {
		t.Errorf("move event = %+v", mv)
	}
	if sim.CurrentTick != 2 {
		t.Errorf("CurrentTick = %d, want 2", sim.CurrentTick)
	}
}

func TestSimulation_InputOnlyReachesRespondingObjects(t *testing.T) {
	sim, _ := newTestSimulation(t, input.DefaultBindings())
	hero := entity.NewAvatar("hero", entity.Placement{}, 0.1, entity.QuadGeometry(0.1))
	idle := entity.NewAvatar("idle", entity.Placement{}, 0.1, entity.QuadGeometry(0.1))
	mustAdd(t, sim, "hero", hero, true)
	mustAdd(t, sim, "idle", idle, false)
	mustInit(t, sim)

	sim.HandleEvent(input.KeyPress(input.KeyD))
	if err := sim.Update(0.01); err != nil {
		t.Fatal(err)
	}
	if hero.Placement().X == 0 {
		t.Error("input-driven object did not move")
	}
	if idle.Placement().X != 0 {
		t.Error("idle object moved")
	}
}

func TestSimulation_ShipThrust(t *testing.T) {
	sim, _ := newTestSimulation(t, input.DefaultBindings())
	ship := newTestShip(t, "ship", 2, 4)
	mustAdd(t, sim, "ship", ship, true)
	mustInit(t, sim)

	sim.HandleEvent(input.KeyPress(input.KeyD))
	if err := sim.Update(0.1); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	// a = 4/2 = 2, first step from rest: v = 0.5*dt*a
	if v := ship.Kinetics().Velocity(); math.Abs(v.X-0.1) > epsilon || v.Y != 0 {
		t.Errorf("velocity = %+v, want (0.1, 0)", v)
	}
	if len(ship.PendingForces()) != 0 {
		t.Error("forces survived the step")
	}
}

// The uniform written to the device must carry the ship's integrated
// position, both as the simulation records it and as the bytes the
// renderer received.
func TestSimulation_ShipPositionReachesUniform(t *testing.T) {
	sim, r := newTestSimulation(t, input.DefaultBindings())
	ship := newTestShip(t, "ship", 2, 4)
	mustAdd(t, sim, "ship", ship, true)
	mustInit(t, sim)

	sim.HandleEvent(input.KeyPress(input.KeyD))
	sim.HandleEvent(input.KeyPress(input.KeyW))
	for frame := 1; frame <= 5; frame++ {
		if err := sim.Update(0.1); err != nil {
			t.Fatalf("Update() frame %d error = %v", frame, err)
		}

		pos := ship.Kinetics().Position()
		if pos.X <= 0 || pos.Y <= 0 {
			t.Fatalf("frame %d: ship did not move, position = %+v", frame, pos)
		}

		recorded, ok := sim.Uniform("ship")
		if !ok {
			t.Fatalf("frame %d: no uniform recorded", frame)
		}
		written, ok := r.Uniform(0)
		if !ok {
			t.Fatalf("frame %d: no uniform written to slot 0", frame)
		}
		decoded, err := render.UnpackPlacementUniform(written.Bytes())
		if err != nil {
			t.Fatalf("frame %d: UnpackPlacementUniform() error = %v", frame, err)
		}

		for name, u := range map[string]render.PlacementUniform{
			"recorded": recorded,
			"written":  written,
			"decoded":  decoded,
		} {
			got := u.Position()
			if math.Abs(float64(got.X())-pos.X) > epsilon || math.Abs(float64(got.Y())-pos.Y) > epsilon {
				t.Errorf("frame %d: %s uniform position = (%v, %v), want (%v, %v)",
					frame, name, got.X(), got.Y(), pos.X, pos.Y)
			}
		}
	}
}

func TestSimulation_FrameTimeCapped(t *testing.T) {
	sim, _ := newTestSimulation(t, input.DefaultBindings())
	ship := newTestShip(t, "ship", 2, 4)
	mustAdd(t, sim, "ship", ship, true)
	mustInit(t, sim)

	sim.HandleEvent(input.KeyPress(input.KeyD))
	if err := sim.Update(5); err != nil {
		t.Fatal(err)
	}
	if v := ship.Kinetics().Velocity(); math.Abs(v.X-0.5*MaxFrameTime*2) > epsilon {
		t.Errorf("velocity = %+v, want dt capped at %v", v, MaxFrameTime)
	}
}

func TestSimulation_RotationUnsupported(t *testing.T) {
	b := input.DefaultBindings()
	b[input.KeyQ] = input.RotateLeft
	sim, _ := newTestSimulation(t, b)
	a := entity.NewAvatar("hero", entity.Placement{}, 0.1, entity.QuadGeometry(0.1))
	mustAdd(t, sim, "hero", a, true)
	mustInit(t, sim)
	unsupported := collect(sim.EventBus, event.CommandUnsupported)
	frameErrors := collect(sim.EventBus, event.FrameError)

	sim.HandleEvent(input.KeyPress(input.KeyQ))
	sim.HandleEvent(input.KeyPress(input.KeyW))
	if err := sim.Update(0.01); err != nil {
		t.Errorf("Update() error = %v, unsupported commands are reported by event", err)
	}

	if len(*unsupported) != 1 {
		t.Fatalf("CommandUnsupported published %d times", len(*unsupported))
	}
	ce := (*unsupported)[0].(*event.CommandEvent)
	if ce.Object != "hero" || ce.Command != "RotateLeft" || !errors.Is(ce.Err, input.ErrUnsupportedCommand) {
		t.Errorf("command event = %+v", ce)
	}
	if len(*frameErrors) != 0 {
		t.Errorf("FrameError published for an unsupported command")
	}
	if a.Placement().Y == 0 {
		t.Error("movement skipped alongside the unsupported rotation")
	}
}

func TestSimulation_InvalidTimeStep(t *testing.T) {
	sim, _ := newTestSimulation(t, input.DefaultBindings())
	ship := newTestShip(t, "ship", 1, 1)
	a := entity.NewAvatar("hero", entity.Placement{}, 0.1, entity.QuadGeometry(0.1))
	mustAdd(t, sim, "ship", ship, true)
	mustAdd(t, sim, "hero", a, true)
	mustInit(t, sim)
	frameErrors := collect(sim.EventBus, event.FrameError)

	sim.HandleEvent(input.KeyPress(input.KeyW))
	err := sim.Update(math.NaN())
	if !errors.Is(err, physics.ErrInvalidTimeStep) {
		t.Fatalf("Update(NaN) error = %v, want ErrInvalidTimeStep", err)
	}
	if len(*frameErrors) != 1 {
		t.Errorf("FrameError published %d times", len(*frameErrors))
	}
	if ship.Kinetics().Position() != (physics.Vector2D{}) {
		t.Error("ship moved on a rejected step")
	}
	if a.Placement().Y == 0 {
		t.Error("rest of the frame skipped after a step failure")
	}
}

func TestSimulation_Render(t *testing.T) {
	sim, r := newTestSimulation(t, input.DefaultBindings())
	mustAdd(t, sim, "a", entity.NewAvatar("a", entity.Placement{}, 0.1, entity.QuadGeometry(0.1)), true)
	mustAdd(t, sim, "b", newTestShip(t, "b", 1, 1), false)

	if err := sim.Render(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Render() before Init error = %v", err)
	}

	mustInit(t, sim)
	if err := sim.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(r.Draws()) != 2 || r.Frames() != 1 {
		t.Errorf("draws = %d frames = %d", len(r.Draws()), r.Frames())
	}
	if err := sim.Render(); err != nil {
		t.Fatal(err)
	}
	if len(r.Draws()) != 2 {
		t.Errorf("draws accumulated across frames: %d", len(r.Draws()))
	}
}

func TestSimulation_Stop(t *testing.T) {
	sim, _ := newTestSimulation(t, input.DefaultBindings())
	ship := newTestShip(t, "ship", 1, 1)
	mustAdd(t, sim, "ship", ship, true)
	mustInit(t, sim)
	stopped := collect(sim.EventBus, event.SimulationStopped)

	sim.HandleEvent(input.KeyPress(input.KeyW))
	ship.MoveUp()
	sim.Stop()

	if sim.Controller.HeldCount() != 0 {
		t.Error("commands still held after Stop")
	}
	if len(ship.PendingForces()) != 0 {
		t.Error("forces still queued after Stop")
	}
	if err := sim.Update(0.1); err != nil {
		t.Errorf("Update() after Stop error = %v", err)
	}
	if sim.CurrentTick != 0 || ship.Kinetics().Position() != (physics.Vector2D{}) {
		t.Error("Update() after Stop advanced the simulation")
	}

	sim.Stop()
	if len(*stopped) != 1 {
		t.Errorf("SimulationStopped published %d times", len(*stopped))
	}
	if sim.Status() != StatusStopped {
		t.Errorf("Status() = %v", sim.Status())
	}
}

func TestSimulation_UpdateBeforeInit(t *testing.T) {
	sim, _ := newTestSimulation(t, input.DefaultBindings())
	a := entity.NewAvatar("a", entity.Placement{}, 0.1, entity.QuadGeometry(0.1))
	mustAdd(t, sim, "a", a, true)
	sim.HandleEvent(input.KeyPress(input.KeyW))
	if err := sim.Update(0.1); err != nil {
		t.Fatal(err)
	}
	if a.Placement().Y != 0 {
		t.Error("Update() before Init moved an object")
	}
}

func TestNewSimulationFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Entities = append(cfg.Entities, config.EntityConfig{Kind: config.KindAvatar, Size: 0.1, Speed: 0.02})
	sim, err := NewSimulationFromConfig(cfg, render.NewNullRenderer(nil), nil)
	if err != nil {
		t.Fatalf("NewSimulationFromConfig() error = %v", err)
	}
	names := sim.Names()
	if len(names) != 3 || names[0] != "player" || names[1] != "drifter" || names[2] != "avatar-2" {
		t.Errorf("Names() = %v", names)
	}

	drifter, _ := sim.Object("drifter")
	ship, ok := drifter.(*entity.Ship)
	if !ok {
		t.Fatalf("drifter is %T, want *entity.Ship", drifter)
	}
	if ship.Kinetics().Mass() != 2 || ship.Kinetics().Policy() != physics.ScaledPosition {
		t.Errorf("ship kinetics = mass %v policy %v", ship.Kinetics().Mass(), ship.Kinetics().Policy())
	}
	if p := ship.Placement(); !p.HasColor || p.Color.R != 0.9 || p.X != 0.5 {
		t.Errorf("ship placement = %+v", p)
	}

	mustInit(t, sim)
	sim.HandleEvent(input.KeyPress(input.KeyA))
	if err := sim.Update(cfg.Simulation.TimeStep); err != nil {
		t.Fatal(err)
	}
	player, _ := sim.Object("player")
	if player.Placement().X != -0.01 {
		t.Errorf("player X = %v, want -0.01", player.Placement().X)
	}
	if drifter.Placement().X != 0.5 {
		t.Error("non-input ship moved without forces")
	}
}

func TestNewSimulationFromConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad_binding", func(c *config.Config) { c.Input.Bindings = map[string]string{"W": "Fly"} }},
		{"bad_policy", func(c *config.Config) { c.Simulation.PositionIntegration = "euler" }},
		{"bad_kind", func(c *config.Config) { c.Entities[0].Kind = "planet" }},
		{"bad_mass", func(c *config.Config) { c.Entities[1].Mass = -1 }},
		{"duplicate_name", func(c *config.Config) { c.Entities[1].Name = "player" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			if _, err := NewSimulationFromConfig(cfg, render.NewNullRenderer(nil), nil); err == nil {
				t.Error("NewSimulationFromConfig() succeeded")
			}
		})
	}
}
