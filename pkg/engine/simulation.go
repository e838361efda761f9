// pkg/engine/simulation.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/opd-ai/go-kinetics/pkg/entity"
	"github.com/opd-ai/go-kinetics/pkg/event"
	"github.com/opd-ai/go-kinetics/pkg/input"
	"github.com/opd-ai/go-kinetics/pkg/logging"
	"github.com/opd-ai/go-kinetics/pkg/render"
)

// Status is the lifecycle state of a Simulation
type Status int

const (
	StatusCreated Status = iota
	StatusRunning
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MaxFrameTime caps the dt handed to physical objects, in seconds.
const MaxFrameTime = 0.1

var (
	// ErrNotRunning is returned by Render before Init.
	ErrNotRunning = errors.New("engine: simulation not running")
	// ErrDuplicateObject is returned when an object name is reused.
	ErrDuplicateObject = errors.New("engine: duplicate object name")
)

// body is one object tracked by the simulation, with the uniform slot that
// mirrors its placement.
type body struct {
	name            string
	object          entity.Object
	respondsToInput bool
	slot            int
	uniform         render.PlacementUniform
	mesh            entity.Mesh
	last            entity.Placement
}

// Simulation owns the objects, routes input to them, integrates physical
// objects and keeps one uniform per object in sync with its placement.
// The frame methods (HandleEvent, Update, Render, Stop) are meant to be
// called from a single loop goroutine; Snapshot may be called from any.
type Simulation struct {
	Controller  *input.Controller
	Renderer    entity.Renderer
	EventBus    *event.Bus
	CurrentTick uint64

	bodies []*body
	byName map[string]*body
	status Status
	mu     sync.RWMutex

	logger *logging.Logger
	ctx    context.Context
}

// NewSimulation creates a simulation drawing through renderer. A nil
// logger discards output.
func NewSimulation(controller *input.Controller, renderer entity.Renderer, logger *logging.Logger) *Simulation {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Simulation{
		Controller: controller,
		Renderer:   renderer,
		EventBus:   event.NewEventBus(),
		byName:     make(map[string]*body),
		logger:     logger,
		ctx:        logging.WithSessionID(context.Background(), ""),
	}
}

// Context returns the context carrying this run's session id.
func (s *Simulation) Context() context.Context {
	return s.ctx
}

// Status returns the lifecycle state.
func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// AddObject registers obj under name. Objects added after Init have their
// graphics initialized immediately.
func (s *Simulation) AddObject(name string, obj entity.Object, respondsToInput bool) error {
	if obj == nil {
		return fmt.Errorf("engine: object %q is nil", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateObject, name)
	}
	b := &body{
		name:            name,
		object:          obj,
		respondsToInput: respondsToInput,
		slot:            len(s.bodies),
		uniform:         render.NewPlacementUniform(),
	}
	if s.status == StatusRunning {
		if err := s.initBody(b); err != nil {
			return err
		}
	}
	s.bodies = append(s.bodies, b)
	s.byName[name] = b
	return nil
}

// Object returns the object registered under name.
func (s *Simulation) Object(name string) (entity.Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return b.object, true
}

// Names returns the object names in slot order.
func (s *Simulation) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.bodies))
	for i, b := range s.bodies {
		names[i] = b.name
	}
	return names
}

// Init uploads every object's mesh and writes the initial uniforms. A
// failure here is fatal for the run.
func (s *Simulation) Init() error {
	s.mu.Lock()
	if s.status != StatusCreated {
		s.mu.Unlock()
		return fmt.Errorf("engine: Init called in state %s", s.status)
	}
	for _, b := range s.bodies {
		if err := s.initBody(b); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.status = StatusRunning
	count := len(s.bodies)
	s.mu.Unlock()

	s.logger.Info(s.ctx, "Simulation started", "objects", count)
	s.EventBus.Publish(&event.BaseEvent{EventType: event.SimulationStarted, Source: s})
	return nil
}

func (s *Simulation) initBody(b *body) error {
	if err := b.object.InitGraphics(s.Renderer.Device()); err != nil {
		return logging.WrapError(err, "init graphics for %q", b.name)
	}
	mesh, err := b.object.Mesh()
	if err != nil {
		return logging.WrapError(err, "mesh for %q", b.name)
	}
	b.mesh = mesh
	b.last = b.object.Placement()
	b.uniform.Update(b.last)
	if err := s.Renderer.WriteUniform(b.slot, b.uniform.Bytes()); err != nil {
		return logging.WrapError(err, "initial uniform for %q", b.name)
	}
	return nil
}

// HandleEvent feeds one platform event to the controller. quit is set for
// close events and for an Escape press the controller did not consume.
func (s *Simulation) HandleEvent(ev input.Event) (consumed, quit bool) {
	consumed = s.Controller.Process(ev)
	if ev.Kind == input.KeyEvent {
		s.logger.Debug(s.ctx, "Key event",
			"key", ev.Key.String(),
			"pressed", ev.Pressed,
			"consumed", consumed,
			"held", s.Controller.HeldCount(),
		)
	}
	switch {
	case ev.Kind == input.CloseEvent:
		quit = true
	case !consumed && ev.Kind == input.KeyEvent && ev.Pressed && ev.Key == input.KeyEscape:
		quit = true
	}
	if quit {
		s.logger.Debug(s.ctx, "Quit requested", "kind", int(ev.Kind), "key", ev.Key.String())
		s.EventBus.Publish(&event.BaseEvent{EventType: event.QuitRequested, Source: s})
	}
	return consumed, quit
}

// Update runs one frame: held commands are applied to input-driven
// objects, physical objects integrate dt seconds, and every uniform is
// rewritten from its object's placement. Unsupported commands are logged
// and published, not returned. Other failures are joined and returned
// after the whole frame has run. Update does nothing unless running.
func (s *Simulation) Update(dt float64) error {
	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return nil
	}
	s.CurrentTick++
	frame := s.CurrentTick
	if dt > MaxFrameTime {
		dt = MaxFrameTime
	}

	var (
		errs    []error
		pending []event.Event
	)
	for _, b := range s.bodies {
		if b.respondsToInput {
			if err := s.Controller.Update(b.object); err != nil {
				for _, e := range splitErrors(err) {
					var unsupported *input.UnsupportedCommandError
					if errors.As(e, &unsupported) {
						s.logger.Warn(s.ctx, "Command not supported", "object", b.name, "command", unsupported.Command.String())
						pending = append(pending, event.NewCommandEvent(event.CommandUnsupported, s, b.name, unsupported.Command.String(), e))
						continue
					}
					errs = append(errs, fmt.Errorf("object %q: %w", b.name, e))
				}
			}
		}
		if p, ok := b.object.(entity.Physical); ok {
			if err := p.Step(dt); err != nil {
				s.logger.Error(s.ctx, "Step failed", err, "object", b.name, "frame", frame)
				errs = append(errs, err)
			}
		}
		if err := s.sync(b, frame, &pending); err != nil {
			errs = append(errs, err)
		}
	}
	s.mu.Unlock()

	for _, ev := range pending {
		s.EventBus.Publish(ev)
	}
	err := errors.Join(errs...)
	if err != nil {
		s.EventBus.Publish(event.NewFrameEvent(event.FrameError, s, frame, err))
	}
	return err
}

// sync copies the object's placement into its uniform and uploads it.
func (s *Simulation) sync(b *body, frame uint64, pending *[]event.Event) error {
	p := b.object.Placement()
	b.uniform.Update(p)
	if p.X != b.last.X || p.Y != b.last.Y || p.Z != b.last.Z {
		s.logger.Debug(s.ctx, "Object moved", "object", b.name, "x", p.X, "y", p.Y, "z", p.Z, "frame", frame)
		*pending = append(*pending, event.NewMoveEvent(s, b.name, p.X, p.Y, p.Z, frame))
	}
	b.last = p
	if err := s.Renderer.WriteUniform(b.slot, b.uniform.Bytes()); err != nil {
		return fmt.Errorf("object %q: %w", b.name, err)
	}
	return nil
}

// splitErrors flattens an errors.Join result.
func splitErrors(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// Render clears the target, issues one indexed draw per object and
// presents the frame.
func (s *Simulation) Render() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status == StatusCreated {
		return ErrNotRunning
	}

	s.Renderer.Clear()
	var errs []error
	for _, b := range s.bodies {
		if err := s.Renderer.DrawIndexed(b.slot, b.mesh); err != nil {
			errs = append(errs, fmt.Errorf("draw %q: %w", b.name, err))
		}
	}
	if err := s.Renderer.Present(); err != nil {
		errs = append(errs, fmt.Errorf("present: %w", err))
	}
	return errors.Join(errs...)
}

// Stop releases every held command, drops queued forces and ends the run.
// Later Update calls do nothing. Stop is idempotent.
func (s *Simulation) Stop() {
	s.mu.Lock()
	if s.status == StatusStopped {
		s.mu.Unlock()
		return
	}
	s.status = StatusStopped
	s.Controller.Reset()
	for _, b := range s.bodies {
		if c, ok := b.object.(interface{ ClearForces() }); ok {
			c.ClearForces()
		}
	}
	ticks := s.CurrentTick
	s.mu.Unlock()

	s.logger.Info(s.ctx, "Simulation stopped", "ticks", ticks)
	s.EventBus.Publish(&event.BaseEvent{EventType: event.SimulationStopped, Source: s})
}

// Snapshot returns the last synchronized placement of every object, keyed
// by name.
func (s *Simulation) Snapshot() map[string]entity.Placement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]entity.Placement, len(s.bodies))
	for _, b := range s.bodies {
		out[b.name] = b.last
	}
	return out
}

// Uniform returns the payload last written for the named object.
func (s *Simulation) Uniform(name string) (render.PlacementUniform, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byName[name]
	if !ok {
		return render.PlacementUniform{}, false
	}
	return b.uniform, true
}

var _ render.Simulation = (*Simulation)(nil)
