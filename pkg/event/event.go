// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Event types published by the simulation runtime
const (
	SimulationStarted  Type = "simulation_started"
	SimulationStopped  Type = "simulation_stopped"
	CommandUnsupported Type = "command_unsupported"
	ObjectMoved        Type = "object_moved"
	FrameError         Type = "frame_error"
	QuitRequested      Type = "quit_requested"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler so it can be removed.
type Subscription struct {
	ID   uint64
	Type Type
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run
// synchronously on the publishing goroutine, in subscription order.
type Bus struct {
	handlers map[Type][]registration
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})
	return &Subscription{ID: id, Type: eventType}
}

// Unsubscribe removes a previously registered handler. Unknown or nil
// subscriptions are ignored.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[sub.Type]
	for i, r := range regs {
		if r.id == sub.ID {
			b.handlers[sub.Type] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	regs := append([]registration(nil), b.handlers[event.GetType()]...)
	b.mu.RUnlock()

	for _, r := range regs {
		r.handler(event)
	}
}

// CommandEvent reports something that happened to a command on an object.
type CommandEvent struct {
	BaseEvent
	Object  string
	Command string
	Err     error
}

// NewCommandEvent creates a new command event
func NewCommandEvent(eventType Type, source interface{}, object, command string, err error) *CommandEvent {
	return &CommandEvent{
		BaseEvent: BaseEvent{EventType: eventType, Source: source},
		Object:    object,
		Command:   command,
		Err:       err,
	}
}

// MoveEvent reports an object's placement after a frame in which it moved.
type MoveEvent struct {
	BaseEvent
	Object  string
	X, Y, Z float32
	Frame   uint64
}

// NewMoveEvent creates a new move event
func NewMoveEvent(source interface{}, object string, x, y, z float32, frame uint64) *MoveEvent {
	return &MoveEvent{
		BaseEvent: BaseEvent{EventType: ObjectMoved, Source: source},
		Object:    object,
		X:         x,
		Y:         y,
		Z:         z,
		Frame:     frame,
	}
}

// FrameEvent reports a per-frame failure or lifecycle transition.
type FrameEvent struct {
	BaseEvent
	Frame uint64
	Err   error
}

// NewFrameEvent creates a new frame event
func NewFrameEvent(eventType Type, source interface{}, frame uint64, err error) *FrameEvent {
	return &FrameEvent{
		BaseEvent: BaseEvent{EventType: eventType, Source: source},
		Frame:     frame,
		Err:       err,
	}
}
