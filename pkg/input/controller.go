// Package input turns key transitions into held commands and applies them
// to objects once per tick.
package input

import (
	"errors"
	"fmt"

	"github.com/opd-ai/go-kinetics/pkg/entity"
)

var (
	// ErrUnsupportedCommand marks a held command the target object cannot
	// perform yet. It is reported per command and never aborts a tick.
	ErrUnsupportedCommand = errors.New("input: command not supported")

	ErrUnknownKey     = errors.New("input: unknown key")
	ErrUnknownCommand = errors.New("input: unknown command")
)

// UnsupportedCommandError reports which command could not be applied.
type UnsupportedCommandError struct {
	Command Command
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("input: command %s not supported", e.Command)
}

// Unwrap lets errors.Is match ErrUnsupportedCommand.
func (e *UnsupportedCommandError) Unwrap() error {
	return ErrUnsupportedCommand
}

// EventKind classifies platform events.
type EventKind int

const (
	KeyEvent EventKind = iota
	CloseEvent
	ResizeEvent
)

// Event is a single platform event. Key and Pressed are only meaningful for
// KeyEvent.
type Event struct {
	Kind    EventKind
	Key     Key
	Pressed bool
}

// KeyPress builds a key-down event.
func KeyPress(k Key) Event { return Event{Kind: KeyEvent, Key: k, Pressed: true} }

// KeyRelease builds a key-up event.
func KeyRelease(k Key) Event { return Event{Kind: KeyEvent, Key: k, Pressed: false} }

// Controller tracks which bound commands are currently held. A command stays
// held from its key's press until its release, so Update applies it on every
// tick in between.
type Controller struct {
	bindings KeyBinding
	state    map[Command]bool
}

// NewController creates a controller for a fixed set of bindings. Every
// bound command starts released.
func NewController(bindings KeyBinding) (*Controller, error) {
	c := &Controller{
		bindings: make(KeyBinding, len(bindings)),
		state:    make(map[Command]bool),
	}
	for key, cmd := range bindings {
		if key == KeyUnknown {
			return nil, fmt.Errorf("%w: cannot bind %s", ErrUnknownKey, key)
		}
		if !cmd.Valid() {
			return nil, fmt.Errorf("%w: %s bound to %s", ErrUnknownCommand, cmd, key)
		}
		c.bindings[key] = cmd
		c.state[cmd] = false
	}
	return c, nil
}

// Process applies one platform event. For a bound key it records the new
// held state and returns whether the key went down; the caller should skip
// its own default handling when true. Unbound keys and non-key events are
// ignored and return false.
func (c *Controller) Process(ev Event) bool {
	if ev.Kind != KeyEvent {
		return false
	}
	cmd, ok := c.bindings[ev.Key]
	if !ok {
		return false
	}
	c.state[cmd] = ev.Pressed
	return ev.Pressed
}

// Update invokes the matching capability on obj once for every held
// command. Commands obj cannot perform are collected as
// *UnsupportedCommandError values and joined; the remaining commands are
// still applied. Effects must commute: callers must not rely on the order
// in which held commands are dispatched.
func (c *Controller) Update(obj entity.Object) error {
	var errs []error
	for _, cmd := range Commands {
		if !c.state[cmd] {
			continue
		}
		if err := dispatch(obj, cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func dispatch(obj entity.Object, cmd Command) error {
	if cmd.IsRotation() {
		r, ok := obj.(entity.Rotator)
		if !ok {
			return &UnsupportedCommandError{Command: cmd}
		}
		if cmd == RotateLeft {
			return r.RotateLeft()
		}
		return r.RotateRight()
	}
	switch cmd {
	case MoveUp:
		obj.MoveUp()
	case MoveDown:
		obj.MoveDown()
	case MoveLeft:
		obj.MoveLeft()
	case MoveRight:
		obj.MoveRight()
	default:
		return &UnsupportedCommandError{Command: cmd}
	}
	return nil
}

// Held reports whether cmd is currently held.
func (c *Controller) Held(cmd Command) bool {
	return c.state[cmd]
}

// HeldCount returns the number of commands currently held.
func (c *Controller) HeldCount() int {
	n := 0
	for _, held := range c.state {
		if held {
			n++
		}
	}
	return n
}

// State returns a copy of the held state of every recognized command.
func (c *Controller) State() map[Command]bool {
	out := make(map[Command]bool, len(c.state))
	for cmd, held := range c.state {
		out[cmd] = held
	}
	return out
}

// Bindings returns a copy of the key bindings.
func (c *Controller) Bindings() KeyBinding {
	out := make(KeyBinding, len(c.bindings))
	for k, cmd := range c.bindings {
		out[k] = cmd
	}
	return out
}

// Reset releases every command.
func (c *Controller) Reset() {
	for cmd := range c.state {
		c.state[cmd] = false
	}
}
