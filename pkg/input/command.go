package input

import (
	"fmt"
	"strings"
)

// Command is a logical action, decoupled from the key that triggers it.
type Command int

const (
	MoveUp Command = iota
	MoveDown
	MoveLeft
	MoveRight
	RotateLeft
	RotateRight
)

// Commands lists every command in dispatch order.
var Commands = []Command{MoveUp, MoveDown, MoveLeft, MoveRight, RotateLeft, RotateRight}

var commandNames = [...]string{
	MoveUp:      "MoveUp",
	MoveDown:    "MoveDown",
	MoveLeft:    "MoveLeft",
	MoveRight:   "MoveRight",
	RotateLeft:  "RotateLeft",
	RotateRight: "RotateRight",
}

func (c Command) String() string {
	if c >= 0 && int(c) < len(commandNames) {
		return commandNames[c]
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Valid reports whether c is one of the declared commands.
func (c Command) Valid() bool {
	return c >= MoveUp && c <= RotateRight
}

// IsRotation reports whether c is one of the reserved rotation commands.
func (c Command) IsRotation() bool {
	return c == RotateLeft || c == RotateRight
}

// ParseCommand resolves a command name, case-insensitively.
func ParseCommand(name string) (Command, error) {
	for i, n := range commandNames {
		if strings.EqualFold(n, name) {
			return Command(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// KeyBinding maps physical keys to commands.
type KeyBinding map[Key]Command

// DefaultBindings returns the WASD movement layout.
func DefaultBindings() KeyBinding {
	return KeyBinding{
		KeyW: MoveUp,
		KeyS: MoveDown,
		KeyA: MoveLeft,
		KeyD: MoveRight,
	}
}
