package input

import (
	"fmt"
	"strings"
)

// Key identifies a physical key independently of the windowing backend.
// Frontends translate their native key codes into Key values.
type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeySpace
	KeyEscape
)

var keyNames = map[Key]string{
	KeyUnknown:    "Unknown",
	KeyW:          "W",
	KeyA:          "A",
	KeyS:          "S",
	KeyD:          "D",
	KeyQ:          "Q",
	KeyE:          "E",
	KeyArrowUp:    "ArrowUp",
	KeyArrowDown:  "ArrowDown",
	KeyArrowLeft:  "ArrowLeft",
	KeyArrowRight: "ArrowRight",
	KeySpace:      "Space",
	KeyEscape:     "Escape",
}

// AllKeys lists every key a frontend may report.
var AllKeys = []Key{
	KeyW, KeyA, KeyS, KeyD, KeyQ, KeyE,
	KeyArrowUp, KeyArrowDown, KeyArrowLeft, KeyArrowRight,
	KeySpace, KeyEscape,
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// ParseKey resolves a key name, case-insensitively.
func ParseKey(name string) (Key, error) {
	for k, n := range keyNames {
		if k != KeyUnknown && strings.EqualFold(n, name) {
			return k, nil
		}
	}
	return KeyUnknown, fmt.Errorf("%w: %q", ErrUnknownKey, name)
}
