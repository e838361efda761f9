// pkg/render/engo/keys.go
package engo

import (
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-kinetics/pkg/input"
)

// keyMap maps every input.Key to the engo key that triggers it.
var keyMap = map[input.Key]engo.Key{
	input.KeyW:          engo.KeyW,
	input.KeyA:          engo.KeyA,
	input.KeyS:          engo.KeyS,
	input.KeyD:          engo.KeyD,
	input.KeyQ:          engo.KeyQ,
	input.KeyE:          engo.KeyE,
	input.KeyArrowUp:    engo.KeyArrowUp,
	input.KeyArrowDown:  engo.KeyArrowDown,
	input.KeyArrowLeft:  engo.KeyArrowLeft,
	input.KeyArrowRight: engo.KeyArrowRight,
	input.KeySpace:      engo.KeySpace,
	input.KeyEscape:     engo.KeyEscape,
}

// ButtonName is the engo button registered for k.
func ButtonName(k input.Key) string {
	return "kinetics." + k.String()
}

// EngoKey returns the engo key for k.
func EngoKey(k input.Key) (engo.Key, bool) {
	ek, ok := keyMap[k]
	return ek, ok
}

// SetupInputBindings registers one engo button per key.
func SetupInputBindings() {
	for _, k := range input.AllKeys {
		if ek, ok := keyMap[k]; ok {
			engo.Input.RegisterButton(ButtonName(k), ek)
		}
	}
}
