package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/go-kinetics/pkg/input"
)

// fromEbitenKey converts an ebiten.Key to an input.Key.
func fromEbitenKey(key ebiten.Key) (input.Key, bool) {
	switch key {
	case ebiten.KeyW:
		return input.KeyW, true
	case ebiten.KeyA:
		return input.KeyA, true
	case ebiten.KeyS:
		return input.KeyS, true
	case ebiten.KeyD:
		return input.KeyD, true
	case ebiten.KeyQ:
		return input.KeyQ, true
	case ebiten.KeyE:
		return input.KeyE, true
	case ebiten.KeyArrowUp:
		return input.KeyArrowUp, true
	case ebiten.KeyArrowDown:
		return input.KeyArrowDown, true
	case ebiten.KeyArrowLeft:
		return input.KeyArrowLeft, true
	case ebiten.KeyArrowRight:
		return input.KeyArrowRight, true
	case ebiten.KeySpace:
		return input.KeySpace, true
	case ebiten.KeyEscape:
		return input.KeyEscape, true
	default:
		return input.KeyUnknown, false
	}
}

// translate turns this tick's key edges into events, presses first.
// Unmapped keys are dropped.
func translate(pressed, released []ebiten.Key) []input.Event {
	var events []input.Event
	for _, k := range pressed {
		if key, ok := fromEbitenKey(k); ok {
			events = append(events, input.KeyPress(key))
		}
	}
	for _, k := range released {
		if key, ok := fromEbitenKey(k); ok {
			events = append(events, input.KeyRelease(key))
		}
	}
	return events
}
