package terminal

import (
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-kinetics/pkg/input"
)

var runeKeys = map[rune]input.Key{
	'w': input.KeyW,
	'a': input.KeyA,
	's': input.KeyS,
	'd': input.KeyD,
	'q': input.KeyQ,
	'e': input.KeyE,
	' ': input.KeySpace,
}

var specialKeys = map[tcell.Key]input.Key{
	tcell.KeyUp:     input.KeyArrowUp,
	tcell.KeyDown:   input.KeyArrowDown,
	tcell.KeyLeft:   input.KeyArrowLeft,
	tcell.KeyRight:  input.KeyArrowRight,
	tcell.KeyEscape: input.KeyEscape,
}

// TranslateKey maps a tcell key event onto an input key.
func TranslateKey(ev *tcell.EventKey) (input.Key, bool) {
	if ev.Key() == tcell.KeyRune {
		k, ok := runeKeys[unicode.ToLower(ev.Rune())]
		return k, ok
	}
	k, ok := specialKeys[ev.Key()]
	return k, ok
}

// KeySource turns tcell events into input events. Terminals report key
// presses (and auto-repeats) but never releases, so a key counts as held
// until no press has arrived for a while. Between the first press and the
// first auto-repeat that while is the repeat delay; after that it is the
// shorter hold timeout.
type KeySource struct {
	holdTimeout time.Duration
	repeatDelay time.Duration
	keys        map[input.Key]heldKey
}

type heldKey struct {
	at        time.Time
	repeating bool
}

// NewKeySource creates a key source. repeatDelay is raised to holdTimeout
// when it is shorter.
func NewKeySource(holdTimeout, repeatDelay time.Duration) *KeySource {
	if repeatDelay < holdTimeout {
		repeatDelay = holdTimeout
	}
	return &KeySource{
		holdTimeout: holdTimeout,
		repeatDelay: repeatDelay,
		keys:        make(map[input.Key]heldKey),
	}
}

// Translate converts one tcell event received at now. Ctrl+C becomes a
// close event, and keys with no input mapping are dropped.
func (s *KeySource) Translate(ev tcell.Event, now time.Time) []input.Event {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC {
			return []input.Event{{Kind: input.CloseEvent}}
		}
		k, ok := TranslateKey(ev)
		if !ok {
			return nil
		}
		_, held := s.keys[k]
		s.keys[k] = heldKey{at: now, repeating: held}
		return []input.Event{input.KeyPress(k)}
	case *tcell.EventResize:
		return []input.Event{{Kind: input.ResizeEvent}}
	}
	return nil
}

// Expire synthesizes releases for keys that have gone quiet for longer
// than their current timeout.
func (s *KeySource) Expire(now time.Time) []input.Event {
	var out []input.Event
	for _, k := range input.AllKeys {
		h, ok := s.keys[k]
		if !ok {
			continue
		}
		timeout := s.repeatDelay
		if h.repeating {
			timeout = s.holdTimeout
		}
		if now.Sub(h.at) >= timeout {
			delete(s.keys, k)
			out = append(out, input.KeyRelease(k))
		}
	}
	return out
}

// Held reports whether k is currently treated as held.
func (s *KeySource) Held(k input.Key) bool {
	_, ok := s.keys[k]
	return ok
}
