package entity

import "testing"

func TestAvatar_Moves(t *testing.T) {
	tests := []struct {
		name     string
		moves    []func(*Avatar)
		expected Placement
	}{
		{"up", []func(*Avatar){(*Avatar).MoveUp}, Placement{Y: 0.5}},
		{"down", []func(*Avatar){(*Avatar).MoveDown}, Placement{Y: -0.5}},
		{"left", []func(*Avatar){(*Avatar).MoveLeft}, Placement{X: -0.5}},
		{"right", []func(*Avatar){(*Avatar).MoveRight}, Placement{X: 0.5}},
		{"up_left", []func(*Avatar){(*Avatar).MoveUp, (*Avatar).MoveLeft}, Placement{X: -0.5, Y: 0.5}},
		{"opposites_cancel", []func(*Avatar){(*Avatar).MoveUp, (*Avatar).MoveDown}, Placement{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAvatar("a", Placement{}, 0.5, QuadGeometry(0.1))
			for _, m := range tt.moves {
				m(a)
			}
			if got := a.Placement(); got != tt.expected {
				t.Errorf("Placement() = %+v, expected %+v", got, tt.expected)
			}
		})
	}
}

func TestAvatar_KeepsDepthAndColor(t *testing.T) {
	start := Placement{Z: 0.3}.WithColor(Color{G: 1})
	a := NewAvatar("a", start, 1, QuadGeometry(0.1))
	a.MoveRight()
	got := a.Placement()
	if got.Z != 0.3 || !got.HasColor || got.Color != (Color{G: 1}) {
		t.Errorf("Placement() = %+v lost depth or color", got)
	}
	if a.Step() != 1 {
		t.Errorf("Step() = %v, expected 1", a.Step())
	}
}

func TestAvatar_IsNotPhysical(t *testing.T) {
	var obj Object = NewAvatar("a", Placement{}, 1, QuadGeometry(0.1))
	if _, ok := obj.(Physical); ok {
		t.Error("Avatar should not implement Physical")
	}
	if _, ok := obj.(Rotator); ok {
		t.Error("Avatar should not implement Rotator")
	}
}
