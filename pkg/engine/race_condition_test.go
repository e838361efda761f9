// pkg/engine/race_condition_test.go
package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/go-kinetics/pkg/config"
	"github.com/opd-ai/go-kinetics/pkg/input"
	"github.com/opd-ai/go-kinetics/pkg/render"
)

// TestSimulationConcurrentSnapshot reads placements from other goroutines
// while the loop goroutine runs frames. Run with -race.
func TestSimulationConcurrentSnapshot(t *testing.T) {
	cfg := config.DefaultConfig()
	sim, err := NewSimulationFromConfig(cfg, render.NewNullRenderer(nil), nil)
	if err != nil {
		t.Fatalf("NewSimulationFromConfig() error = %v", err)
	}
	if err := sim.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	var wg sync.WaitGroup
	done := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					snap := sim.Snapshot()
					if len(snap) != len(cfg.Entities) {
						t.Errorf("Snapshot() has %d entries, want %d", len(snap), len(cfg.Entities))
						return
					}
					sim.Uniform("player")
					sim.Status()
					time.Sleep(time.Microsecond)
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		switch i % 40 {
		case 0:
			sim.HandleEvent(input.KeyPress(input.KeyD))
		case 20:
			sim.HandleEvent(input.KeyRelease(input.KeyD))
		}
		if err := sim.Update(cfg.Simulation.TimeStep); err != nil {
			t.Errorf("Update() error = %v", err)
		}
		if err := sim.Render(); err != nil {
			t.Errorf("Render() error = %v", err)
		}
	}
	close(done)
	wg.Wait()
	sim.Stop()

	if sim.CurrentTick != 200 {
		t.Errorf("CurrentTick = %d, want 200", sim.CurrentTick)
	}
}
