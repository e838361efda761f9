// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/go-kinetics/pkg/entity"
	"github.com/opd-ai/go-kinetics/pkg/logging"
)

// NullRenderer records frames and logs them instead of drawing.
type NullRenderer struct {
	*Frame
	logger *logging.Logger
	frames uint64
}

// NewNullRenderer creates a new NullRenderer with structured logging. A
// nil logger discards output.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &NullRenderer{
		Frame:  NewFrame(nil),
		logger: logger,
	}
}

// Clear implements entity.Renderer.
func (d *NullRenderer) Clear() {
	d.Frame.Clear()
	d.logger.Debug(context.Background(), "Clear called")
}

// Present implements entity.Renderer.
func (d *NullRenderer) Present() error {
	d.frames++
	ctx := context.Background()
	for _, dc := range d.Draws() {
		pos := dc.Uniform.Position()
		d.logger.Debug(ctx, "Draw",
			"frame", d.frames,
			"slot", dc.Slot,
			"x", pos.X(),
			"y", pos.Y(),
			"z", pos.Z(),
			"indices", dc.Mesh.IndexCount,
		)
	}
	d.logger.Debug(ctx, "Present called", "frame", d.frames, "draws", len(d.draws))
	return nil
}

// Frames returns how many frames have been presented.
func (d *NullRenderer) Frames() uint64 {
	return d.frames
}

var _ entity.Renderer = (*NullRenderer)(nil)
