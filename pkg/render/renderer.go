// pkg/render/renderer.go

// Package render draws simulation snapshots for human consumption. It
// is a pure consumer: renderers read state copies and never touch the
// engine's live entities.
package render

import (
	"context"

	"github.com/opd-ai/go-orbiter/pkg/engine"
	"github.com/opd-ai/go-orbiter/pkg/logging"
)

// Renderer draws one state snapshot per frame.
type Renderer interface {
	Render(state *engine.SimulationState)
}

// NullRenderer discards frames, logging them at debug level. Useful
// for headless hosts and tests.
type NullRenderer struct {
	logger *logging.Logger
}

// NewNullRenderer creates a NullRenderer.
func NewNullRenderer() *NullRenderer {
	return &NullRenderer{
		logger: logging.NewLogger(),
	}
}

// Render implements Renderer.
func (d *NullRenderer) Render(state *engine.SimulationState) {
	if state == nil {
		return
	}
	d.logger.Debug(context.Background(), "frame discarded",
		"tick", state.Tick,
		"altitude", state.Rocket.Altitude,
		"fuel_percent", state.Rocket.FuelPercent,
	)
}
