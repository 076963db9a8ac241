package render

import (
	"fmt"
	"strings"

	"github.com/opd-ai/go-orbiter/pkg/engine"
	"github.com/opd-ai/go-orbiter/pkg/physics"
)

// TerminalRenderer draws the scene as ASCII on a character grid with a
// HUD line underneath. The view stays centered on the rocket.
type TerminalRenderer struct {
	width  int
	height int
	buffer [][]rune
	scale  float64
	center physics.Vector2D
}

// NewTerminalRenderer creates a renderer with the given grid size.
// scale is world units per character cell.
func NewTerminalRenderer(width, height int, scale float64) *TerminalRenderer {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}

	return &TerminalRenderer{
		width:  width,
		height: height,
		buffer: buffer,
		scale:  scale,
	}
}

// SetCenter points the view at a world position.
func (r *TerminalRenderer) SetCenter(pos physics.Vector2D) {
	r.center = pos
}

// worldToScreen converts world coordinates to grid coordinates. World
// Y grows upward, grid Y downward.
func (r *TerminalRenderer) worldToScreen(pos physics.Vector2D) (int, int) {
	screenX := int((pos.X-r.center.X)/r.scale + float64(r.width)/2)
	screenY := int(-(pos.Y-r.center.Y)/r.scale + float64(r.height)/2)
	return screenX, screenY
}

// Render draws one snapshot to stdout.
func (r *TerminalRenderer) Render(state *engine.SimulationState) {
	if state == nil {
		return
	}
	fmt.Print("\033[H\033[2J")
	fmt.Print(r.Frame(state))
}

// Frame renders one snapshot to a string: bordered grid plus HUD.
func (r *TerminalRenderer) Frame(state *engine.SimulationState) string {
	r.clear()
	r.SetCenter(state.Rocket.Position)

	for _, body := range state.Bodies {
		r.drawBody(body)
	}
	r.drawRocket(state.Rocket)

	var sb strings.Builder
	sb.WriteString("+" + strings.Repeat("-", r.width) + "+\n")
	for y := range r.buffer {
		sb.WriteRune('|')
		for x := range r.buffer[y] {
			sb.WriteRune(r.buffer[y][x])
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("+" + strings.Repeat("-", r.width) + "+\n")
	sb.WriteString(r.hudLine(state))
	sb.WriteRune('\n')
	return sb.String()
}

// clear blanks the grid.
func (r *TerminalRenderer) clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = ' '
		}
	}
}

// drawBody fills the body's disc with 'O', or 'o' for a disc smaller
// than one cell.
func (r *TerminalRenderer) drawBody(body engine.BodyState) {
	cells := int(body.Radius / r.scale)
	if cells < 1 {
		x, y := r.worldToScreen(body.Position)
		r.put(x, y, 'o')
		return
	}

	cx, cy := r.worldToScreen(body.Position)
	for dy := -cells; dy <= cells; dy++ {
		for dx := -cells; dx <= cells; dx++ {
			if dx*dx+dy*dy <= cells*cells {
				r.put(cx+dx, cy+dy, 'O')
			}
		}
	}
}

// drawRocket places the rocket glyph: '^' flying, '*' crashed, '#'
// parked in orbit.
func (r *TerminalRenderer) drawRocket(rocket engine.RocketState) {
	glyph := '^'
	if rocket.HasCrashed {
		glyph = '*'
	} else if rocket.IsInOrbit {
		glyph = '#'
	}

	x, y := r.worldToScreen(rocket.Position)
	r.put(x, y, glyph)
}

// put writes a glyph when the cell is on-grid.
func (r *TerminalRenderer) put(x, y int, glyph rune) {
	if x >= 0 && x < r.width && y >= 0 && y < r.height {
		r.buffer[y][x] = glyph
	}
}

// hudLine formats the single status line under the grid.
func (r *TerminalRenderer) hudLine(state *engine.SimulationState) string {
	rocket := state.Rocket

	flags := make([]string, 0, 3)
	if rocket.HasCrashed {
		flags = append(flags, "CRASHED")
	}
	if rocket.OutOfFuel {
		flags = append(flags, "NO FUEL")
	}
	if rocket.IsInOrbit {
		flags = append(flags, "ORBIT "+rocket.OrbitPeriodText)
	}
	flagText := ""
	if len(flags) > 0 {
		flagText = "  [" + strings.Join(flags, " | ") + "]"
	}

	return fmt.Sprintf("fuel %5.1f%%  alt %7.2f  spd %6.3f  near %-10s x%.1f%s",
		rocket.FuelPercent,
		rocket.Altitude,
		rocket.Speed,
		rocket.ClosestBody,
		state.SpeedMultiplier,
		flagText,
	)
}
