package search

import (
	"time"

	"github.com/gaoych/bean-analyze/internal/layout"
)

// Centering parameters: the viewport pans and scales so the target sits at
// the midpoint at a fixed zoom, animated over a fixed duration.
const (
	CenterZoom     = 1.5
	CenterDuration = 500 * time.Millisecond
)

// Transform is a viewport pan/zoom the renderer animates toward.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Duration int     `json:"durationMs"`
}

// Camera computes viewport transforms for a fixed-size rendering surface.
type Camera struct {
	Width  float64
	Height float64
}

// CenterOn returns the transform that places the given world position at
// the viewport midpoint at CenterZoom.
func (c Camera) CenterOn(p layout.Point) Transform {
	return Transform{
		X:        c.Width/2 - p.X*CenterZoom,
		Y:        c.Height/2 - p.Y*CenterZoom,
		Scale:    CenterZoom,
		Duration: int(CenterDuration / time.Millisecond),
	}
}
