package layout

import (
	"math"
	"math/rand"

	"github.com/gaoych/bean-analyze/internal/graph"
)

// Config tunes the force simulation.
type Config struct {
	Width           float64 `yaml:"width" koanf:"width"`
	Height          float64 `yaml:"height" koanf:"height"`
	IdealEdgeLength float64 `yaml:"ideal_edge_length" koanf:"ideal_edge_length"`
	SpringStrength  float64 `yaml:"spring_strength" koanf:"spring_strength"`
	Repulsion       float64 `yaml:"repulsion" koanf:"repulsion"`
	CenterStrength  float64 `yaml:"center_strength" koanf:"center_strength"`
	CollisionRadius float64 `yaml:"collision_radius" koanf:"collision_radius"`
	VelocityDecay   float64 `yaml:"velocity_decay" koanf:"velocity_decay"`
	AlphaDecay      float64 `yaml:"alpha_decay" koanf:"alpha_decay"`
	AlphaMin        float64 `yaml:"alpha_min" koanf:"alpha_min"`
}

// DefaultConfig returns the layout tuning used when none is configured.
func DefaultConfig() Config {
	return Config{
		Width:           1200,
		Height:          800,
		IdealEdgeLength: 120,
		SpringStrength:  0.08,
		Repulsion:       1800,
		CenterStrength:  0.02,
		CollisionRadius: 28,
		VelocityDecay:   0.6,
		AlphaDecay:      0.025,
		AlphaMin:        0.003,
	}
}

// Point is one node position reported to the renderer.
type Point struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type body struct {
	id     string
	x, y   float64
	vx, vy float64
	pinned bool
}

// Engine relaxes node positions for one snapshot. A new Engine is built per
// snapshot load; velocities and pins never carry over between snapshots.
// All methods must be called from the single goroutine driving the session.
type Engine struct {
	cfg     Config
	bodies  []*body
	byID    map[string]*body
	edges   [][2]int
	alpha   float64
	stopped bool

	// OnTick, when set, is invoked with the current positions after every
	// relaxation step.
	OnTick func([]Point)
}

// New builds an engine for the given snapshot, resolving edge endpoints to
// node indices once. Initial placement is randomized around the viewport
// midpoint.
func New(cfg Config, snap *graph.Snapshot) *Engine {
	e := &Engine{
		cfg:    cfg,
		bodies: make([]*body, 0, len(snap.Nodes)),
		byID:   make(map[string]*body, len(snap.Nodes)),
		alpha:  1,
	}
	for _, n := range snap.Nodes {
		b := &body{
			id: n.ID,
			x:  cfg.Width/2 + (rand.Float64()-0.5)*cfg.Width*0.8,
			y:  cfg.Height/2 + (rand.Float64()-0.5)*cfg.Height*0.8,
		}
		e.bodies = append(e.bodies, b)
		e.byID[n.ID] = b
	}
	index := make(map[string]int, len(e.bodies))
	for i, b := range e.bodies {
		index[b.id] = i
	}
	for _, edge := range snap.Edges {
		si, sok := index[edge.Source]
		ti, tok := index[edge.Target]
		if sok && tok && si != ti {
			e.edges = append(e.edges, [2]int{si, ti})
		}
	}
	return e
}

// Step runs one relaxation iteration and reports whether the simulation is
// still active. A stopped or settled engine returns false without moving
// anything.
func (e *Engine) Step() bool {
	if e.stopped || e.alpha < e.cfg.AlphaMin {
		return false
	}

	e.applyRepulsion()
	e.applySprings()
	e.applyCentering()
	e.applyCollision()
	e.integrate()

	e.alpha *= 1 - e.cfg.AlphaDecay
	if e.OnTick != nil {
		e.OnTick(e.Positions())
	}
	return true
}

func (e *Engine) applyRepulsion() {
	for i := 0; i < len(e.bodies); i++ {
		for j := i + 1; j < len(e.bodies); j++ {
			a, b := e.bodies[i], e.bodies[j]
			dx, dy := b.x-a.x, b.y-a.y
			dist2 := dx*dx + dy*dy
			if dist2 < 1e-6 {
				dx, dy = jiggle(), jiggle()
				dist2 = dx*dx + dy*dy
			}
			f := e.cfg.Repulsion * e.alpha / dist2
			dist := math.Sqrt(dist2)
			fx, fy := dx/dist*f, dy/dist*f
			a.vx -= fx
			a.vy -= fy
			b.vx += fx
			b.vy += fy
		}
	}
}

func (e *Engine) applySprings() {
	for _, edge := range e.edges {
		a, b := e.bodies[edge[0]], e.bodies[edge[1]]
		dx, dy := b.x-a.x, b.y-a.y
		dist := math.Hypot(dx, dy)
		if dist < 1e-3 {
			dx, dy = jiggle(), jiggle()
			dist = math.Hypot(dx, dy)
		}
		// Displacement toward the ideal edge length.
		f := (dist - e.cfg.IdealEdgeLength) / dist * e.cfg.SpringStrength * e.alpha
		fx, fy := dx*f, dy*f
		a.vx += fx
		a.vy += fy
		b.vx -= fx
		b.vy -= fy
	}
}

func (e *Engine) applyCentering() {
	cx, cy := e.cfg.Width/2, e.cfg.Height/2
	for _, b := range e.bodies {
		b.vx += (cx - b.x) * e.cfg.CenterStrength * e.alpha
		b.vy += (cy - b.y) * e.cfg.CenterStrength * e.alpha
	}
}

// applyCollision pushes overlapping pairs apart from their shared centroid
// until they respect the minimum inter-node radius.
func (e *Engine) applyCollision() {
	minDist := e.cfg.CollisionRadius * 2
	for i := 0; i < len(e.bodies); i++ {
		for j := i + 1; j < len(e.bodies); j++ {
			a, b := e.bodies[i], e.bodies[j]
			dx, dy := b.x-a.x, b.y-a.y
			dist := math.Hypot(dx, dy)
			if dist >= minDist {
				continue
			}
			if dist < 1e-3 {
				dx, dy = jiggle(), jiggle()
				dist = math.Hypot(dx, dy)
			}
			overlap := (minDist - dist) / 2
			ux, uy := dx/dist, dy/dist
			a.vx -= ux * overlap
			a.vy -= uy * overlap
			b.vx += ux * overlap
			b.vy += uy * overlap
		}
	}
}

func (e *Engine) integrate() {
	for _, b := range e.bodies {
		if b.pinned {
			// A dragged node holds its position but kept contributing
			// forces to every other body above.
			b.vx, b.vy = 0, 0
			continue
		}
		b.vx *= e.cfg.VelocityDecay
		b.vy *= e.cfg.VelocityDecay
		b.x += b.vx
		b.y += b.vy
	}
}

// Pin fixes a node at the given coordinates for the duration of a drag.
func (e *Engine) Pin(id string, x, y float64) {
	b, ok := e.byID[id]
	if !ok {
		return
	}
	b.pinned = true
	b.x, b.y = x, y
	b.vx, b.vy = 0, 0
	e.Reheat()
}

// Release ends a drag; the node rejoins full relaxation.
func (e *Engine) Release(id string) {
	if b, ok := e.byID[id]; ok {
		b.pinned = false
	}
	e.Reheat()
}

// Reheat bumps the simulation energy so it reacts to a user interaction
// after settling.
func (e *Engine) Reheat() {
	if e.stopped {
		return
	}
	if e.alpha < 0.3 {
		e.alpha = 0.3
	}
}

// Stop halts the simulation permanently. A replacement engine must not be
// started until the old one is stopped.
func (e *Engine) Stop() {
	e.stopped = true
}

// Positions returns the current node positions in snapshot order.
func (e *Engine) Positions() []Point {
	pts := make([]Point, len(e.bodies))
	for i, b := range e.bodies {
		pts[i] = Point{ID: b.id, X: b.x, Y: b.y}
	}
	return pts
}

// Position returns the current coordinates of one node.
func (e *Engine) Position(id string) (Point, bool) {
	b, ok := e.byID[id]
	if !ok {
		return Point{}, false
	}
	return Point{ID: b.id, X: b.x, Y: b.y}, true
}

func jiggle() float64 {
	return (rand.Float64() - 0.5) * 1e-3
}
