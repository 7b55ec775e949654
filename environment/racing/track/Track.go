// Package track implements the world the racing environment drives
// on: a procedurally generated closed loop with per-step telemetry.
// The track owns the agent's placement, advances it each tick, and
// reports whether it is still on the road, how far along the lap it
// is, and how many laps it has completed.
package track

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	env "github.com/samuelfneumann/goracer/environment"
)

const (
	// DefaultSegments is the number of centerline control points (and
	// road segments) of a generated track
	DefaultSegments int = 48

	// DefaultHalfWidth is half the road width in canvas units
	DefaultHalfWidth float64 = 35

	// radiusShare and jitterShare size the loop relative to the
	// canvas
	radiusShare float64 = 0.38
	jitterShare float64 = 0.07

	smoothingPasses int = 2
)

// Agent is the sprite the track advances and places. The racing
// environment's physics model implements it.
type Agent interface {
	// Act integrates the agent's position by one tick, scaled by the
	// attenuation factor
	Act(scaling float64)

	// Reset zeroes speed and heading
	Reset()

	// SetPose places the agent's visual center with a heading
	SetPose(x, y, rotation float64)

	// Center reports the agent's visual center on the canvas
	Center() (x, y float64)

	// Render draws the agent onto the surface
	Render(dc *gg.Context)
}

// TextRenderer draws a line of text onto the render surface at a
// position. The environment supplies it so the track stays ignorant
// of fonts.
type TextRenderer func(text string, x, y float64)

// Point is a centerline control point
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// geometry is the persisted form of a track
type geometry struct {
	Seed      uint64  `json:"seed"`
	HalfWidth float64 `json:"half_width"`
	Center    []Point `json:"center"`
}

// Track is a closed-loop road built from quadrilateral segments
// between consecutive centerline points. Segment quads live as
// fixtures in a static Box2D world; placement queries (which segment
// the agent is on, if any) are point tests against those fixtures.
type Track struct {
	width, height int
	text          TextRenderer
	cache, save   bool
	file          string

	seed uint64
	rng  *rand.Rand

	center    []Point
	halfWidth float64

	world    box2d.B2World
	segments []*box2d.B2Fixture

	agent    Agent
	startSeg int
	segment  int
	course   int // cumulative signed segments travelled since start
	alive    bool
}

// New returns an uninitialized track seeded for geometry generation
func New(seed uint64) *Track {
	return &Track{
		seed:      seed,
		rng:       rand.New(rand.NewSource(seed)),
		halfWidth: DefaultHalfWidth,
		alive:     true,
	}
}

// Initialize builds the track geometry for a width x height canvas.
// When cache is set and file names an existing track file, the
// geometry is loaded from it instead of generated; when save is set,
// freshly generated geometry is written to file.
func (t *Track) Initialize(width, height int, text TextRenderer,
	cache, save bool, file string) error {
	t.width, t.height = width, height
	t.text = text
	t.cache, t.save, t.file = cache, save, file

	if cache && file != "" {
		if _, err := os.Stat(file); err == nil {
			if err := t.load(file); err != nil {
				return fmt.Errorf("initialize: %v", err)
			}
			t.build()
			return nil
		}
	}

	t.generate()
	t.build()

	if save && file != "" {
		if err := t.store(file); err != nil {
			return fmt.Errorf("initialize: %v", err)
		}
	}
	return nil
}

// InitializeAgent registers the agent and places it at the start of
// the track, facing along the road
func (t *Track) InitializeAgent(agent Agent) {
	t.agent = agent
	t.place(0)
}

// Advance integrates the agent by one tick scaled by attenuation and
// refreshes the placement-derived telemetry
func (t *Track) Advance(attenuation float64) {
	t.agent.Act(attenuation)
	t.locate()
}

// Render draws the road, the start line, the agent, and the telemetry
// overlay onto the surface
func (t *Track) Render(dc *gg.Context) {
	n := len(t.center)

	// Road surface
	dc.SetRGB(0.35, 0.35, 0.35)
	for i := 0; i < n; i++ {
		quad := t.segmentQuad(i)
		dc.MoveTo(quad[0].X, quad[0].Y)
		for _, p := range quad[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.ClosePath()
	}
	dc.Fill()

	// Road borders
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(2)
	for side := 0; side < 2; side++ {
		first := t.edgePoint(0, side == 0)
		dc.MoveTo(first.X, first.Y)
		for i := 1; i <= n; i++ {
			p := t.edgePoint(i%n, side == 0)
			dc.LineTo(p.X, p.Y)
		}
		dc.Stroke()
	}

	// Start line
	lo := t.edgePoint(t.startSeg, true)
	hi := t.edgePoint(t.startSeg, false)
	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(4)
	dc.DrawLine(lo.X, lo.Y, hi.X, hi.Y)
	dc.Stroke()

	t.agent.Render(dc)

	if t.text != nil {
		tel := t.Telemetry()
		t.text(fmt.Sprintf("progress - %5.2f%%", tel.Progress), 10, 20)
		t.text(fmt.Sprintf("lap - %d", tel.Lap), 10, 40)
	}
}

// Telemetry reports the per-step world state derived from the agent's
// last placement
func (t *Track) Telemetry() env.Telemetry {
	n := len(t.center)
	if n == 0 {
		return env.Telemetry{Alive: t.alive}
	}

	progress := float64(((t.course%n)+n)%n) / float64(n) * 100

	return env.Telemetry{
		Alive:    t.alive,
		Progress: progress,
		Lap:      int(math.Floor(float64(t.course) / float64(n))),
	}
}

// Segment returns the index of the road segment the agent was last
// located on
func (t *Track) Segment() int {
	return t.segment
}

// Center returns the centerline control points
func (t *Track) Center() []Point {
	return t.center
}

// Reset returns the track to a startable state. A hard reset
// regenerates the geometry from a fresh seed; a random reset starts
// the agent at a random segment instead of the canonical start.
func (t *Track) Reset(randomReset, hardReset bool) error {
	if hardReset {
		t.seed = t.rng.Uint64()
		t.generate()
		t.build()
	}

	start := 0
	if randomReset {
		start = t.rng.Intn(len(t.center))
	}

	t.place(start)
	return nil
}

// place positions the agent at the given segment's centerline point,
// heading along the road, and rewinds telemetry
func (t *Track) place(segment int) {
	t.startSeg = segment
	t.segment = segment
	t.course = 0
	t.alive = true

	if t.agent == nil {
		return
	}

	n := len(t.center)
	at := t.center[segment]
	next := t.center[(segment+1)%n]

	// Heading such that (cos r, -sin r) points along the road
	rotation := math.Atan2(-(next.Y - at.Y), next.X-at.X)

	t.agent.Reset()
	t.agent.SetPose(at.X, at.Y, rotation)
}

// locate finds the segment containing the agent's center, updating
// the course counter and the alive flag. Leaving the road is not an
// error, it is the terminal state of the episode.
func (t *Track) locate() {
	x, y := t.agent.Center()
	point := box2d.MakeB2Vec2(x, y)

	n := len(t.segments)
	for offset := 0; offset < n; offset++ {
		// Search outward from the last known segment; the agent
		// rarely jumps more than one per tick.
		for _, dir := range []int{1, -1} {
			i := ((t.segment+dir*offset)%n + n) % n
			if !t.segments[i].TestPoint(point) {
				continue
			}

			delta := i - t.segment
			if delta > n/2 {
				delta -= n
			} else if delta < -n/2 {
				delta += n
			}

			t.course += delta
			t.segment = i
			return
		}
	}

	t.alive = false
}

// generate produces a fresh closed loop: control points on a circle
// with seeded radial jitter, smoothed by neighbor averaging so
// segment quads stay convex
func (t *Track) generate() {
	n := DefaultSegments
	cx := float64(t.width) / 2
	cy := float64(t.height) / 2

	side := math.Min(float64(t.width), float64(t.height))
	mean := radiusShare * side
	jitter := jitterShare * side

	uniform := distuv.Uniform{
		Min: mean - jitter,
		Max: mean + jitter,
		Src: rand.NewSource(t.seed),
	}

	radii := make([]float64, n)
	for i := range radii {
		radii[i] = uniform.Rand()
	}

	for pass := 0; pass < smoothingPasses; pass++ {
		smoothed := make([]float64, n)
		for i := range radii {
			prev := radii[((i-1)+n)%n]
			next := radii[(i+1)%n]
			smoothed[i] = (prev + radii[i] + next) / 3
		}
		radii = smoothed
	}

	t.center = make([]Point, n)
	for i := range t.center {
		theta := 2 * math.Pi * float64(i) / float64(n)
		t.center[i] = Point{
			X: cx + radii[i]*math.Cos(theta),
			Y: cy + radii[i]*math.Sin(theta),
		}
	}
}

// build creates the static Box2D world holding one convex fixture per
// road segment, used for placement queries
func (t *Track) build() {
	t.world = box2d.MakeB2World(box2d.MakeB2Vec2(0, 0))

	def := box2d.MakeB2BodyDef()
	body := t.world.CreateBody(&def)

	n := len(t.center)
	t.segments = make([]*box2d.B2Fixture, n)
	for i := 0; i < n; i++ {
		quad := t.segmentQuad(i)

		vertices := make([]box2d.B2Vec2, len(quad))
		for j, p := range quad {
			vertices[j] = box2d.MakeB2Vec2(p.X, p.Y)
		}

		shape := box2d.NewB2PolygonShape()
		shape.Set(vertices, len(vertices))

		fixture := box2d.MakeB2FixtureDef()
		fixture.Shape = shape
		t.segments[i] = body.CreateFixtureFromDef(&fixture)
	}
}

// segmentQuad returns the four corners of road segment i, using miter
// joints so adjacent quads share an edge
func (t *Track) segmentQuad(i int) [4]Point {
	n := len(t.center)
	j := (i + 1) % n

	return [4]Point{
		t.edgePoint(i, true),
		t.edgePoint(j, true),
		t.edgePoint(j, false),
		t.edgePoint(i, false),
	}
}

// edgePoint returns the road edge at control point i, offset from the
// centerline along the miter normal
func (t *Track) edgePoint(i int, inner bool) Point {
	n := len(t.center)
	prev := t.center[((i-1)+n)%n]
	next := t.center[(i+1)%n]

	// Normal of the chord through the neighbors
	dx, dy := next.X-prev.X, next.Y-prev.Y
	length := math.Hypot(dx, dy)
	nx, ny := -dy/length, dx/length

	sign := t.halfWidth
	if inner {
		sign = -t.halfWidth
	}

	at := t.center[i]
	return Point{X: at.X + nx*sign, Y: at.Y + ny*sign}
}

func (t *Track) load(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("load: could not read track file: %v", err)
	}

	var geom geometry
	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("load: could not parse track file: %v", err)
	}
	if len(geom.Center) < 3 {
		return fmt.Errorf("load: track file has %d control points, "+
			"need at least 3", len(geom.Center))
	}

	t.seed = geom.Seed
	t.center = geom.Center
	if geom.HalfWidth > 0 {
		t.halfWidth = geom.HalfWidth
	}
	return nil
}

func (t *Track) store(file string) error {
	geom := geometry{
		Seed:      t.seed,
		HalfWidth: t.halfWidth,
		Center:    t.center,
	}

	data, err := json.MarshalIndent(geom, "", "\t")
	if err != nil {
		return fmt.Errorf("store: could not encode track: %v", err)
	}

	if err := os.WriteFile(file, data, 0644); err != nil {
		return fmt.Errorf("store: could not write track file: %v", err)
	}
	return nil
}
