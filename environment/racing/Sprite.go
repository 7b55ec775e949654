package racing

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/goracer/environment"
	"github.com/samuelfneumann/goracer/utils/floatutils"
)

const (
	// Sprite extent in canvas units
	SpriteWidth  float64 = 25
	SpriteHeight float64 = 25

	// Bounds on forward speed
	MaxVelocity float64 = 3.45
	MinVelocity float64 = -1.92

	// Deltas applied per decoded action
	Acceleration float64 = 0.025
	Steering     float64 = 0.037

	// Discrete actions
	MinAction int = 0
	MaxAction int = 7
)

// actionDeltas is the decode table for the 8-valued action space.
// Each id maps to a (motion delta, steering delta) pair:
//
//	Action	Meaning
//	  0		Accelerate
//	  1		Decelerate
//	  2		Steer left
//	  3		Steer right
//	  4		Accelerate and steer left
//	  5		Accelerate and steer right
//	  6		Decelerate and steer left
//	  7		Decelerate and steer right
var actionDeltas = map[env.Action][2]float64{
	0: {Acceleration, 0},
	1: {-Acceleration, 0},
	2: {0, Steering},
	3: {0, -Steering},
	4: {Acceleration, Steering},
	5: {Acceleration, -Steering},
	6: {-Acceleration, Steering},
	7: {-Acceleration, -Steering},
}

var velocityBounds = r1.Interval{Min: MinVelocity, Max: MaxVelocity}

// Params packages the sprite's static action bounds with its live
// pose. It is an immutable diagnostic value, not shared state.
type Params struct {
	AccMax         float64
	AccMin         float64
	AccAmount      float64
	SteeringAmount float64
	Position       [2]float64
	Velocity       float64
	Rotation       float64
}

// Sprite is the agent physics model: a kinematic car with a position,
// a heading, and a clamped forward speed. Rotation is in radians and
// unbounded; it wraps implicitly through trigonometric use. The offset
// is a fixed anchor used only for draw and crop placement, not a
// physical quantity.
type Sprite struct {
	position *mat.VecDense
	rotation float64
	velocity float64
	offset   *mat.VecDense
}

// NewSprite returns a sprite at position with the given heading and
// draw offset
func NewSprite(position *mat.VecDense, rotation float64,
	offset *mat.VecDense) *Sprite {
	return &Sprite{
		position: position,
		rotation: rotation,
		offset:   offset,
	}
}

// Movement changes the forward speed by delta, clamped to
// [MinVelocity, MaxVelocity]
func (s *Sprite) Movement(delta float64) {
	s.velocity = floatutils.ClipInterval(s.velocity+delta, velocityBounds)
}

// Steer changes the heading by delta radians. The heading is
// unclamped.
func (s *Sprite) Steer(delta float64) {
	s.rotation += delta
}

// Act integrates the position by one tick:
//
//	position += (cos(rotation), -sin(rotation)) * velocity * scaling
//
// The negated sine reflects the screen coordinate system, where the
// vertical axis increases downward. The scaling argument is the
// attenuation factor, which keeps simulated motion consistent
// regardless of actual frame cadence.
func (s *Sprite) Act(scaling float64) {
	direction := mat.NewVecDense(2, []float64{
		math.Cos(s.rotation),
		-math.Sin(s.rotation),
	})

	s.position.AddScaledVec(s.position, s.velocity*scaling, direction)
}

// DecodeAction maps a discrete action id onto its motion and steering
// deltas. Ids outside [MinAction, MaxAction] are an error.
func (s *Sprite) DecodeAction(action env.Action) (motion, steering float64,
	err error) {
	deltas, ok := actionDeltas[action]
	if !ok {
		return 0, 0, fmt.Errorf("decodeAction: action %d outside [%d, %d]: %w",
			action, MinAction, MaxAction, env.ErrInvalidAction)
	}
	return deltas[0], deltas[1], nil
}

// ActAction decodes action and applies its deltas to the sprite
func (s *Sprite) ActAction(action env.Action) error {
	motion, steering, err := s.DecodeAction(action)
	if err != nil {
		return err
	}

	s.Movement(motion)
	s.rotation += steering
	return nil
}

// Reset zeroes the speed and heading. The position is left to the
// track, which owns start placement.
func (s *Sprite) Reset() {
	s.velocity = 0
	s.rotation = 0
}

// SetPose places the sprite's visual center at (x, y) with the given
// heading. The track uses it for start placement.
func (s *Sprite) SetPose(x, y, rotation float64) {
	s.position.SetVec(0, x-s.offset.AtVec(0))
	s.position.SetVec(1, y-s.offset.AtVec(1))
	s.rotation = rotation
}

// Velocity returns the current forward speed
func (s *Sprite) Velocity() float64 {
	return s.velocity
}

// Rotation returns the current heading in radians
func (s *Sprite) Rotation() float64 {
	return s.rotation
}

// Center returns the visual center of the car on the canvas
func (s *Sprite) Center() (x, y float64) {
	return s.position.AtVec(0) + s.offset.AtVec(0),
		s.position.AtVec(1) + s.offset.AtVec(1)
}

// AnchoredPosition returns the top-left corner used both for draw
// placement and as the center point for observation cropping:
// position + offset - half sprite extent.
func (s *Sprite) AnchoredPosition() (x, y float64) {
	cx, cy := s.Center()
	return cx - SpriteWidth/2, cy - SpriteHeight/2
}

// Params returns the static action bounds merged with the live pose,
// for diagnostics and captions
func (s *Sprite) Params() Params {
	return Params{
		AccMax:         MaxVelocity,
		AccMin:         MinVelocity,
		AccAmount:      Acceleration,
		SteeringAmount: Steering,
		Position:       [2]float64{s.position.AtVec(0), s.position.AtVec(1)},
		Velocity:       s.velocity,
		Rotation:       s.rotation,
	}
}

// Render draws the car onto the surface as a rotated box with a nose
// marker, centered on the sprite's visual center
func (s *Sprite) Render(dc *gg.Context) {
	cx, cy := s.Center()

	dc.Push()
	// gg rotates clockwise for positive angles while the heading is
	// counterclockwise, hence the negation.
	dc.RotateAbout(-s.rotation, cx, cy)

	dc.SetRGB(0.8, 0, 0)
	dc.DrawRectangle(cx-SpriteWidth/2, cy-SpriteHeight/2, SpriteWidth,
		SpriteHeight)
	dc.Fill()

	dc.SetRGB(0, 0, 0)
	dc.DrawRectangle(cx+SpriteWidth/4, cy-SpriteHeight/4, SpriteWidth/4,
		SpriteHeight/2)
	dc.Fill()
	dc.Pop()
}
