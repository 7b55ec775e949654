// Package cartpole implements the classic control cart-pole simulator
// wrapped by the baseline environment. A pole is attached to a cart
// moving horizontally; the episode ends when the pole falls past a
// fixed angle or the cart leaves the track.
//
// Actions are discrete:
//
//	Action	Meaning
//	  0		Push cart left
//	  1		Push cart right
//
// The simulator is an opaque collaborator: it owns its physics and
// exposes only reset, step, render, and the scalar state needed to
// locate the cart on screen.
package cartpole

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	HalfPoleLength float64 = 0.5
	ForceMag       float64 = 10.0
	Dt             float64 = 0.02 // seconds between state updates

	// Episode bounds
	PositionThreshold float64 = 2.4
	AngleThreshold    float64 = 12 * 2 * math.Pi / 360

	// Start states are drawn uniformly from +/- StartBound in every
	// state variable
	StartBound float64 = 0.05

	// Discrete actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 1
)

// Cartpole holds the simulator state: cart position and speed, pole
// angle from vertical and angular speed
type Cartpole struct {
	state   *mat.VecDense // x, xDot, theta, thetaDot
	starter distuv.Uniform
	done    bool
}

// New returns a cart-pole simulator seeded for start-state draws. The
// simulator starts un-reset; call Reset before stepping.
func New(seed uint64) *Cartpole {
	return &Cartpole{
		state: mat.NewVecDense(4, nil),
		starter: distuv.Uniform{
			Min: -StartBound,
			Max: StartBound,
			Src: rand.NewSource(seed),
		},
	}
}

// Reset draws a fresh start state and returns it
func (c *Cartpole) Reset() *mat.VecDense {
	for i := 0; i < c.state.Len(); i++ {
		c.state.SetVec(i, c.starter.Rand())
	}
	c.done = false

	return mat.VecDenseCopyOf(c.state)
}

// Step advances the simulator by one tick under the given action and
// returns the next state, the reward, and whether the episode ended
func (c *Cartpole) Step(action int) (*mat.VecDense, float64, bool, error) {
	if action < MinDiscreteAction || action > MaxDiscreteAction {
		return nil, 0, false, fmt.Errorf("step: illegal action %v ∉ "+
			"[%v, %v]", action, MinDiscreteAction, MaxDiscreteAction)
	}

	x, xDot := c.state.AtVec(0), c.state.AtVec(1)
	theta, thetaDot := c.state.AtVec(2), c.state.AtVec(3)

	force := ForceMag
	if action == 0 {
		force = -ForceMag
	}

	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)

	totalMass := CartMass + PoleMass
	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thetaDot*thetaDot*sinTheta) / totalMass
	thetaAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/totalMass

	// Euler kinematic integration
	x += Dt * xDot
	xDot += Dt * xAcc
	theta += Dt * thetaDot
	thetaDot += Dt * thetaAcc

	c.state.SetVec(0, x)
	c.state.SetVec(1, xDot)
	c.state.SetVec(2, theta)
	c.state.SetVec(3, thetaDot)

	c.done = c.done || math.Abs(x) > PositionThreshold ||
		math.Abs(theta) > AngleThreshold

	return mat.VecDenseCopyOf(c.state), 1.0, c.done, nil
}

// State returns the current state without advancing the simulator
func (c *Cartpole) State() *mat.VecDense {
	return mat.VecDenseCopyOf(c.state)
}

// XThreshold returns the cart position bound, used by callers to map
// the cart onto screen coordinates
func (c *Cartpole) XThreshold() float64 {
	return PositionThreshold
}

// Close releases the simulator. The simulator holds no external
// resources; Close exists to satisfy the collaborator boundary.
func (c *Cartpole) Close() {}
