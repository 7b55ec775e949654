// Package baseline implements the benchmark control-task variant of
// the environment contract. It wraps the classic cart-pole simulator
// and derives image observations from that simulator's rendered
// frame, so a training loop can swap between the racing environment
// and a known benchmark without code changes.
package baseline

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/transform"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goracer/environment"
	"github.com/samuelfneumann/goracer/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/goracer/observation"
)

const (
	// ViewWidth is the fixed horizontal viewport sliced around the
	// cart's screen position
	ViewWidth int = 320

	// The fixed vertical band kept from the rendered frame, stripping
	// the sky and the floor
	bandTop    int = 160
	bandBottom int = 320

	// Discrete actions forwarded to the simulator
	MinAction int = 0
	MaxAction int = 1
)

// Conformance to the environment contract is checked at compile time
var _ env.Environment = (*Baseline)(nil)

// Baseline adapts the cart-pole simulator to the environment
// contract. Telemetry is not exposed by this variant; reward and done
// come straight from the wrapped simulator.
type Baseline struct {
	env.Base

	sim       *cartpole.Cartpole
	frameSize image.Point
}

// New constructs a baseline environment observing frameWidth x
// frameHeight frames, wrapping a freshly reset cart-pole simulator
func New(frameWidth, frameHeight int, seed uint64) (*Baseline, error) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return nil, fmt.Errorf("newBaseline: illegal frame size %dx%d",
			frameWidth, frameHeight)
	}

	sim := cartpole.New(seed)
	sim.Reset()

	return &Baseline{
		sim:       sim,
		frameSize: image.Pt(frameWidth, frameHeight),
	}, nil
}

// State renders the wrapped simulator and runs the fixed pipeline
// over the frame: strip the top and bottom of the screen, slice the
// horizontal viewport centered on the cart, resize to the configured
// frame size, grayscale, and normalize into a single-channel tensor.
// The viewport is clamped at the screen edges so the crop never spans
// past the canvas. This variant reports no telemetry.
func (b *Baseline) State(frameActive, paramsActive bool) (env.Observation,
	error) {
	var obs env.Observation
	if !frameActive {
		return obs, nil
	}

	screen := b.sim.Render()

	lo, hi := b.viewport(int(b.sim.CartX()))
	band := transform.Crop(screen, image.Rect(lo, bandTop, hi, bandBottom))

	resized := observation.Resize(band, b.frameSize.X, b.frameSize.Y)

	frame, img, err := observation.Snapshot(resized, image.Point{},
		observation.Config{
			Grayscale: true,
			Normalize: true,
			Tensor:    true,
		})
	if err != nil {
		return env.Observation{}, fmt.Errorf("state: %v", err)
	}

	obs.Frame = frame
	obs.Image = img
	return obs, nil
}

// viewport returns the horizontal slice bounds around the cart's
// screen position. Near either edge the viewport is clamped, not
// shifted past the canvas, so its width is always exactly ViewWidth.
func (b *Baseline) viewport(cartX int) (lo, hi int) {
	switch {
	case cartX < ViewWidth/2:
		lo = 0
	case cartX > cartpole.ScreenWidth-ViewWidth/2:
		lo = cartpole.ScreenWidth - ViewWidth
	default:
		lo = cartX - ViewWidth/2
	}

	return lo, lo + ViewWidth
}

// Step forwards the action to the wrapped simulator and returns its
// reward and done flag. NoAction leaves the simulator untouched.
func (b *Baseline) Step(action env.Action, sync bool) (float64, bool,
	error) {
	if action == env.NoAction {
		return 0, b.Done(), nil
	}

	if int(action) < MinAction || int(action) > MaxAction {
		return 0, false, fmt.Errorf("step: action %d ∉ [%d, %d]: %w",
			action, MinAction, MaxAction, env.ErrInvalidAction)
	}

	_, reward, done, err := b.sim.Step(int(action))
	if err != nil {
		return 0, false, fmt.Errorf("step: %v", err)
	}

	if done {
		b.MarkDone()
	}

	return reward, done, nil
}

// Reset forwards to the wrapped simulator. The reset flags have no
// meaning for the benchmark task and are ignored.
func (b *Baseline) Reset(randomReset, hardReset bool) error {
	b.sim.Reset()
	b.ClearDone()
	return nil
}

// Release closes the wrapped simulator. Safe to call more than once.
func (b *Baseline) Release() {
	b.sim.Close()
}

// ActionSpec returns the action specification of the environment: two
// discrete actions, push left and push right
func (b *Baseline) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxAction)})

	return env.NewSpec(shape, env.ActionType, lowerBound, upperBound,
		env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment: a single-channel frame of the configured size with
// values in [0, 1]
func (b *Baseline) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(3, []float64{1, float64(b.frameSize.Y),
		float64(b.frameSize.X)})
	lowerBound := mat.NewVecDense(3, nil)
	upperBound := mat.NewVecDense(3, []float64{1, 1, 1})

	return env.NewSpec(shape, env.ObservationType, lowerBound, upperBound,
		env.Continuous)
}
