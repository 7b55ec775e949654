// Package racing implements the custom racing environment: a
// kinematic car on a procedurally generated closed loop, rendered to
// an in-memory surface, with observations cropped around the car.
//
// The environment runs windowed for human play or headless for
// training. Headless operation still renders every frame, but to
// memory only, trading the visible display for batch throughput.
package racing

import (
	"fmt"
	"image"
	"time"

	"golang.org/x/image/font/basicfont"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goracer/environment"
	"github.com/samuelfneumann/goracer/environment/racing/track"
	"github.com/samuelfneumann/goracer/input"
	"github.com/samuelfneumann/goracer/observation"
	"github.com/samuelfneumann/goracer/render"
)

const (
	// Canvas extent in pixels
	CanvasWidth  int = 500
	CanvasHeight int = 500

	// FPSCap is the target frame rate for synchronized play
	FPSCap float64 = 60.0

	// Caption is the window title prefix
	Caption string = "RL racer"
)

// nominalFrame is the per-frame duration at the target frame rate.
// The attenuation factor is elapsed wall-clock time divided by it.
var nominalFrame = time.Duration(float64(time.Second) / FPSCap)

// Conformance to the environment contract is checked at compile time;
// a variant missing an operation fails the build rather than silently
// no-oping.
var _ env.Environment = (*Racing)(nil)

// Racing composes the agent physics model, the track, the observation
// pipeline, and real-time synchronization behind the environment
// contract.
type Racing struct {
	env.Base

	ctx   *render.Context
	keys  input.Provider
	track *track.Track
	car   *Sprite

	frameSize   image.Point
	frameBuffer bool
	agentActive bool

	// attenuation scales physics so simulated motion stays consistent
	// under variable frame cadence. Fixed at 1 in agent-driven
	// operation, where there is no real-time constraint.
	attenuation float64
	prevTime    time.Time
	lastTick    time.Time
}

// New constructs a racing environment observing frameWidth x
// frameHeight crops. With frameBuffer set the environment is headless;
// otherwise a window opens (which requires running on the main
// thread). With agentActive set, manual key control and the frame
// clock are disabled. The track options select an on-disk track file,
// whether to reuse it, and whether to save freshly generated
// geometry.
func New(frameWidth, frameHeight int, frameBuffer, agentActive bool,
	trackFile string, trackCache, trackSave bool,
	seed uint64) (*Racing, error) {
	var window render.Window
	var keys input.Provider = input.Nop{}

	if !frameBuffer {
		win, err := render.NewWindow(CanvasWidth, CanvasHeight, Caption)
		if err != nil {
			return nil, fmt.Errorf("newRacing: %v", err)
		}
		window = win
		keys = win
	}

	ctx := render.NewContext(CanvasWidth, CanvasHeight, window)

	r := &Racing{
		ctx:         ctx,
		keys:        keys,
		frameSize:   image.Pt(frameWidth, frameHeight),
		frameBuffer: frameBuffer,
		agentActive: agentActive,
		attenuation: 1.0,
	}

	r.track = track.New(seed)
	err := r.track.Initialize(CanvasWidth, CanvasHeight, r.textRenderer(),
		trackCache, trackSave, trackFile)
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("newRacing: could not initialize track: %v",
			err)
	}

	r.car = NewSprite(mat.NewVecDense(2, nil), 0, mat.NewVecDense(2, nil))
	r.track.InitializeAgent(r.car)

	now := time.Now()
	r.prevTime = now
	r.lastTick = now

	return r, nil
}

// Step advances the simulation by one tick: input events, clear,
// action application, physics and world advance, render, optional
// presentation and frame-rate synchronization. The returned reward is
// always zero; this variant reports its reward channel out-of-band
// through telemetry, and done is derived by State.
func (r *Racing) Step(action env.Action, sync bool) (float64, bool, error) {
	if err := r.EventHandler(); err != nil {
		return 0, false, err
	}

	r.ctx.Clear(1, 1, 1)

	if action != env.NoAction {
		if err := r.car.ActAction(action); err != nil {
			return 0, false, fmt.Errorf("step: %w", err)
		}
	}

	r.track.Advance(r.attenuation)
	r.track.Render(r.ctx.DC())

	if !r.frameBuffer {
		r.ctx.Present()
		r.ctx.SetCaption(r.caption())
	}

	if sync {
		now := time.Now()
		r.attenuation = float64(now.Sub(r.prevTime)) / float64(nominalFrame)
		r.prevTime = now

		// Frame-rate cap: block out the remainder of the nominal
		// frame period.
		if wait := nominalFrame - time.Since(r.lastTick); wait > 0 {
			time.Sleep(wait)
		}
		r.lastTick = time.Now()
	}

	return 0, false, nil
}

// State extracts the current observation: when frameActive, the
// render surface cropped to the configured frame size around the
// car's anchored position, grayscaled, normalized, and laid out as a
// single-channel tensor; when paramsActive, the track's telemetry.
// Once telemetry reports the car dead the done flag latches until
// Reset.
func (r *Racing) State(frameActive, paramsActive bool) (env.Observation,
	error) {
	var obs env.Observation

	if frameActive {
		ax, ay := r.car.AnchoredPosition()
		frame, img, err := observation.Snapshot(r.ctx.Image(),
			image.Pt(int(ax), int(ay)), observation.Config{
				Size:      r.frameSize,
				Grayscale: true,
				Normalize: true,
				Tensor:    true,
			})
		if err != nil {
			return env.Observation{}, fmt.Errorf("state: %v", err)
		}
		obs.Frame = frame
		obs.Image = img
	}

	if paramsActive {
		telemetry := r.track.Telemetry()
		obs.Telemetry = &telemetry

		if !telemetry.Alive {
			r.MarkDone()
		}
	}

	return obs, nil
}

// EventHandler polls the input provider: held keys map onto movement
// and steering scaled by the current attenuation, and discrete events
// map onto exit, snapshot, and manual reset requests. It does nothing
// headless, and skips key state in agent-driven operation.
func (r *Racing) EventHandler() error {
	if r.frameBuffer {
		return nil
	}

	if !r.agentActive {
		if r.keys.Pressed(input.Up) {
			r.car.Movement(Acceleration * r.attenuation)
		} else if r.keys.Pressed(input.Down) {
			r.car.Movement(-Acceleration * r.attenuation)
		}

		if r.keys.Pressed(input.Left) {
			r.car.Steer(Steering * r.attenuation)
		} else if r.keys.Pressed(input.Right) {
			r.car.Steer(-Steering * r.attenuation)
		}
	}

	for _, event := range r.keys.Poll() {
		switch event.Type {
		case input.Quit:
			r.RequestExit()

		case input.Snapshot:
			if err := observation.Save(r.ctx.Image(), "screen.png"); err != nil {
				return fmt.Errorf("eventHandler: %v", err)
			}

		case input.ResetTrack:
			if err := r.track.Reset(false, false); err != nil {
				return fmt.Errorf("eventHandler: %v", err)
			}
			r.ClearDone()
		}
	}

	return nil
}

// Reset returns the environment to a startable state, delegating pose
// and world semantics to the track
func (r *Racing) Reset(randomReset, hardReset bool) error {
	if err := r.track.Reset(randomReset, hardReset); err != nil {
		return fmt.Errorf("reset: %v", err)
	}

	r.ClearDone()
	return nil
}

// Release tears down the rendering subsystem. Safe to call more than
// once.
func (r *Racing) Release() {
	r.ctx.Release()
}

// ActionSpec returns the action specification of the environment: 8
// discrete actions combining {no-op, accelerate, decelerate} with
// {no-op, steer left, steer right}
func (r *Racing) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxAction)})

	return env.NewSpec(shape, env.ActionType, lowerBound, upperBound,
		env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment: a single-channel frame of the configured size with
// values in [0, 1]
func (r *Racing) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(3, []float64{1, float64(r.frameSize.Y),
		float64(r.frameSize.X)})
	lowerBound := mat.NewVecDense(3, nil)
	upperBound := mat.NewVecDense(3, []float64{1, 1, 1})

	return env.NewSpec(shape, env.ObservationType, lowerBound, upperBound,
		env.Continuous)
}

// caption formats the live telemetry window title
func (r *Racing) caption() string {
	telemetry := r.track.Telemetry()

	if !r.agentActive {
		fps := FPSCap
		if r.attenuation > 0 {
			fps = FPSCap / r.attenuation
		}
		return fmt.Sprintf("%s: %.2ffps, index - %d, progress - %5.2f%%, "+
			"lap - %d", Caption, fps, r.track.Segment(), telemetry.Progress,
			telemetry.Lap)
	}

	return fmt.Sprintf("%s: index - %d, progress - %5.2f%%, lap - %d",
		Caption, r.track.Segment(), telemetry.Progress, telemetry.Lap)
}

// textRenderer returns the hook the track uses to draw telemetry text
// onto the surface
func (r *Racing) textRenderer() track.TextRenderer {
	dc := r.ctx.DC()
	dc.SetFontFace(basicfont.Face7x13)

	return func(text string, x, y float64) {
		dc.SetRGB(0, 0, 0)
		dc.DrawString(text, x, y)
	}
}
