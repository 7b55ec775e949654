package racing

import (
	"errors"
	"testing"

	env "github.com/samuelfneumann/goracer/environment"
)

func newHeadless(t *testing.T) *Racing {
	t.Helper()

	r, err := New(84, 84, true, true, "", false, false, 192382)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(r.Release)

	return r
}

func TestAccelerateStraightReachesMaxVelocity(t *testing.T) {
	r := newHeadless(t)
	if err := r.Reset(false, false); err != nil {
		t.Fatalf("reset: %v", err)
	}

	prev := r.car.Velocity()
	for i := 0; i < 200; i++ {
		if _, _, err := r.Step(0, false); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}

		v := r.car.Velocity()
		if v < prev {
			t.Fatalf("step %d: velocity decreased from %v to %v", i, prev, v)
		}
		prev = v
	}

	if prev != MaxVelocity {
		t.Errorf("velocity = %v after 200 accelerate steps, want %v", prev,
			MaxVelocity)
	}
}

func TestStepRejectsOutOfRangeAction(t *testing.T) {
	r := newHeadless(t)

	_, _, err := r.Step(8, false)
	if !errors.Is(err, env.ErrInvalidAction) {
		t.Fatalf("step(8): want ErrInvalidAction, got %v", err)
	}

	// The environment stays usable after the rejected action
	if _, _, err := r.Step(0, false); err != nil {
		t.Fatalf("step(0) after rejected action: %v", err)
	}
}

func TestNoActionStillAdvances(t *testing.T) {
	r := newHeadless(t)

	r.car.Movement(1.0)
	x0, y0 := r.car.Center()

	if _, _, err := r.Step(env.NoAction, false); err != nil {
		t.Fatalf("step: %v", err)
	}

	x1, y1 := r.car.Center()
	if x0 == x1 && y0 == y1 {
		t.Error("position unchanged: NoAction should still advance physics")
	}
	if v := r.car.Velocity(); v != 1.0 {
		t.Errorf("velocity = %v, want 1.0: NoAction should not touch speed",
			v)
	}
}

func TestDoneLatchesUntilReset(t *testing.T) {
	r := newHeadless(t)

	// Drive the car off the canvas so telemetry reports dead
	r.car.SetPose(-100, -100, 0)
	r.track.Advance(0)

	obs, err := r.State(false, true)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if obs.Telemetry == nil || obs.Telemetry.Alive {
		t.Fatal("telemetry should report dead off the canvas")
	}
	if !r.Done() {
		t.Fatal("done should latch once telemetry reports dead")
	}

	// Still done on subsequent polls, even without telemetry
	if _, err := r.State(false, false); err != nil {
		t.Fatalf("state: %v", err)
	}
	if !r.Done() {
		t.Error("done should stay latched between State calls")
	}

	if err := r.Reset(false, false); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if r.Done() {
		t.Error("done should clear on reset")
	}

	obs, err = r.State(false, true)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if obs.Telemetry == nil || !obs.Telemetry.Alive {
		t.Error("telemetry should report alive after reset")
	}
}

func TestStateFrameShapeAndRange(t *testing.T) {
	r := newHeadless(t)

	if _, _, err := r.Step(env.NoAction, false); err != nil {
		t.Fatalf("step: %v", err)
	}

	obs, err := r.State(true, true)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if obs.Frame == nil {
		t.Fatal("frame requested but not returned")
	}

	shape := obs.Frame.Shape()
	if len(shape) != 3 || shape[0] != 1 || shape[1] != 84 || shape[2] != 84 {
		t.Fatalf("frame shape = %v, want (1, 84, 84)", shape)
	}

	for i, v := range obs.Frame.Data().([]float64) {
		if v < 0 || v > 1 {
			t.Fatalf("frame value %v at %d outside [0, 1]", v, i)
		}
	}
}

func TestActionSpecBounds(t *testing.T) {
	r := newHeadless(t)

	spec := r.ActionSpec()
	if got := int(spec.LowerBound.AtVec(0)); got != MinAction {
		t.Errorf("lower bound = %v, want %v", got, MinAction)
	}
	if got := int(spec.UpperBound.AtVec(0)); got != MaxAction {
		t.Errorf("upper bound = %v, want %v", got, MaxAction)
	}
}
