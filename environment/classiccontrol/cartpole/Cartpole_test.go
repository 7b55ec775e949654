package cartpole

import (
	"math"
	"testing"
)

func TestResetDrawsBoundedStartState(t *testing.T) {
	c := New(123)

	for i := 0; i < 10; i++ {
		state := c.Reset()
		for j := 0; j < state.Len(); j++ {
			if v := state.AtVec(j); math.Abs(v) > StartBound {
				t.Errorf("start state[%d] = %v outside +/-%v", j, v,
					StartBound)
			}
		}
	}
}

func TestStepRejectsIllegalAction(t *testing.T) {
	c := New(123)
	c.Reset()

	for _, action := range []int{-1, 2, 10} {
		if _, _, _, err := c.Step(action); err == nil {
			t.Errorf("step(%d): expected error", action)
		}
	}
}

func TestConstantPushEndsEpisode(t *testing.T) {
	c := New(123)
	c.Reset()

	done := false
	for i := 0; i < 500 && !done; i++ {
		state, reward, d, err := c.Step(1)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if reward != 1.0 {
			t.Fatalf("step %d: reward = %v, want 1.0", i, reward)
		}

		if d {
			x := state.AtVec(0)
			theta := state.AtVec(2)
			if math.Abs(x) <= PositionThreshold &&
				math.Abs(theta) <= AngleThreshold {
				t.Fatalf("done with state within bounds: x=%v theta=%v", x,
					theta)
			}
		}
		done = d
	}

	if !done {
		t.Fatal("constant push should end the episode")
	}
}

func TestCartXMapsStateToScreen(t *testing.T) {
	c := New(123)
	c.Reset()

	x := c.State().AtVec(0)
	scale := float64(ScreenWidth) / (2 * PositionThreshold)
	want := x*scale + float64(ScreenWidth)/2

	if got := c.CartX(); got != want {
		t.Errorf("cartX = %v, want %v", got, want)
	}
}

func TestRenderFrameSize(t *testing.T) {
	c := New(123)
	c.Reset()

	img := c.Render()
	bounds := img.Bounds()
	if bounds.Dx() != ScreenWidth || bounds.Dy() != ScreenHeight {
		t.Errorf("rendered frame %dx%d, want %dx%d", bounds.Dx(),
			bounds.Dy(), ScreenWidth, ScreenHeight)
	}
}
