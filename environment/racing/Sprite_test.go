package racing

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goracer/environment"
)

func newTestSprite() *Sprite {
	return NewSprite(mat.NewVecDense(2, []float64{100, 100}), 0,
		mat.NewVecDense(2, nil))
}

func TestMovementClampsVelocity(t *testing.T) {
	deltas := []float64{0.01, 1.0, 100.0, -0.5, -100.0, 0.025, -3.0, 7.5}

	s := newTestSprite()
	for _, delta := range deltas {
		s.Movement(delta)

		if v := s.Velocity(); v > MaxVelocity || v < MinVelocity {
			t.Errorf("movement(%v): velocity %v outside [%v, %v]", delta,
				v, MinVelocity, MaxVelocity)
		}
	}

	s.Movement(1e9)
	if v := s.Velocity(); v != MaxVelocity {
		t.Errorf("large positive delta should clamp to %v, got %v",
			MaxVelocity, v)
	}

	s.Movement(-1e9)
	if v := s.Velocity(); v != MinVelocity {
		t.Errorf("large negative delta should clamp to %v, got %v",
			MinVelocity, v)
	}
}

func TestActDisplacesAlongHeading(t *testing.T) {
	scalings := []float64{0.25, 0.5, 1.0, 1.73, 4.0}
	rotations := []float64{0, math.Pi / 6, math.Pi / 2, math.Pi, -2.3, 9.1}

	for _, scaling := range scalings {
		for _, rotation := range rotations {
			s := NewSprite(mat.NewVecDense(2, []float64{250, 250}), rotation,
				mat.NewVecDense(2, nil))
			s.Movement(1.5)

			s.Act(scaling)

			wantX := 250 + math.Cos(rotation)*s.Velocity()*scaling
			wantY := 250 - math.Sin(rotation)*s.Velocity()*scaling

			x, y := s.Center()
			if math.Abs(x-wantX) > 1e-12 || math.Abs(y-wantY) > 1e-12 {
				t.Errorf("act(%v) at rotation %v: got (%v, %v), want "+
					"(%v, %v)", scaling, rotation, x, y, wantX, wantY)
			}
		}
	}
}

func TestDecodeActionTable(t *testing.T) {
	tests := []struct {
		action   env.Action
		motion   float64
		steering float64
	}{
		{0, Acceleration, 0},
		{1, -Acceleration, 0},
		{2, 0, Steering},
		{3, 0, -Steering},
		{4, Acceleration, Steering},
		{5, Acceleration, -Steering},
		{6, -Acceleration, Steering},
		{7, -Acceleration, -Steering},
	}

	s := newTestSprite()
	for _, test := range tests {
		motion, steering, err := s.DecodeAction(test.action)
		if err != nil {
			t.Errorf("decodeAction(%v): unexpected error %v", test.action,
				err)
		}
		if motion != test.motion || steering != test.steering {
			t.Errorf("decodeAction(%v) = (%v, %v), want (%v, %v)",
				test.action, motion, steering, test.motion, test.steering)
		}
	}
}

func TestDecodeActionOutOfRange(t *testing.T) {
	s := newTestSprite()

	for _, action := range []env.Action{-2, 8, 100, env.NoAction} {
		_, _, err := s.DecodeAction(action)
		if !errors.Is(err, env.ErrInvalidAction) {
			t.Errorf("decodeAction(%v): want ErrInvalidAction, got %v",
				action, err)
		}
	}
}

func TestActActionAppliesDeltas(t *testing.T) {
	s := newTestSprite()

	// Accelerate and steer right
	if err := s.ActAction(5); err != nil {
		t.Fatalf("actAction(5): %v", err)
	}

	if v := s.Velocity(); v != Acceleration {
		t.Errorf("velocity = %v, want %v", v, Acceleration)
	}
	if r := s.Rotation(); r != -Steering {
		t.Errorf("rotation = %v, want %v", r, -Steering)
	}
}

func TestResetZeroesSpeedAndHeading(t *testing.T) {
	s := newTestSprite()
	s.Movement(2.5)
	s.Steer(1.3)
	s.Act(1.0)

	s.Reset()

	if s.Velocity() != 0 {
		t.Errorf("velocity = %v after reset, want 0", s.Velocity())
	}
	if s.Rotation() != 0 {
		t.Errorf("rotation = %v after reset, want 0", s.Rotation())
	}
}

func TestParamsSnapshot(t *testing.T) {
	s := newTestSprite()
	s.Movement(0.1)
	s.Steer(0.2)

	params := s.Params()

	if params.AccMax != MaxVelocity || params.AccMin != MinVelocity {
		t.Errorf("params bounds = (%v, %v), want (%v, %v)", params.AccMin,
			params.AccMax, MinVelocity, MaxVelocity)
	}
	if params.AccAmount != Acceleration {
		t.Errorf("params.AccAmount = %v, want %v", params.AccAmount,
			Acceleration)
	}
	if params.SteeringAmount != Steering {
		t.Errorf("params.SteeringAmount = %v, want %v",
			params.SteeringAmount, Steering)
	}
	if params.Velocity != s.Velocity() || params.Rotation != s.Rotation() {
		t.Errorf("params pose = (%v, %v), want (%v, %v)", params.Velocity,
			params.Rotation, s.Velocity(), s.Rotation())
	}
}

func TestSetPosePlacesCenter(t *testing.T) {
	s := NewSprite(mat.NewVecDense(2, nil), 0,
		mat.NewVecDense(2, []float64{3, -4}))

	s.SetPose(60, 80, 1.1)

	x, y := s.Center()
	if x != 60 || y != 80 {
		t.Errorf("center = (%v, %v) after SetPose, want (60, 80)", x, y)
	}

	ax, ay := s.AnchoredPosition()
	if ax != 60-SpriteWidth/2 || ay != 80-SpriteHeight/2 {
		t.Errorf("anchored position = (%v, %v), want (%v, %v)", ax, ay,
			60-SpriteWidth/2, 80-SpriteHeight/2)
	}
}
