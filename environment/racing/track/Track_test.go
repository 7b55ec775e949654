package track

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/fogleman/gg"
)

// stubAgent satisfies Agent with directly settable placement
type stubAgent struct {
	x, y, rotation float64
}

func (a *stubAgent) Act(scaling float64) {}

func (a *stubAgent) Reset() {}

func (a *stubAgent) SetPose(x, y, rotation float64) {
	a.x, a.y, a.rotation = x, y, rotation
}

func (a *stubAgent) Center() (float64, float64) { return a.x, a.y }

func (a *stubAgent) Render(dc *gg.Context) {}

func newTestTrack(t *testing.T) (*Track, *stubAgent) {
	t.Helper()

	tr := New(42)
	if err := tr.Initialize(500, 500, nil, false, false, ""); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	agent := &stubAgent{}
	tr.InitializeAgent(agent)

	return tr, agent
}

// midpoint returns a point strictly inside segment i
func midpoint(tr *Track, i int) (float64, float64) {
	center := tr.Center()
	n := len(center)
	at := center[i]
	next := center[(i+1)%n]

	return (at.X + next.X) / 2, (at.Y + next.Y) / 2
}

func TestInitializePlacesAgentOnTrack(t *testing.T) {
	tr, _ := newTestTrack(t)

	telemetry := tr.Telemetry()
	if !telemetry.Alive {
		t.Error("agent should start alive")
	}
	if telemetry.Progress != 0 {
		t.Errorf("progress = %v at start, want 0", telemetry.Progress)
	}
	if telemetry.Lap != 0 {
		t.Errorf("lap = %v at start, want 0", telemetry.Lap)
	}

	if n := len(tr.Center()); n != DefaultSegments {
		t.Errorf("generated %d control points, want %d", n, DefaultSegments)
	}
}

func TestProgressAlongCenterline(t *testing.T) {
	tr, agent := newTestTrack(t)
	n := len(tr.Center())

	prev := 0.0
	for i := 1; i < n; i++ {
		agent.x, agent.y = midpoint(tr, i)
		tr.Advance(0)

		telemetry := tr.Telemetry()
		if !telemetry.Alive {
			t.Fatalf("segment %d: agent on centerline reported dead", i)
		}
		if telemetry.Progress <= prev {
			t.Fatalf("segment %d: progress %v did not increase past %v", i,
				telemetry.Progress, prev)
		}
		prev = telemetry.Progress
	}

	// Crossing the start line completes the lap
	agent.x, agent.y = midpoint(tr, 0)
	tr.Advance(0)

	telemetry := tr.Telemetry()
	if telemetry.Lap != 1 {
		t.Errorf("lap = %v after full loop, want 1", telemetry.Lap)
	}
	if telemetry.Progress != 0 {
		t.Errorf("progress = %v after full loop, want 0", telemetry.Progress)
	}
}

func TestLeavingRoadKillsAgent(t *testing.T) {
	tr, agent := newTestTrack(t)

	agent.x, agent.y = 5, 5 // canvas corner, well off the loop
	tr.Advance(0)

	if tr.Telemetry().Alive {
		t.Error("agent off the road should be dead")
	}
}

func TestResetRevives(t *testing.T) {
	tr, agent := newTestTrack(t)

	agent.x, agent.y = 5, 5
	tr.Advance(0)
	if tr.Telemetry().Alive {
		t.Fatal("agent should be dead before reset")
	}

	if err := tr.Reset(false, false); err != nil {
		t.Fatalf("reset: %v", err)
	}

	telemetry := tr.Telemetry()
	if !telemetry.Alive {
		t.Error("reset should revive the agent")
	}
	if telemetry.Progress != 0 || telemetry.Lap != 0 {
		t.Errorf("telemetry = %+v after reset, want zero progress and lap",
			telemetry)
	}
}

func TestHardResetRegeneratesGeometry(t *testing.T) {
	tr, _ := newTestTrack(t)

	before := append([]Point(nil), tr.Center()...)
	if err := tr.Reset(false, true); err != nil {
		t.Fatalf("reset: %v", err)
	}
	after := tr.Center()

	if len(before) != len(after) {
		t.Fatalf("segment count changed from %d to %d", len(before),
			len(after))
	}

	same := true
	for i := range before {
		if math.Abs(before[i].X-after[i].X) > 1e-9 ||
			math.Abs(before[i].Y-after[i].Y) > 1e-9 {
			same = false
			break
		}
	}
	if same {
		t.Error("hard reset should regenerate the centerline")
	}
}

func TestTrackFileRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "track.json")

	saved := New(7)
	err := saved.Initialize(500, 500, nil, false, true, file)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	loaded := New(99) // different seed; geometry must come from the file
	err = loaded.Initialize(500, 500, nil, true, false, file)
	if err != nil {
		t.Fatalf("initialize from cache: %v", err)
	}

	want, got := saved.Center(), loaded.Center()
	if len(want) != len(got) {
		t.Fatalf("loaded %d control points, want %d", len(got), len(want))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("control point %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRenderDrawsRoad(t *testing.T) {
	tr, _ := newTestTrack(t)

	dc := gg.NewContext(500, 500)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	tr.Render(dc)

	// The canvas center lies inside the loop, so it stays background
	// while some road pixel does not
	img := dc.Image()
	mx, my := midpoint(tr, 0)
	r, g, b, _ := img.At(int(mx), int(my)).RGBA()
	if r>>8 == 255 && g>>8 == 255 && b>>8 == 255 {
		t.Error("road midpoint still background after render")
	}
}
