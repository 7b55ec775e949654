// Package environment outlines the interfaces and structs needed to
// implement concrete driving environments
package environment

import (
	"errors"
	"image"

	"gorgonia.org/tensor"
)

// ErrInvalidAction is returned when an action id outside the active
// environment's action space is applied. The source of truth for the
// valid range is the environment's ActionSpec.
var ErrInvalidAction = errors.New("action outside action space")

// Action is a discrete action identifier. Each environment declares
// its own action space, and ids are only meaningful with respect to
// the environment that declared them.
type Action int

// NoAction tells Step to advance the simulation without applying any
// agent input. Physics and rendering still run.
const NoAction Action = -1

// Telemetry is the per-step scalar world state reported by the track:
// whether the agent is still on the road, how far along the lap it is,
// and how many laps it has completed. It is distinct from the image
// observation and is the racing environment's out-of-band reward
// channel.
type Telemetry struct {
	Alive    bool
	Progress float64 // percent of the lap completed, in [0, 100]
	Lap      int
}

// Observation packages together the data extracted from an
// environment by State. Fields are nil unless the caller asked for
// them, so a lightweight telemetry poll never pays for image
// extraction.
type Observation struct {
	// Frame is the processed image observation in channel-first
	// (C, H, W) layout. A single channel when grayscale.
	Frame *tensor.Dense

	// Image is the un-normalized raster the Frame was derived from,
	// suitable for persistence.
	Image image.Image

	// Telemetry is only reported by environments backed by a track.
	Telemetry *Telemetry
}

// Environment implements a simulated driving task. Callers hold a
// polymorphic handle selected once at construction: the concrete type
// behind it can be swapped without any change to the training loop.
//
// The canonical lifecycle is:
//
//	env, err := ...
//	defer env.Release()
//	env.Reset(false, false)
//	for !env.Exit() {
//		reward, done, err := env.Step(action, sync)
//		obs, err := env.State(true, true)
//		...
//	}
type Environment interface {
	// State extracts an observation on demand. When frameActive, the
	// current render surface is converted into an image observation;
	// when paramsActive, telemetry is pulled and the done flag is
	// updated from it.
	State(frameActive, paramsActive bool) (Observation, error)

	// Step advances the simulation by one tick. The action may be
	// NoAction, in which case physics and rendering still advance.
	// When sync is set, Step blocks long enough to cap the loop at
	// the target frame rate and recomputes the attenuation factor.
	Step(action Action, sync bool) (reward float64, done bool, err error)

	// Reset returns the environment to a startable state. A random
	// reset randomizes the start pose; a hard reset regenerates the
	// world.
	Reset(randomReset, hardReset bool) error

	// EventHandler translates external input into physics calls. It
	// is a no-op outside manual windowed operation.
	EventHandler() error

	// Release frees all acquired resources. It is safe to call more
	// than once; teardown runs exactly once.
	Release()

	// Done reports whether the current episode has terminated. Once
	// true it stays true until Reset.
	Done() bool

	// Exit reports whether an external exit was requested, e.g. by
	// closing the window. The host loop is responsible for checking
	// it and calling Release.
	Exit() bool

	ActionSpec() Spec
	ObservationSpec() Spec
}

// Base provides the state shared by every environment variant: the
// monotonic done flag and the cooperative exit flag. Concrete
// environments embed it. Its EventHandler is the default no-op hook.
type Base struct {
	done bool
	exit bool
}

// Done reports whether the current episode has terminated
func (b *Base) Done() bool {
	return b.done
}

// MarkDone latches the done flag. It stays latched until ClearDone.
func (b *Base) MarkDone() {
	b.done = true
}

// ClearDone unlatches the done flag. Only Reset implementations
// should call it.
func (b *Base) ClearDone() {
	b.done = false
}

// Exit reports whether an external exit was requested
func (b *Base) Exit() bool {
	return b.exit
}

// RequestExit sets the cooperative exit flag observed by the host loop
func (b *Base) RequestExit() {
	b.exit = true
}

// EventHandler is the default input hook; it does nothing
func (b *Base) EventHandler() error {
	return nil
}
