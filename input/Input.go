// Package input defines the injectable input-provider collaborator
// used for manual control. The racing environment consumes a Provider
// only in manual windowed operation, which keeps the physics and
// observation core independent of any particular input source.
package input

// Key identifies a continuously-polled control key
type Key int

const (
	Up Key = iota
	Down
	Left
	Right
)

// EventType identifies a discrete input event
type EventType int

const (
	// Quit is produced when the window is closed or escape is pressed
	Quit EventType = iota

	// Snapshot requests that the current view be written to disk
	Snapshot

	// ResetTrack requests a manual track reset
	ResetTrack
)

// Event is a single discrete input event
type Event struct {
	Type EventType
}

// Provider produces input for manual control: continuous key state
// for accelerator and steering, and discrete events for everything
// else. A window implements Provider; headless environments use Nop.
type Provider interface {
	// Pressed reports whether key is currently held down
	Pressed(key Key) bool

	// Poll drains and returns the discrete events since the last call
	Poll() []Event
}

// Nop is the Provider used when no input source exists
type Nop struct{}

// Pressed always reports false
func (Nop) Pressed(Key) bool { return false }

// Poll always returns no events
func (Nop) Poll() []Event { return nil }
