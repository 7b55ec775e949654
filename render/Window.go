package render

import (
	"fmt"
	"image"

	"github.com/faiface/pixel"
	"github.com/faiface/pixel/pixelgl"
	"golang.org/x/image/colornames"

	"github.com/samuelfneumann/goracer/input"
)

// Window presents rendered frames on a display and doubles as the
// input provider for manual control
type Window interface {
	input.Provider

	// Present displays a rendered frame
	Present(img image.Image)

	// SetCaption sets the window caption
	SetCaption(caption string)

	// Release destroys the window
	Release()
}

// GLWindow is a Window backed by an OpenGL desktop window. It must be
// created and used on the main thread, inside pixelgl.Run.
type GLWindow struct {
	win *pixelgl.Window
}

// NewWindow opens a width x height desktop window with the given
// caption
func NewWindow(width, height int, caption string) (*GLWindow, error) {
	cfg := pixelgl.WindowConfig{
		Title:  caption,
		Bounds: pixel.R(0, 0, float64(width), float64(height)),
	}

	win, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("newWindow: could not open window: %v", err)
	}

	return &GLWindow{win: win}, nil
}

// Present draws a rendered frame to the window and flips the display
func (w *GLWindow) Present(img image.Image) {
	pic := pixel.PictureDataFromImage(img)
	sprite := pixel.NewSprite(pic, pic.Bounds())

	w.win.Clear(colornames.White)
	sprite.Draw(w.win, pixel.IM.Moved(w.win.Bounds().Center()))
	w.win.Update()
}

// SetCaption sets the window caption
func (w *GLWindow) SetCaption(caption string) {
	w.win.SetTitle(caption)
}

// Pressed reports whether a control key is currently held down
func (w *GLWindow) Pressed(key input.Key) bool {
	button, ok := buttons[key]
	if !ok {
		return false
	}
	return w.win.Pressed(button)
}

// Poll returns the discrete input events since the last frame
func (w *GLWindow) Poll() []input.Event {
	var events []input.Event

	if w.win.Closed() || w.win.JustPressed(pixelgl.KeyEscape) {
		events = append(events, input.Event{Type: input.Quit})
	}
	if w.win.JustPressed(pixelgl.KeyPrintScreen) {
		events = append(events, input.Event{Type: input.Snapshot})
	}
	if w.win.JustPressed(pixelgl.KeyR) {
		events = append(events, input.Event{Type: input.ResetTrack})
	}

	return events
}

// Release destroys the window
func (w *GLWindow) Release() {
	w.win.Destroy()
}

var buttons = map[input.Key]pixelgl.Button{
	input.Up:    pixelgl.KeyUp,
	input.Down:  pixelgl.KeyDown,
	input.Left:  pixelgl.KeyLeft,
	input.Right: pixelgl.KeyRight,
}
