// Package render owns the rendering subsystem: an in-memory pixel
// surface that every environment draws to, and an optional desktop
// window that presents it. The subsystem's lifetime is held by an
// explicit Context created by the environment constructor and torn
// down by Release; there is no process-wide hidden state.
package render

import (
	"image"
	"sync"

	"github.com/fogleman/gg"
)

// Context owns a fixed-size drawing surface and, in windowed
// operation, the window presenting it. A Context is exclusively owned
// by one environment instance.
type Context struct {
	dc     *gg.Context
	window Window
	once   sync.Once
}

// NewContext returns a Context drawing to a width x height offscreen
// surface. A nil window means headless operation: rendering still
// happens, but to memory only.
func NewContext(width, height int, window Window) *Context {
	return &Context{dc: gg.NewContext(width, height), window: window}
}

// DC exposes the drawing surface to renderers
func (c *Context) DC() *gg.Context {
	return c.dc
}

// Clear fills the whole surface with the background color
func (c *Context) Clear(r, g, b float64) {
	c.dc.SetRGB(r, g, b)
	c.dc.Clear()
}

// Image returns the surface's current pixel buffer as a top-left
// origin RGB image
func (c *Context) Image() image.Image {
	return c.dc.Image()
}

// Windowed reports whether a visible window is attached
func (c *Context) Windowed() bool {
	return c.window != nil
}

// Present pushes the current surface to the window, if any
func (c *Context) Present() {
	if c.window != nil {
		c.window.Present(c.dc.Image())
	}
}

// SetCaption updates the window caption, if any
func (c *Context) SetCaption(caption string) {
	if c.window != nil {
		c.window.SetCaption(caption)
	}
}

// Release tears down the windowing subsystem. Calling it more than
// once is safe; teardown runs exactly once.
func (c *Context) Release() {
	c.once.Do(func() {
		if c.window != nil {
			c.window.Release()
		}
	})
}
