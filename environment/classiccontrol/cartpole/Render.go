package cartpole

import (
	"image"
	"math"

	"github.com/fogleman/gg"
)

// Screen extent of a rendered frame, in pixels
const (
	ScreenWidth  int = 600
	ScreenHeight int = 400
)

// Rendered proportions
const (
	cartY      float64 = 300 // vertical center of the cart
	cartWidth  float64 = 50
	cartHeight float64 = 30
	poleLength float64 = 100
	poleWidth  float64 = 10
	axleRadius float64 = 6
)

// CartX maps the cart's position onto its horizontal screen
// coordinate
func (c *Cartpole) CartX() float64 {
	worldWidth := 2 * PositionThreshold
	scale := float64(ScreenWidth) / worldWidth

	return c.state.AtVec(0)*scale + float64(ScreenWidth)/2
}

// Render draws the current state into a ScreenWidth x ScreenHeight
// frame: track line, cart, pole, and axle
func (c *Cartpole) Render() image.Image {
	dc := gg.NewContext(ScreenWidth, ScreenHeight)

	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Track
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(2)
	dc.DrawLine(0, cartY, float64(ScreenWidth), cartY)
	dc.Stroke()

	cartX := c.CartX()

	// Cart
	dc.SetRGB(0, 0, 0)
	dc.DrawRectangle(cartX-cartWidth/2, cartY-cartHeight/2, cartWidth,
		cartHeight)
	dc.Fill()

	// Pole, drawn from the axle toward the tip; theta is measured
	// from vertical
	theta := c.state.AtVec(2)
	tipX := cartX + poleLength*math.Sin(theta)
	tipY := cartY - poleLength*math.Cos(theta)

	dc.SetRGB(0.8, 0.6, 0.4)
	dc.SetLineWidth(poleWidth)
	dc.DrawLine(cartX, cartY, tipX, tipY)
	dc.Stroke()

	// Axle
	dc.SetRGB(0.5, 0.5, 0.8)
	dc.DrawCircle(cartX, cartY, axleRadius)
	dc.Fill()

	return dc.Image()
}
