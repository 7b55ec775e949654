// Package observation converts rendered pixel surfaces into the
// canonical observations consumed by a training loop: cropped,
// optionally grayscaled and normalized images, laid out as
// channel-first tensors.
package observation

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
	"gorgonia.org/tensor"
)

// SnapshotDir is where persisted views are written
const SnapshotDir = "snapshots"

// Config selects the processing applied by Snapshot. The zero value
// leaves the surface untouched and produces no tensor.
type Config struct {
	// Size is the extent of the crop taken around the center point.
	// A zero Size skips cropping.
	Size image.Point

	// Grayscale reduces the image to a single luminance channel
	Grayscale bool

	// Normalize scales tensor values into [0, 1]
	Normalize bool

	// Tensor produces a channel-first (C, H, W) tensor of the
	// processed image
	Tensor bool
}

// Snapshot runs the observation pipeline over a rendered surface:
// crop a Size-sized region centered on center (clamped so the crop
// never leaves the surface), optionally grayscale, and optionally
// convert to a channel-first tensor, normalized to [0, 1] on request.
// The returned image is the processed, un-normalized raster; the
// returned tensor is nil unless requested.
func Snapshot(img image.Image, center image.Point, c Config) (*tensor.Dense,
	image.Image, error) {
	if c.Size.X > 0 && c.Size.Y > 0 {
		img = Crop(img, c.Size, center)
	}

	if c.Grayscale {
		img = Grayscale(img)
	}

	if !c.Tensor {
		return nil, img, nil
	}

	frame, err := Tensor(img, c.Normalize)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: could not create tensor: %v",
			err)
	}

	return frame, img, nil
}

// Crop returns the size-sized region of img centered on center. The
// region is clamped inside the image bounds, shifting inward near the
// edges so that the returned extent is always exactly size.
func Crop(img image.Image, size, center image.Point) image.Image {
	bounds := img.Bounds()

	x0 := clamp(center.X-size.X/2, bounds.Min.X, bounds.Max.X-size.X)
	y0 := clamp(center.Y-size.Y/2, bounds.Min.Y, bounds.Max.Y-size.Y)

	return transform.Crop(img, image.Rect(x0, y0, x0+size.X, y0+size.Y))
}

// Grayscale reduces img to a single luminance channel
func Grayscale(img image.Image) *image.Gray {
	rgba := effect.Grayscale(img)

	bounds := rgba.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// All three channels hold the luminance after
			// effect.Grayscale; take red.
			gray.SetGray(x, y, color.Gray{Y: rgba.RGBAAt(x, y).R})
		}
	}
	return gray
}

// Resize scales img to width x height with Catmull-Rom resampling,
// the cubic filter
func Resize(img image.Image, width, height int) image.Image {
	return transform.Resize(img, width, height, transform.CatmullRom)
}

// Tensor converts img into a channel-first (C, H, W) float64 tensor:
// one channel for a grayscale image, three otherwise. When normalize
// is set, values are scaled from [0, 255] into [0, 1].
func Tensor(img image.Image, normalize bool) (*tensor.Dense, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("tensor: empty image %v", bounds)
	}

	scale := 1.0
	if normalize {
		scale = 1.0 / 255.0
	}

	if gray, ok := img.(*image.Gray); ok {
		backing := make([]float64, height*width)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g := gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y)
				backing[y*width+x] = float64(g.Y) * scale
			}
		}
		return tensor.New(tensor.WithShape(1, height, width),
			tensor.WithBacking(backing)), nil
	}

	backing := make([]float64, 3*height*width)
	area := height * width
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := y*width + x
			backing[i] = float64(r>>8) * scale
			backing[area+i] = float64(g>>8) * scale
			backing[2*area+i] = float64(b>>8) * scale
		}
	}
	return tensor.New(tensor.WithShape(3, height, width),
		tensor.WithBacking(backing)), nil
}

// Save writes img as a PNG file named filename under SnapshotDir,
// creating the directory if needed
func Save(img image.Image, filename string) error {
	if err := os.MkdirAll(SnapshotDir, 0755); err != nil {
		return fmt.Errorf("save: could not create snapshot dir: %v", err)
	}

	f, err := os.Create(filepath.Join(SnapshotDir, filename))
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("save: could not encode image: %v", err)
	}
	return nil
}

func clamp(v, min, max int) int {
	if max < min {
		max = min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
