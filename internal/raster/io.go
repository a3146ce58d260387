package raster

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/tiff"
)

// Load decodes an image file (PNG, JPEG, GIF, TIFF or BMP) into a dataset.
//
// Band count follows the decoded color model: grayscale images produce one
// band, opaque color images three, color images with an alpha channel four.
// Fully transparent pixels become NoData. The decoded image is kept as the
// dataset's backing image.
func Load(path string, cellSize float64) (*Dataset, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	return FromImage(img, cellSize), nil
}

// FromImage converts a decoded image into a dataset.
func FromImage(img image.Image, cellSize float64) *Dataset {
	bands := 3
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		bands = 1
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		bands = 4
	}

	// Clone normalizes any color model to NRGBA with bounds at the origin.
	px := imaging.Clone(img)
	w, h := px.Rect.Dx(), px.Rect.Dy()
	d := New(w, h, bands, cellSize)
	d.src = img

	for y := 0; y < h; y++ {
		row := px.Pix[y*px.Stride:]
		for x := 0; x < w; x++ {
			r := row[x*4]
			g := row[x*4+1]
			b := row[x*4+2]
			a := row[x*4+3]
			if a == 0 {
				continue // NoData
			}
			switch bands {
			case 1:
				d.Set(1, x, y, float64(r))
			case 4:
				d.Set(1, x, y, float64(r))
				d.Set(2, x, y, float64(g))
				d.Set(3, x, y, float64(b))
				d.Set(4, x, y, float64(a))
			default:
				d.Set(1, x, y, float64(r))
				d.Set(2, x, y, float64(g))
				d.Set(3, x, y, float64(b))
			}
		}
	}
	return d
}

// ToImage renders the dataset as an NRGBA image with NoData as zero alpha.
//
// Single-band datasets render as gray. When every valid value is at most 1
// (binary masks, {1, NoData}) values are stretched to 255 so mask artifacts
// are visible and a stored mask reloads as 255/0.
func (d *Dataset) ToImage() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, d.Width, d.Height))

	scale := 1.0
	if d.BandCount == 1 {
		if maxV, ok := d.MaxValue(1); ok && maxV <= 1 {
			scale = 255
		}
	}

	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if !d.IsValid(x, y) {
				continue
			}
			var c color.NRGBA
			c.A = 255
			switch d.BandCount {
			case 1:
				v, _ := d.Value(1, x, y)
				g := clamp8(v * scale)
				c.R, c.G, c.B = g, g, g
			default:
				r, _ := d.Value(1, x, y)
				g, _ := d.Value(2, x, y)
				b, _ := d.Value(3, x, y)
				c.R, c.G, c.B = clamp8(r), clamp8(g), clamp8(b)
				if d.BandCount >= 4 {
					a, _ := d.Value(4, x, y)
					c.A = clamp8(a)
					if c.A == 0 {
						c.A = 1 // keep the cell distinguishable from NoData
					}
				}
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

// StoreTIFF writes the dataset as a deflate-compressed TIFF artifact.
func (d *Dataset) StoreTIFF(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create artifact %s: %w", path, err)
	}
	defer f.Close()

	if err := tiff.Encode(f, d.ToImage(), &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("failed to encode artifact %s: %w", path, err)
	}
	return nil
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
