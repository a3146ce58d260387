package geo

import (
	"image"

	"github.com/LiubovD/thrird-chapter-workflow/internal/raster"
)

// Local is the in-memory engine implementation. It is stateless; all per-run
// settings arrive through the Context.
type Local struct{}

// NewLocal creates the in-memory engine.
func NewLocal() *Local {
	return &Local{}
}

// maskImage renders a binary mask dataset as a grayscale image with valid
// cells white. This is the bridge into the image-based morphology filters.
func maskImage(d *raster.Dataset) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, d.Width, d.Height))
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if d.IsValid(x, y) {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img
}

// maskFromImage converts a filtered image back into a {1, NoData} mask.
// Any pixel at half intensity or above counts as set.
func maskFromImage(img image.Image, cellSize float64) *raster.Dataset {
	b := img.Bounds()
	d := raster.New(b.Dx(), b.Dy(), 1, cellSize)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if r>>8 >= 128 {
				d.Set(1, x, y, 1)
			}
		}
	}
	return d
}
