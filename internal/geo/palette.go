package geo

import (
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/LiubovD/thrird-chapter-workflow/internal/raster"
)

// RenderClassified renders a classified raster with one visually distinct
// color per class so the user can inspect which class caught the dead trees.
// The raw label values are near-black when viewed directly, so this rendering
// is written alongside the TIFF artifact.
func RenderClassified(d *raster.Dataset, classes int) *image.NRGBA {
	if classes < 1 {
		classes = 1
	}
	palette := colorful.FastHappyPalette(classes)

	out := image.NewNRGBA(image.Rect(0, 0, d.Width, d.Height))
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			v, ok := d.Value(1, x, y)
			if !ok {
				continue
			}
			label := int(v)
			if label < 1 || label > classes {
				continue
			}
			r, g, b := palette[label-1].RGB255()
			out.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out
}
