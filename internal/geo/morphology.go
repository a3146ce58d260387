package geo

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"

	"github.com/LiubovD/thrird-chapter-workflow/internal/raster"
	"github.com/LiubovD/thrird-chapter-workflow/internal/vector"
)

// ExtractByMask keeps the cells of d that carry data in mask. A cell
// survives only if it is valid in both inputs.
func (e *Local) ExtractByMask(ctx *Context, d, mask *raster.Dataset) (*raster.Dataset, error) {
	if d.Width != mask.Width || d.Height != mask.Height {
		return nil, fmt.Errorf("mask grid %dx%d does not match raster %dx%d",
			mask.Width, mask.Height, d.Width, d.Height)
	}

	out := raster.New(d.Width, d.Height, d.BandCount, d.CellSize)
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if !mask.IsValid(x, y) {
				continue
			}
			for band := 1; band <= d.BandCount; band++ {
				if v, ok := d.Value(band, x, y); ok {
					out.Set(band, x, y, v)
				}
			}
		}
	}
	return out, nil
}

// ClipToPolygons keeps the cells of d whose centers fall inside any of the
// polygons. Polygon coordinates are planar meters in the raster's frame.
func (e *Local) ClipToPolygons(ctx *Context, d *raster.Dataset, polygons []vector.Feature) (*raster.Dataset, error) {
	if len(polygons) == 0 {
		return nil, fmt.Errorf("clip requires at least one polygon")
	}

	out := raster.New(d.Width, d.Height, d.BandCount, d.CellSize)
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if !d.IsValid(x, y) {
				continue
			}
			center := vector.Point{
				X: (float64(x) + 0.5) * d.CellSize,
				Y: (float64(y) + 0.5) * d.CellSize,
			}
			inside := false
			for i := range polygons {
				if polygons[i].ContainsPoint(center) {
					inside = true
					break
				}
			}
			if !inside {
				continue
			}
			for band := 1; band <= d.BandCount; band++ {
				if v, ok := d.Value(band, x, y); ok {
					out.Set(band, x, y, v)
				}
			}
		}
	}
	return out, nil
}

// MajorityFilter replaces each mask cell with the majority value of its 3x3
// neighborhood. For a binary mask the median filter is exactly that, which
// removes salt-and-pepper speckle.
func (e *Local) MajorityFilter(ctx *Context, d *raster.Dataset) (*raster.Dataset, error) {
	filtered := effect.Median(maskImage(d), 1)
	return maskFromImage(filtered, d.CellSize), nil
}

// Expand grows mask regions by the given number of cells in all directions.
func (e *Local) Expand(ctx *Context, d *raster.Dataset, cells int) (*raster.Dataset, error) {
	if cells < 1 {
		return nil, fmt.Errorf("expand distance %d: need at least 1 cell", cells)
	}
	grown := effect.Dilate(paddedMaskImage(d, cells), float64(cells))
	return cropMask(grown, cells, d.Width, d.Height, d.CellSize), nil
}

// Shrink contracts mask regions by the given number of cells in all
// directions. Expand followed by Shrink with the same distance closes gaps
// narrower than twice the distance while restoring the original extent.
func (e *Local) Shrink(ctx *Context, d *raster.Dataset, cells int) (*raster.Dataset, error) {
	if cells < 1 {
		return nil, fmt.Errorf("shrink distance %d: need at least 1 cell", cells)
	}
	contracted := effect.Erode(paddedMaskImage(d, cells), float64(cells))
	return cropMask(contracted, cells, d.Width, d.Height, d.CellSize), nil
}

// paddedMaskImage renders the mask with a black border of pad pixels. The
// morphology filters replicate edge pixels outward, which would let eroded
// regions cling to the raster edge; the border makes everything outside the
// raster register as background instead.
func paddedMaskImage(d *raster.Dataset, pad int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, d.Width+2*pad, d.Height+2*pad))
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if d.IsValid(x, y) {
				img.Pix[(y+pad)*img.Stride+x+pad] = 255
			}
		}
	}
	return img
}

// cropMask strips the border added by paddedMaskImage and converts the
// filtered image back into a mask of the original grid.
func cropMask(img *image.RGBA, pad, width, height int, cellSize float64) *raster.Dataset {
	return maskFromImage(img.SubImage(image.Rect(pad, pad, pad+width, pad+height)), cellSize)
}
