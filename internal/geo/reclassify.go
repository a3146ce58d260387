package geo

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/channel"
	"github.com/anthonynsimon/bild/segment"

	"github.com/LiubovD/thrird-chapter-workflow/internal/raster"
)

// Reclassify maps cell values of a single-band raster through a remap table.
// Values without an entry become NoData.
func (e *Local) Reclassify(ctx *Context, d *raster.Dataset, table RemapTable) (*raster.Dataset, error) {
	if err := d.CheckBand(1); err != nil {
		return nil, err
	}
	lookup := make(map[float64]RemapEntry, len(table))
	for _, entry := range table {
		lookup[entry.From] = entry
	}

	out := d.Shape()
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			v, ok := d.Value(1, x, y)
			if !ok {
				continue
			}
			entry, mapped := lookup[v]
			if !mapped || entry.ToNoData {
				continue
			}
			out.Set(1, x, y, entry.To)
		}
	}
	return out, nil
}

// Threshold builds a {1, NoData} mask of the cells whose first-band value is
// at least cut. Values in [0, cut) become NoData.
func (e *Local) Threshold(ctx *Context, d *raster.Dataset, cut float64) (*raster.Dataset, error) {
	if cut < 0 || cut > 255 {
		return nil, fmt.Errorf("threshold cut %.1f outside [0, 255]", cut)
	}

	// Render cells at or above the cut as white, everything else black, then
	// run the segmentation filter to binarize. Applying the cut before the
	// render keeps the boundary inclusive regardless of how the filter's
	// internal grayscale conversion rounds.
	img := image.NewGray(image.Rect(0, 0, d.Width, d.Height))
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if v, ok := d.Value(1, x, y); ok && v >= cut {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	binary := segment.Threshold(img, 128)

	out := maskFromImage(binary, d.CellSize)
	// Valid input cells below the cut are NoData in the mask, but NoData
	// input cells must stay NoData even when the cut is 0.
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if !d.IsValid(x, y) {
				out.SetNoData(x, y)
			}
		}
	}
	return out, nil
}

// CompositeBand extracts one band through the specialized channel-addressed
// capability of the dataset's backing image.
//
// The capability requires a backing image and a band that maps onto one of
// its channels (1..4). Anything else fails with ErrExtensionUnavailable so
// the caller can fall back to CopyBand.
func (e *Local) CompositeBand(ctx *Context, d *raster.Dataset, band int) (*raster.Dataset, error) {
	src := d.Backing()
	if src == nil {
		return nil, fmt.Errorf("dataset has no backing image: %w", ErrExtensionUnavailable)
	}

	var ch channel.Channel
	switch band {
	case 1:
		ch = channel.Red
	case 2:
		ch = channel.Green
	case 3:
		ch = channel.Blue
	case 4:
		ch = channel.Alpha
	default:
		return nil, fmt.Errorf("band %d has no image channel: %w", band, ErrExtensionUnavailable)
	}

	gray := channel.Extract(src, ch)
	b := gray.Bounds()
	out := raster.New(d.Width, d.Height, 1, d.CellSize)
	for y := 0; y < d.Height && y < b.Dy(); y++ {
		for x := 0; x < d.Width && x < b.Dx(); x++ {
			if !d.IsValid(x, y) {
				continue
			}
			out.Set(1, x, y, float64(gray.Pix[y*gray.Stride+x]))
		}
	}
	return out, nil
}

// CopyBand extracts one band with a generic band-addressed plane copy. It
// serves any dataset and any band within range, and its result matches
// CompositeBand wherever both apply.
func (e *Local) CopyBand(ctx *Context, d *raster.Dataset, band int) (*raster.Dataset, error) {
	if err := d.CheckBand(band); err != nil {
		return nil, err
	}
	out := d.Shape()
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if v, ok := d.Value(band, x, y); ok {
				out.Set(1, x, y, v)
			}
		}
	}
	return out, nil
}
