package raster

import (
	"fmt"
	"image"
	"math"
)

// Dataset is an in-memory multi-band raster with a shared NoData mask.
//
// Cell values are stored as float64 so the same type can carry 8-bit imagery
// (0..255), class labels (1..N) and region identifiers without re-allocation.
// The zero value is not usable; construct datasets with New or FromImage.
type Dataset struct {
	// Width and Height are the grid dimensions in cells.
	Width  int
	Height int

	// BandCount is the number of band planes (>= 1).
	BandCount int

	// CellSize is the edge length of one cell in meters.
	CellSize float64

	cells []float64 // band-major planes: index = (band*Height+y)*Width + x
	valid []bool    // shared validity: index = y*Width + x

	src image.Image // backing image when decoded from disk; nil otherwise
}

// New creates a dataset of the given shape with every cell set to NoData.
func New(width, height, bands int, cellSize float64) *Dataset {
	return &Dataset{
		Width:     width,
		Height:    height,
		BandCount: bands,
		CellSize:  cellSize,
		cells:     make([]float64, bands*width*height),
		valid:     make([]bool, width*height),
	}
}

// Value returns the cell value in a 1-based band. The second return is false
// when the cell is NoData or the coordinates are outside the grid.
func (d *Dataset) Value(band, x, y int) (float64, bool) {
	if band < 1 || band > d.BandCount || x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return 0, false
	}
	if !d.valid[y*d.Width+x] {
		return 0, false
	}
	return d.cells[((band-1)*d.Height+y)*d.Width+x], true
}

// Set assigns a value in a 1-based band and marks the cell as valid.
func (d *Dataset) Set(band, x, y int, v float64) {
	d.cells[((band-1)*d.Height+y)*d.Width+x] = v
	d.valid[y*d.Width+x] = true
}

// SetNoData marks a cell as NoData in all bands.
func (d *Dataset) SetNoData(x, y int) {
	d.valid[y*d.Width+x] = false
}

// IsValid reports whether a cell carries data.
func (d *Dataset) IsValid(x, y int) bool {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return false
	}
	return d.valid[y*d.Width+x]
}

// ValidCount returns the number of cells that carry data.
func (d *Dataset) ValidCount() int {
	n := 0
	for _, v := range d.valid {
		if v {
			n++
		}
	}
	return n
}

// Backing returns the decoded source image this dataset was loaded from, or
// nil when the dataset was produced in memory. The specialized band-extraction
// path requires a backing image.
func (d *Dataset) Backing() image.Image {
	return d.src
}

// Shape creates an empty single-band dataset with the same grid geometry as d.
func (d *Dataset) Shape() *Dataset {
	return New(d.Width, d.Height, 1, d.CellSize)
}

// MaxValue returns the largest valid cell value in a 1-based band. The second
// return is false when no cell in the band carries data.
func (d *Dataset) MaxValue(band int) (float64, bool) {
	maxV := math.Inf(-1)
	found := false
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if v, ok := d.Value(band, x, y); ok {
				if !found || v > maxV {
					maxV = v
					found = true
				}
			}
		}
	}
	return maxV, found
}

// CheckBand validates a 1-based band index against the dataset.
func (d *Dataset) CheckBand(band int) error {
	if band < 1 || band > d.BandCount {
		return fmt.Errorf("band %d outside [1, %d]", band, d.BandCount)
	}
	return nil
}
