package geo

import (
	"fmt"
	"math"

	"github.com/LiubovD/thrird-chapter-workflow/internal/vector"
)

// Buffer grows each feature outward by distance meters.
//
// The feature is rasterized at the run's cell size onto a grid padded by the
// buffer distance; a cell belongs to the buffered polygon when its center is
// within the distance of the original geometry. Re-vectorizing the grid gives
// the buffered outline with its area recomputed.
func (e *Local) Buffer(ctx *Context, features []vector.Feature, distance float64) ([]vector.Feature, error) {
	if distance <= 0 {
		return nil, fmt.Errorf("buffer distance %.3f must be positive", distance)
	}
	cs := ctx.CellSize
	if cs <= 0 {
		return nil, fmt.Errorf("engine context has no cell size")
	}

	out := make([]vector.Feature, 0, len(features))
	for i := range features {
		f := &features[i]
		minX, minY, maxX, maxY := f.Bounds()
		margin := distance + cs
		ox := int(math.Floor((minX - margin) / cs))
		oy := int(math.Floor((minY - margin) / cs))
		w := int(math.Ceil((maxX+margin)/cs)) - ox
		h := int(math.Ceil((maxY+margin)/cs)) - oy

		cells := make(map[gridPoint]bool)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				center := vector.Point{
					X: (float64(ox+x) + 0.5) * cs,
					Y: (float64(oy+y) + 0.5) * cs,
				}
				if f.DistanceTo(center) <= distance {
					cells[gridPoint{x, y}] = true
				}
			}
		}
		if len(cells) == 0 {
			continue
		}

		buffered := vector.Feature{Rings: traceRings(cells, cs, ox, oy)}
		buffered.ComputeArea()
		out = append(out, buffered)
	}
	return out, nil
}

// Dissolve merges overlapping features into single-part polygons.
//
// All features are rasterized onto one grid; the 8-connected regions of the
// union are re-vectorized, so overlapping or touching inputs come out as one
// polygon each. Areas are recomputed from the dissolved geometry.
func (e *Local) Dissolve(ctx *Context, features []vector.Feature) ([]vector.Feature, error) {
	if len(features) == 0 {
		return nil, nil
	}
	cs := ctx.CellSize
	if cs <= 0 {
		return nil, fmt.Errorf("engine context has no cell size")
	}

	minX, minY, maxX, maxY := features[0].Bounds()
	for i := 1; i < len(features); i++ {
		x1, y1, x2, y2 := features[i].Bounds()
		minX = math.Min(minX, x1)
		minY = math.Min(minY, y1)
		maxX = math.Max(maxX, x2)
		maxY = math.Max(maxY, y2)
	}
	ox := int(math.Floor(minX/cs)) - 1
	oy := int(math.Floor(minY/cs)) - 1
	w := int(math.Ceil(maxX/cs)) - ox + 1
	h := int(math.Ceil(maxY/cs)) - oy + 1

	union := make(map[gridPoint]bool)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := vector.Point{
				X: (float64(ox+x) + 0.5) * cs,
				Y: (float64(oy+y) + 0.5) * cs,
			}
			for i := range features {
				if features[i].ContainsPoint(center) {
					union[gridPoint{x, y}] = true
					break
				}
			}
		}
	}

	// Split the union into 8-connected parts; each becomes one polygon.
	parts := splitConnected(union)
	out := make([]vector.Feature, 0, len(parts))
	for _, part := range parts {
		f := vector.Feature{Rings: traceRings(part, cs, ox, oy)}
		f.ComputeArea()
		out = append(out, f)
	}
	return out, nil
}

// splitConnected partitions a cell set into its 8-connected components,
// ordered by their top-left cell for determinism.
func splitConnected(cells map[gridPoint]bool) []map[gridPoint]bool {
	seen := make(map[gridPoint]bool, len(cells))
	var parts []map[gridPoint]bool

	var order []gridPoint
	for c := range cells {
		order = append(order, c)
	}
	sortGridPoints(order)

	for _, seed := range order {
		if seen[seed] {
			continue
		}
		part := make(map[gridPoint]bool)
		stack := []gridPoint{seed}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[p] || !cells[p] {
				continue
			}
			seen[p] = true
			part[p] = true
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					stack = append(stack, gridPoint{p.X + dx, p.Y + dy})
				}
			}
		}
		parts = append(parts, part)
	}
	return parts
}

// SelectFeatures keeps the features whose area is strictly greater than
// minArea. Features at exactly minArea are discarded.
func (e *Local) SelectFeatures(ctx *Context, features []vector.Feature, minArea float64) []vector.Feature {
	out := make([]vector.Feature, 0, len(features))
	for _, f := range features {
		if f.Area > minArea {
			out = append(out, f)
		}
	}
	return out
}

// CopyFeatures writes the features to their final output location as a
// GeoJSON collection.
func (e *Local) CopyFeatures(ctx *Context, features []vector.Feature, path string) error {
	return vector.WriteCollection(features, path)
}
