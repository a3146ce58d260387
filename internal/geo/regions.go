package geo

import (
	"sort"

	"github.com/LiubovD/thrird-chapter-workflow/internal/raster"
	"github.com/LiubovD/thrird-chapter-workflow/internal/vector"
)

// gridPoint is a cell or corner coordinate on the raster grid.
type gridPoint struct {
	X, Y int
}

// RegionGroup labels the 8-connected regions of valid cells with identifiers
// 1..n, scanning top-left to bottom-right so labeling is deterministic.
func (e *Local) RegionGroup(ctx *Context, d *raster.Dataset) (*raster.Dataset, error) {
	out := d.Shape()
	visited := make([]bool, d.Width*d.Height)
	label := 0

	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if !d.IsValid(x, y) || visited[y*d.Width+x] {
				continue
			}
			label++
			// Iterative flood fill; recursion would overflow on large regions.
			stack := []gridPoint{{x, y}}
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if p.X < 0 || p.X >= d.Width || p.Y < 0 || p.Y >= d.Height {
					continue
				}
				if visited[p.Y*d.Width+p.X] || !d.IsValid(p.X, p.Y) {
					continue
				}
				visited[p.Y*d.Width+p.X] = true
				out.Set(1, p.X, p.Y, float64(label))
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						stack = append(stack, gridPoint{p.X + dx, p.Y + dy})
					}
				}
			}
		}
	}
	return out, nil
}

// RasterToPolygon converts each group of same-valued cells into one polygon
// feature. Boundaries follow the cell edges exactly (no simplification), and
// each feature's planar area is computed from the resulting rings.
func (e *Local) RasterToPolygon(ctx *Context, d *raster.Dataset) ([]vector.Feature, error) {
	groups := make(map[float64]map[gridPoint]bool)
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			if v, ok := d.Value(1, x, y); ok {
				cells, exists := groups[v]
				if !exists {
					cells = make(map[gridPoint]bool)
					groups[v] = cells
				}
				cells[gridPoint{x, y}] = true
			}
		}
	}

	values := make([]float64, 0, len(groups))
	for v := range groups {
		values = append(values, v)
	}
	sort.Float64s(values)

	features := make([]vector.Feature, 0, len(values))
	for _, v := range values {
		f := vector.Feature{Rings: traceRings(groups[v], d.CellSize, 0, 0)}
		f.ComputeArea()
		features = append(features, f)
	}
	return features, nil
}

// boundaryEdge is one directed cell-edge segment of a region outline. The
// region interior always lies to the right of the direction of travel.
type boundaryEdge struct {
	from, to gridPoint
	used     bool
}

// traceRings builds the boundary rings of a cell set by chaining directed
// boundary edges. Outer rings come out with positive signed area and holes
// negative; rings are returned outer-first. originX/originY shift the cell
// frame before scaling into meters.
func traceRings(cells map[gridPoint]bool, cellSize float64, originX, originY int) []vector.Ring {
	sorted := make([]gridPoint, 0, len(cells))
	for c := range cells {
		sorted = append(sorted, c)
	}
	sortGridPoints(sorted)

	var edges []boundaryEdge
	outgoing := make(map[gridPoint][]int)
	add := func(fx, fy, tx, ty int) {
		from := gridPoint{fx, fy}
		outgoing[from] = append(outgoing[from], len(edges))
		edges = append(edges, boundaryEdge{from: from, to: gridPoint{tx, ty}})
	}
	for _, c := range sorted {
		x, y := c.X, c.Y
		if !cells[gridPoint{x, y - 1}] {
			add(x, y, x+1, y)
		}
		if !cells[gridPoint{x + 1, y}] {
			add(x+1, y, x+1, y+1)
		}
		if !cells[gridPoint{x, y + 1}] {
			add(x+1, y+1, x, y+1)
		}
		if !cells[gridPoint{x - 1, y}] {
			add(x, y+1, x, y)
		}
	}

	var rings []vector.Ring
	for i := range edges {
		if edges[i].used {
			continue
		}
		corners := walkRing(edges, outgoing, i)
		ring := make(vector.Ring, 0, len(corners))
		for _, p := range corners {
			ring = append(ring, vector.Point{
				X: float64(originX+p.X) * cellSize,
				Y: float64(originY+p.Y) * cellSize,
			})
		}
		rings = append(rings, ring)
	}

	sort.SliceStable(rings, func(a, b int) bool {
		return rings[a].SignedArea() > rings[b].SignedArea()
	})
	return rings
}

// sortGridPoints orders points row-major, top-left first.
func sortGridPoints(pts []gridPoint) {
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})
}

// walkRing follows boundary edges from a starting edge until the ring
// closes. Where two rings share a corner, the walk takes the rightmost turn,
// which keeps the region interior hugged on the right and the rings simple.
func walkRing(edges []boundaryEdge, outgoing map[gridPoint][]int, start int) []gridPoint {
	var corners []gridPoint
	cur := start
	for {
		e := &edges[cur]
		e.used = true
		corners = append(corners, e.from)

		din := gridPoint{e.to.X - e.from.X, e.to.Y - e.from.Y}
		next := -1
		bestScore := -1
		for _, ci := range outgoing[e.to] {
			if edges[ci].used {
				continue
			}
			dout := gridPoint{edges[ci].to.X - edges[ci].from.X, edges[ci].to.Y - edges[ci].from.Y}
			cross := din.X*dout.Y - din.Y*dout.X
			dot := din.X*dout.X + din.Y*dout.Y
			score := 0
			switch {
			case cross > 0:
				score = 2 // right turn
			case cross == 0 && dot > 0:
				score = 1 // straight ahead
			}
			if score > bestScore {
				bestScore, next = score, ci
			}
		}
		if next < 0 {
			return corners // back at the start corner
		}
		cur = next
	}
}
