package vector

import "math"

// Point is a 2D point in planar meters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ring is a closed polygon boundary. The closing edge from the last vertex
// back to the first is implicit.
type Ring []Point

// Feature is a polygon with its area attribute.
type Feature struct {
	// Rings holds the outer boundary first, followed by holes.
	Rings []Ring `json:"rings"`

	// Area is the planar area in square meters (outer minus holes).
	Area float64 `json:"area"`
}

// SignedArea returns the shoelace area of the ring. With Y growing downward,
// rings wound clockwise on screen (the outer-boundary convention used by the
// vectorizer) have positive signed area and holes negative.
func (r Ring) SignedArea() float64 {
	if len(r) < 3 {
		return 0
	}
	sum := 0.0
	for i := range r {
		j := (i + 1) % len(r)
		sum += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return sum / 2
}

// ComputeArea recomputes and stores the feature's area from its rings.
func (f *Feature) ComputeArea() float64 {
	sum := 0.0
	for _, r := range f.Rings {
		sum += r.SignedArea()
	}
	f.Area = math.Abs(sum)
	return f.Area
}

// Bounds returns the axis-aligned bounding box of the feature as
// (minX, minY, maxX, maxY). A feature with no vertices returns zeros.
func (f *Feature) Bounds() (minX, minY, maxX, maxY float64) {
	first := true
	for _, r := range f.Rings {
		for _, p := range r {
			if first {
				minX, maxX = p.X, p.X
				minY, maxY = p.Y, p.Y
				first = false
				continue
			}
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
	}
	return minX, minY, maxX, maxY
}

// ContainsPoint tests whether a point is inside the polygon using even-odd
// ray casting across all rings, so points inside holes count as outside.
func (f *Feature) ContainsPoint(p Point) bool {
	inside := false
	for _, r := range f.Rings {
		if r.containsPoint(p) {
			inside = !inside
		}
	}
	return inside
}

func (r Ring) containsPoint(p Point) bool {
	if len(r) < 3 {
		return false
	}
	inside := false
	n := len(r)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := r[i], r[j]
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}
	return inside
}

// DistanceTo returns the distance from a point to the feature boundary, or 0
// when the point lies inside the polygon.
func (f *Feature) DistanceTo(p Point) float64 {
	if f.ContainsPoint(p) {
		return 0
	}
	min := math.Inf(1)
	for _, r := range f.Rings {
		n := len(r)
		for i := 0; i < n; i++ {
			d := pointSegmentDistance(p, r[i], r[(i+1)%n])
			if d < min {
				min = d
			}
		}
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return min
}

// pointSegmentDistance returns the distance from p to the segment a-b.
func pointSegmentDistance(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
