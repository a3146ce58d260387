package geo

import (
	"math"
	"testing"

	"github.com/LiubovD/thrird-chapter-workflow/internal/vector"
)

// squareFeature builds an axis-aligned square polygon in planar meters.
func squareFeature(x, y, size float64) vector.Feature {
	f := vector.Feature{Rings: []vector.Ring{{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}}}
	f.ComputeArea()
	return f
}

func TestBufferGrowsFeature(t *testing.T) {
	f := squareFeature(0, 0, 1)

	out, err := NewLocal().Buffer(testContext(), []vector.Feature{f}, 1)
	if err != nil {
		t.Fatalf("Buffer failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("feature count: got %d, want 1", len(out))
	}
	// At 1m cells a 1m buffer around a unit square covers the 3x3 cell block.
	if out[0].Area != 9 {
		t.Errorf("buffered area: got %v, want 9", out[0].Area)
	}
	if !out[0].ContainsPoint(vector.Point{X: -0.5, Y: 0.5}) {
		t.Error("buffer should extend past the original boundary")
	}
}

func TestBufferRejectsBadDistance(t *testing.T) {
	if _, err := NewLocal().Buffer(testContext(), nil, 0); err == nil {
		t.Error("distance 0: want error, got nil")
	}
}

func TestDissolveMergesOverlapping(t *testing.T) {
	features := []vector.Feature{
		squareFeature(0, 0, 2),
		squareFeature(1, 1, 2),
	}

	out, err := NewLocal().Dissolve(testContext(), features)
	if err != nil {
		t.Fatalf("Dissolve failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("feature count: got %d, want 1 merged polygon", len(out))
	}
	// Two 2x2 squares overlapping in one cell cover 7 cells.
	if out[0].Area != 7 {
		t.Errorf("dissolved area: got %v, want 7", out[0].Area)
	}
}

func TestDissolveKeepsDisjointApart(t *testing.T) {
	features := []vector.Feature{
		squareFeature(0, 0, 2),
		squareFeature(5, 5, 2),
	}

	out, err := NewLocal().Dissolve(testContext(), features)
	if err != nil {
		t.Fatalf("Dissolve failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("feature count: got %d, want 2", len(out))
	}
	for i, f := range out {
		if math.Abs(f.Area-4) > 1e-9 {
			t.Errorf("feature %d area: got %v, want 4", i, f.Area)
		}
	}
}

func TestDissolveEmpty(t *testing.T) {
	out, err := NewLocal().Dissolve(testContext(), nil)
	if err != nil {
		t.Fatalf("Dissolve failed: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d features, want 0", len(out))
	}
}

func TestSelectFeaturesIsStrict(t *testing.T) {
	features := []vector.Feature{
		{Area: 5},
		{Area: 10},
		{Area: 50},
	}

	out := NewLocal().SelectFeatures(testContext(), features, 10)
	if len(out) != 1 {
		t.Fatalf("feature count: got %d, want 1", len(out))
	}
	if out[0].Area != 50 {
		t.Errorf("kept area: got %v, want 50 (10 is not strictly greater)", out[0].Area)
	}
}
