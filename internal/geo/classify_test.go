package geo

import (
	"testing"

	"github.com/LiubovD/thrird-chapter-workflow/internal/raster"
)

// twoToneDataset builds a 3-band raster with the left half one color and the
// right half another.
func twoToneDataset(w, h int) *raster.Dataset {
	d := raster.New(w, h, 3, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				d.Set(1, x, y, 200) // reddish
				d.Set(2, x, y, 40)
				d.Set(3, x, y, 40)
			} else {
				d.Set(1, x, y, 40) // bluish
				d.Set(2, x, y, 40)
				d.Set(3, x, y, 200)
			}
		}
	}
	return d
}

func TestIsoClusterSeparatesTwoTones(t *testing.T) {
	d := twoToneDataset(8, 4)

	sig, err := NewLocal().IsoCluster(testContext(), d, 2)
	if err != nil {
		t.Fatalf("IsoCluster failed: %v", err)
	}
	if sig.Classes != 2 {
		t.Fatalf("classes: got %d, want 2", sig.Classes)
	}
	if len(sig.Means) != 2 || len(sig.Covariances) != 2 {
		t.Fatalf("signature shape: %d means, %d covariances", len(sig.Means), len(sig.Covariances))
	}
	if sig.Covariances[0] == nil || sig.Covariances[1] == nil {
		t.Fatal("covariances must be populated")
	}
}

func TestMLClassifyLabelsAreConsistent(t *testing.T) {
	d := twoToneDataset(8, 4)
	e := NewLocal()
	ctx := testContext()

	sig, err := e.IsoCluster(ctx, d, 2)
	if err != nil {
		t.Fatalf("IsoCluster failed: %v", err)
	}
	out, err := e.MLClassify(ctx, d, sig)
	if err != nil {
		t.Fatalf("MLClassify failed: %v", err)
	}

	left, _ := out.Value(1, 0, 0)
	right, _ := out.Value(1, 7, 0)
	if left == right {
		t.Fatal("the two tones should land in different classes")
	}
	for _, label := range []float64{left, right} {
		if label < 1 || label > 2 {
			t.Errorf("label %v outside [1, 2]", label)
		}
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			want := left
			if x >= 4 {
				want = right
			}
			if v, ok := out.Value(1, x, y); !ok || v != want {
				t.Errorf("cell (%d,%d): got %v (%v), want %v", x, y, v, ok, want)
			}
		}
	}
}

func TestMLClassifySkipsNoData(t *testing.T) {
	d := twoToneDataset(8, 4)
	d.SetNoData(3, 2)
	e := NewLocal()
	ctx := testContext()

	sig, err := e.IsoCluster(ctx, d, 2)
	if err != nil {
		t.Fatalf("IsoCluster failed: %v", err)
	}
	out, err := e.MLClassify(ctx, d, sig)
	if err != nil {
		t.Fatalf("MLClassify failed: %v", err)
	}
	if out.IsValid(3, 2) {
		t.Error("NoData input cell must stay NoData in the classification")
	}
}

func TestIsoClusterRejectsDegenerateInput(t *testing.T) {
	d := raster.New(4, 4, 1, 1)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			d.Set(1, x, y, 42) // one distinct value
		}
	}
	if _, err := NewLocal().IsoCluster(testContext(), d, 2); err == nil {
		t.Error("uniform raster: want error, got nil")
	}
}

func TestIsoClusterRejectsTooFewClasses(t *testing.T) {
	d := twoToneDataset(4, 2)
	if _, err := NewLocal().IsoCluster(testContext(), d, 1); err == nil {
		t.Error("1 class: want error, got nil")
	}
}
