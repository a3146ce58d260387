package geo

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/LiubovD/thrird-chapter-workflow/internal/raster"
	"github.com/LiubovD/thrird-chapter-workflow/internal/vector"
)

// ErrExtensionUnavailable reports that the specialized band-extraction
// capability cannot serve the request. It is recovered locally by falling
// back to the generic copy tier and only escalates if that tier also fails.
var ErrExtensionUnavailable = errors.New("specialized band extraction unavailable")

// Context carries the per-run engine settings. It replaces process-global
// engine state: every call receives the context of the run it belongs to.
type Context struct {
	// Workspace is the scratch directory artifacts are written into.
	Workspace string

	// CellSize is the run's cell edge length in meters, inherited from the
	// original input raster.
	CellSize float64

	// Overwrite allows replacing existing artifacts of the same name.
	Overwrite bool

	// Workers bounds internal parallelism. 1 disables fan-out entirely.
	Workers int
}

// Signature is the statistical summary of the pixel clusters derived by
// IsoCluster. It drives the maximum-likelihood classification phase.
type Signature struct {
	// Classes is the number of clusters, exactly as configured.
	Classes int

	// Means holds one feature-space mean vector per cluster.
	Means [][]float64

	// Covariances holds one feature-space covariance matrix per cluster,
	// regularized so every class defines a proper Gaussian.
	Covariances []*mat.SymDense
}

// RemapEntry maps one raster value onto a new value or onto NoData.
type RemapEntry struct {
	From     float64
	To       float64
	ToNoData bool
}

// RemapTable is a value lookup table for Reclassify. Values without an entry
// become NoData.
type RemapTable []RemapEntry

// DeadClassRemap returns the remap table of the dead-class selection step:
// class 10 maps to 1, classes 1 through 9 map to NoData.
//
// The table is fixed at ten entries independent of the class count the
// classification actually used; callers are expected to warn when the two
// disagree. Parametrizing the table would silently change behavior for
// non-default class counts, so the historical shape is kept.
func DeadClassRemap() RemapTable {
	t := make(RemapTable, 0, 10)
	for class := 1; class <= 9; class++ {
		t = append(t, RemapEntry{From: float64(class), ToNoData: true})
	}
	t = append(t, RemapEntry{From: 10, To: 1})
	return t
}

// Engine is the raster/vector capability surface the pipeline is built on.
//
// Raster operands and results are in-memory datasets; implementations must
// not mutate their inputs. Operations that take feature slices likewise
// return new slices.
type Engine interface {
	// IsoCluster derives a cluster signature with exactly classes clusters
	// from the pixel statistics of d.
	IsoCluster(ctx *Context, d *raster.Dataset, classes int) (*Signature, error)

	// MLClassify assigns every valid cell the most probable class under sig,
	// yielding labels in [1, sig.Classes].
	MLClassify(ctx *Context, d *raster.Dataset, sig *Signature) (*raster.Dataset, error)

	// Reclassify maps cell values through a remap table.
	Reclassify(ctx *Context, d *raster.Dataset, table RemapTable) (*raster.Dataset, error)

	// ExtractByMask keeps the cells of d that are valid in mask.
	ExtractByMask(ctx *Context, d, mask *raster.Dataset) (*raster.Dataset, error)

	// ClipToPolygons keeps the cells of d whose centers fall inside any of
	// the polygons.
	ClipToPolygons(ctx *Context, d *raster.Dataset, polygons []vector.Feature) (*raster.Dataset, error)

	// CompositeBand extracts one band via the specialized channel-addressed
	// capability. Fails with ErrExtensionUnavailable when that capability
	// cannot serve the dataset or band.
	CompositeBand(ctx *Context, d *raster.Dataset, band int) (*raster.Dataset, error)

	// CopyBand extracts one band via a generic band-addressed copy. The
	// result is equivalent to CompositeBand for any band both can serve.
	CopyBand(ctx *Context, d *raster.Dataset, band int) (*raster.Dataset, error)

	// Threshold builds a {1, NoData} mask of the cells with value >= cut.
	Threshold(ctx *Context, d *raster.Dataset, cut float64) (*raster.Dataset, error)

	// MajorityFilter replaces each cell with the majority value of its
	// neighborhood, removing speckle from a binary mask.
	MajorityFilter(ctx *Context, d *raster.Dataset) (*raster.Dataset, error)

	// Expand grows mask regions by the given number of cells.
	Expand(ctx *Context, d *raster.Dataset, cells int) (*raster.Dataset, error)

	// Shrink contracts mask regions by the given number of cells.
	Shrink(ctx *Context, d *raster.Dataset, cells int) (*raster.Dataset, error)

	// RegionGroup labels the 8-connected regions of valid cells with
	// identifiers 1..n.
	RegionGroup(ctx *Context, d *raster.Dataset) (*raster.Dataset, error)

	// RasterToPolygon converts each labeled region into a polygon feature
	// without geometric simplification and computes its planar area.
	RasterToPolygon(ctx *Context, d *raster.Dataset) ([]vector.Feature, error)

	// Buffer grows each feature outward by distance meters, areas recomputed.
	Buffer(ctx *Context, features []vector.Feature, distance float64) ([]vector.Feature, error)

	// Dissolve merges overlapping features into single-part polygons, areas
	// recomputed.
	Dissolve(ctx *Context, features []vector.Feature) ([]vector.Feature, error)

	// SelectFeatures keeps the features whose area is strictly greater than
	// minArea.
	SelectFeatures(ctx *Context, features []vector.Feature, minArea float64) []vector.Feature

	// CopyFeatures writes the features to their final output location.
	CopyFeatures(ctx *Context, features []vector.Feature, path string) error
}
