package pipeline

import (
	"errors"
	"fmt"
	"image/png"
	"os"

	"github.com/LiubovD/thrird-chapter-workflow/internal/geo"
	"github.com/LiubovD/thrird-chapter-workflow/internal/raster"
	"github.com/LiubovD/thrird-chapter-workflow/internal/system"
	"github.com/LiubovD/thrird-chapter-workflow/internal/vector"
	"github.com/LiubovD/thrird-chapter-workflow/internal/workspace"
)

// totalSteps is the number of progress steps a run reports.
const totalSteps = 10

// thresholdCut is the lower bound of the spectral band range that marks a
// dead-tree candidate cell. Band values are 8-bit, so the upper bound of the
// range is the value domain itself.
const thresholdCut = 150

// Runner executes the dead-tree detection pipeline against an Engine.
type Runner struct {
	Engine geo.Engine
	Msg    Messenger
}

// NewRunner builds a Runner. A nil messenger falls back to the standard
// logger.
func NewRunner(engine geo.Engine, msg Messenger) *Runner {
	if msg == nil {
		msg = NewLogMessenger()
	}
	return &Runner{Engine: engine, Msg: msg}
}

// Run executes all pipeline stages for the given parameters and writes the
// final feature collection to p.OutputFeatures.
//
// The scratch workspace is released on every exit path, including panics,
// and retained instead when p.KeepWorkspace is set. Cleanup failures are
// logged but never replace the error that ended the run.
func (r *Runner) Run(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}

	ref := raster.ParseRef(p.InputRaster)
	if ref.Kind == raster.RefUnknown {
		return &InputValidationError{Ref: p.InputRaster, Err: raster.ErrBadRefForm}
	}

	base := p.workspaceBase()
	ws, err := workspace.Acquire(base)
	if err != nil {
		return &ResourceCreationError{Base: base, Err: err}
	}
	defer func() {
		if rec := recover(); rec != nil {
			workspace.Release(ws, p.KeepWorkspace)
			panic(rec)
		}
		workspace.Release(ws, p.KeepWorkspace)
	}()

	return r.runStages(p, ref, ws)
}

// runStages drives the stage sequence inside an acquired workspace.
func (r *Runner) runStages(p Params, ref raster.Ref, ws *workspace.Handle) error {
	ctx := &geo.Context{
		Workspace: ws.Dir,
		CellSize:  p.CellSize,
		Overwrite: true,
		Workers:   system.Workers(p.Parallel),
	}

	r.step(1, "normalizing input raster %s", ref)
	ref, input, err := raster.Normalize(ref, ws.Dir, p.CellSize)
	if err != nil {
		if errors.Is(err, raster.ErrBadRefForm) {
			return &InputValidationError{Ref: p.InputRaster, Err: err}
		}
		return r.fail("normalize input", err)
	}

	r.step(2, "applying forest mask")
	aerial := input
	if p.ForestMask == "" {
		r.Msg.Warning("no forest mask provided; tip: a mask of the forested area usually improves the classification")
	} else {
		polygons, err := vector.ReadMask(p.ForestMask)
		if err != nil {
			return r.fail("apply forest mask", err)
		}
		aerial, err = r.Engine.ClipToPolygons(ctx, input, polygons)
		if err != nil {
			return r.fail("apply forest mask", err)
		}
		if err := aerial.StoreTIFF(ws.Path("aerial_image.tif")); err != nil {
			return r.fail("apply forest mask", err)
		}
	}

	r.step(3, "classifying into %d spectral classes", p.ClassCount)
	sig, err := r.Engine.IsoCluster(ctx, aerial, p.ClassCount)
	if err != nil {
		return r.fail("classify", err)
	}
	classified, err := r.Engine.MLClassify(ctx, aerial, sig)
	if err != nil {
		return r.fail("classify", err)
	}
	if err := classified.StoreTIFF(ws.Path("classified.tif")); err != nil {
		return r.fail("classify", err)
	}
	if err := writePNG(ws.Path("classified.png"), classified, p.ClassCount); err != nil {
		return r.fail("classify", err)
	}

	r.step(4, "selecting the dead-tree class")
	if p.ClassCount != assumedDeadClassCount {
		r.Msg.Warning("class selection assumes %d classes but the classification used %d; the highest classes are dropped",
			assumedDeadClassCount, p.ClassCount)
	}
	deadTrees, err := r.Engine.Reclassify(ctx, classified, geo.DeadClassRemap())
	if err != nil {
		return r.fail("select dead-tree class", err)
	}
	if err := deadTrees.StoreTIFF(ws.Path("dead_trees.tif")); err != nil {
		return r.fail("select dead-tree class", err)
	}

	r.step(5, "extracting spectral band and thresholding")
	band, err := r.extractBand(ctx, aerial, p.BandIndex)
	if err != nil {
		return r.fail("extract band", err)
	}
	blueMask, err := r.Engine.Threshold(ctx, band, thresholdCut)
	if err != nil {
		return r.fail("threshold band", err)
	}
	if err := blueMask.StoreTIFF(ws.Path("blue_mask.tif")); err != nil {
		return r.fail("threshold band", err)
	}

	r.step(6, "intersecting the class and band masks")
	extracted, err := r.Engine.ExtractByMask(ctx, deadTrees, blueMask)
	if err != nil {
		return r.fail("intersect masks", err)
	}
	if err := extracted.StoreTIFF(ws.Path("extracted_raster_one_band.tif")); err != nil {
		return r.fail("intersect masks", err)
	}

	r.step(7, "cleaning the mask morphologically")
	filtered, err := r.Engine.MajorityFilter(ctx, extracted)
	if err != nil {
		return r.fail("majority filter", err)
	}
	if err := filtered.StoreTIFF(ws.Path("filtered.tif")); err != nil {
		return r.fail("majority filter", err)
	}
	expanded, err := r.Engine.Expand(ctx, filtered, 1)
	if err != nil {
		return r.fail("expand mask", err)
	}
	if err := expanded.StoreTIFF(ws.Path("expanded.tif")); err != nil {
		return r.fail("expand mask", err)
	}
	shrinked, err := r.Engine.Shrink(ctx, expanded, 1)
	if err != nil {
		return r.fail("shrink mask", err)
	}
	if err := shrinked.StoreTIFF(ws.Path("shrinked.tif")); err != nil {
		return r.fail("shrink mask", err)
	}

	r.step(8, "vectorizing the mask")
	regions, err := r.Engine.RegionGroup(ctx, shrinked)
	if err != nil {
		return r.fail("region group", err)
	}
	features, err := r.Engine.RasterToPolygon(ctx, regions)
	if err != nil {
		return r.fail("raster to polygon", err)
	}
	if err := vector.WriteCollection(features, ws.Path("dead_trees_vector.geojson")); err != nil {
		return r.fail("raster to polygon", err)
	}

	r.step(9, "filtering, buffering and dissolving features")
	selected := r.Engine.SelectFeatures(ctx, features, p.MinArea)
	if err := vector.WriteCollection(selected, ws.Path("dead_trees_selected.geojson")); err != nil {
		return r.fail("select features", err)
	}
	dist, err := p.BufferMeters()
	if err != nil {
		return &InputValidationError{Ref: p.BufferDistance, Err: err}
	}
	buffered, err := r.Engine.Buffer(ctx, selected, dist)
	if err != nil {
		return r.fail("buffer features", err)
	}
	if err := vector.WriteCollection(buffered, ws.Path("buffered_trees.geojson")); err != nil {
		return r.fail("buffer features", err)
	}
	dissolved, err := r.Engine.Dissolve(ctx, buffered)
	if err != nil {
		return r.fail("dissolve buffers", err)
	}
	if err := vector.WriteCollection(dissolved, ws.Path("dissolved_buffer.geojson")); err != nil {
		return r.fail("dissolve buffers", err)
	}

	r.step(10, "finalizing output")
	final := r.Engine.SelectFeatures(ctx, dissolved, p.MinBufferArea)
	if err := vector.WriteCollection(final, ws.Path("trees_buffer_processed.geojson")); err != nil {
		return r.fail("finalize output", err)
	}
	if err := r.Engine.CopyFeatures(ctx, final, p.OutputFeatures); err != nil {
		return r.fail("finalize output", err)
	}

	r.Msg.Message("detected %d dead-tree polygons, written to %s", len(final), p.OutputFeatures)
	return nil
}

// extractBand pulls one band out of the aerial image.
//
// It tries the specialized channel-addressed tier first and falls back to the
// generic copy tier when that tier cannot serve the dataset or band; the
// fallback is reported as a warning, not a failure. A band index outside the
// dataset is substituted with the default band after exactly one warning.
func (r *Runner) extractBand(ctx *geo.Context, d *raster.Dataset, band int) (*raster.Dataset, error) {
	if band == 0 {
		band = DefaultBandIndex
	} else if band < 1 || band > d.BandCount {
		r.Msg.Warning("band index %d is outside [1, %d]; using band %d", band, d.BandCount, DefaultBandIndex)
		band = DefaultBandIndex
	}

	out, err := r.Engine.CompositeBand(ctx, d, band)
	if err == nil {
		return out, nil
	}
	r.Msg.Warning("specialized band extraction unavailable (%v); using generic band copy", err)
	return r.Engine.CopyBand(ctx, d, band)
}

// step emits one numbered progress message.
func (r *Runner) step(k int, format string, args ...any) {
	r.Msg.Message("Step %d/%d: %s", k, totalSteps, fmt.Sprintf(format, args...))
}

// fail wraps a backend error into a stage failure and reports it.
func (r *Runner) fail(stage string, err error) error {
	serr := &StageError{Stage: stage, Err: err}
	r.Msg.Error("%v", serr)
	return serr
}

// writePNG renders the classification with a distinct color per class and
// stores it as a PNG inspection artifact.
func writePNG(path string, classified *raster.Dataset, classes int) error {
	img := geo.RenderClassified(classified, classes)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
