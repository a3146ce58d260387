package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiubovD/thrird-chapter-workflow/internal/geo"
	"github.com/LiubovD/thrird-chapter-workflow/internal/raster"
	"github.com/LiubovD/thrird-chapter-workflow/internal/vector"
)

// recorder captures the message stream of a run for assertions.
type recorder struct {
	messages []string
	warnings []string
	errs     []string
}

func (r *recorder) Message(format string, args ...any) {
	r.messages = append(r.messages, fmt.Sprintf(format, args...))
}

func (r *recorder) Warning(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *recorder) Error(format string, args ...any) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

func (r *recorder) warningsContaining(substr string) int {
	n := 0
	for _, w := range r.warnings {
		if strings.Contains(w, substr) {
			n++
		}
	}
	return n
}

// writeAerialPNG stores a synthetic aerial image with enough spectral
// variation to support the default class count.
func writeAerialPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 12),
				G: uint8(y * 12),
				B: uint8(x*6 + y*6),
				A: 255,
			})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// testParams builds a runnable parameter set rooted in a temp directory.
func testParams(t *testing.T) (Params, string) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "aerial.png")
	writeAerialPNG(t, input)

	p := Defaults()
	p.InputRaster = input
	p.OutputFeatures = filepath.Join(dir, "dead_trees.geojson")
	p.Parallel = false
	return p, dir
}

// scratchDirs lists the scratch workspaces under dir.
func scratchDirs(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var found []string
	for _, e := range entries {
		if e.IsDir() && strings.Contains(e.Name(), "_scratch_") {
			found = append(found, e.Name())
		}
	}
	return found
}

func TestRunEndToEnd(t *testing.T) {
	p, dir := testParams(t)
	rec := &recorder{}

	err := NewRunner(geo.NewLocal(), rec).Run(p)
	require.NoError(t, err)

	features, err := vector.ReadCollection(p.OutputFeatures)
	require.NoError(t, err, "output must be registered even when no trees survive the filters")
	for _, f := range features {
		assert.Greater(t, f.Area, p.MinBufferArea)
	}

	steps := 0
	for _, m := range rec.messages {
		if strings.HasPrefix(m, "Step ") {
			steps++
		}
	}
	assert.Equal(t, 10, steps, "every stage should announce itself")
	assert.Equal(t, 1, rec.warningsContaining("forest mask"), "missing mask should be tipped once")
	assert.Empty(t, rec.errs)
	assert.Empty(t, scratchDirs(t, dir), "workspace must be cleaned up on success")
}

func TestRunKeepsWorkspace(t *testing.T) {
	p, dir := testParams(t)
	p.KeepWorkspace = true

	require.NoError(t, NewRunner(geo.NewLocal(), &recorder{}).Run(p))

	dirs := scratchDirs(t, dir)
	require.Len(t, dirs, 1, "workspace must be retained")
	scratch := filepath.Join(dir, dirs[0])
	for _, artifact := range []string{
		"classified.tif", "classified.png", "dead_trees.tif", "blue_mask.tif",
		"extracted_raster_one_band.tif", "filtered.tif", "expanded.tif", "shrinked.tif",
		"dead_trees_vector.geojson", "dead_trees_selected.geojson",
		"buffered_trees.geojson", "dissolved_buffer.geojson", "trees_buffer_processed.geojson",
	} {
		_, err := os.Stat(filepath.Join(scratch, artifact))
		assert.NoError(t, err, "artifact %s should exist in the retained workspace", artifact)
	}
}

func TestRunWithForestMask(t *testing.T) {
	p, _ := testParams(t)
	mask := []vector.Feature{{Rings: []vector.Ring{{
		{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 20}, {X: 0, Y: 20},
	}}, Area: 400}}
	p.ForestMask = filepath.Join(filepath.Dir(p.OutputFeatures), "mask.geojson")
	require.NoError(t, vector.WriteCollection(mask, p.ForestMask))
	p.KeepWorkspace = true
	rec := &recorder{}

	require.NoError(t, NewRunner(geo.NewLocal(), rec).Run(p))
	assert.Zero(t, rec.warningsContaining("forest mask"), "a provided mask needs no tip")

	dirs := scratchDirs(t, filepath.Dir(p.OutputFeatures))
	require.Len(t, dirs, 1)
	_, err := os.Stat(filepath.Join(filepath.Dir(p.OutputFeatures), dirs[0], "aerial_image.tif"))
	assert.NoError(t, err, "masking should leave its artifact")
}

func TestRunBandIndexOutOfRangeWarnsOnce(t *testing.T) {
	p, _ := testParams(t)
	p.BandIndex = 7
	rec := &recorder{}

	require.NoError(t, NewRunner(geo.NewLocal(), rec).Run(p))
	assert.Equal(t, 1, rec.warningsContaining("band index"), "exactly one substitution warning")
}

func TestRunClassCountMismatchWarns(t *testing.T) {
	p, _ := testParams(t)
	p.ClassCount = 12
	rec := &recorder{}

	require.NoError(t, NewRunner(geo.NewLocal(), rec).Run(p))
	assert.Equal(t, 1, rec.warningsContaining("class selection"), "non-default class count should warn")
}

// noCompositeEngine simulates a backend without the specialized band
// extraction capability.
type noCompositeEngine struct {
	geo.Engine
}

func (e *noCompositeEngine) CompositeBand(ctx *geo.Context, d *raster.Dataset, band int) (*raster.Dataset, error) {
	return nil, geo.ErrExtensionUnavailable
}

func TestRunFallsBackToBandCopy(t *testing.T) {
	p, _ := testParams(t)
	rec := &recorder{}

	err := NewRunner(&noCompositeEngine{Engine: geo.NewLocal()}, rec).Run(p)
	require.NoError(t, err, "the fallback tier must carry the run to completion")
	assert.Equal(t, 1, rec.warningsContaining("generic band copy"))
	_, statErr := os.Stat(p.OutputFeatures)
	assert.NoError(t, statErr)
}

// failingClassifier fails the classification stage outright.
type failingClassifier struct {
	geo.Engine
}

func (e *failingClassifier) IsoCluster(ctx *geo.Context, d *raster.Dataset, classes int) (*geo.Signature, error) {
	return nil, errors.New("signature derivation exploded")
}

func TestRunStageFailureReleasesWorkspace(t *testing.T) {
	p, dir := testParams(t)
	rec := &recorder{}

	err := NewRunner(&failingClassifier{Engine: geo.NewLocal()}, rec).Run(p)
	require.Error(t, err)

	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "classify", serr.Stage)
	assert.NotEmpty(t, rec.errs, "the failure should be reported to the message stream")
	assert.Empty(t, scratchDirs(t, dir), "workspace must be cleaned up on failure")
	_, statErr := os.Stat(p.OutputFeatures)
	assert.True(t, os.IsNotExist(statErr), "no output may be registered on failure")
}

func TestRunStageFailureRetainsWorkspaceWhenAsked(t *testing.T) {
	p, dir := testParams(t)
	p.KeepWorkspace = true

	err := NewRunner(&failingClassifier{Engine: geo.NewLocal()}, &recorder{}).Run(p)
	require.Error(t, err)
	assert.Len(t, scratchDirs(t, dir), 1, "workspace must survive for debugging")
}

func TestRunRejectsMalformedInputRef(t *testing.T) {
	p, dir := testParams(t)
	p.InputRaster = "#canopy" // layer form without a registry path

	err := NewRunner(geo.NewLocal(), &recorder{}).Run(p)
	var verr *InputValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, raster.ErrBadRefForm)
	assert.Empty(t, scratchDirs(t, dir), "validation failures must not leak a workspace")
}

func TestRunMissingMaskFileIsFatal(t *testing.T) {
	p, dir := testParams(t)
	p.ForestMask = filepath.Join(dir, "missing_mask.geojson")

	err := NewRunner(geo.NewLocal(), &recorder{}).Run(p)
	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "apply forest mask", serr.Stage)
}

func TestRunValidatesParams(t *testing.T) {
	p := Defaults()
	err := NewRunner(geo.NewLocal(), &recorder{}).Run(p)
	assert.Error(t, err, "empty parameters must be rejected before any work")
}
