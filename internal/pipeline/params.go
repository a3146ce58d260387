package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default run parameters, matching the original toolbox defaults.
const (
	DefaultClassCount    = 10
	DefaultMinArea       = 2.0 // m²
	DefaultBufferDist    = "1 Meters"
	DefaultMinBufferArea = 30.0 // m²
	DefaultBandIndex     = 3
	DefaultCellSize      = 1.0 // m
)

// assumedDeadClassCount is the class count the dead-class remap table was
// written for; see geo.DeadClassRemap.
const assumedDeadClassCount = 10

// Params is the immutable configuration of one run. It is constructed once
// from caller input and never mutated mid-run.
type Params struct {
	// InputRaster references the aerial image, either a dataset path or a
	// project layer written "registry.yaml#layer".
	InputRaster string `yaml:"input_raster"`

	// ForestMask optionally points at a GeoJSON polygon collection the
	// raster is clipped to before classification.
	ForestMask string `yaml:"forest_mask"`

	// OutputWorkspace optionally overrides where the scratch workspace is
	// created; empty means adjacent to OutputFeatures.
	OutputWorkspace string `yaml:"output_workspace"`

	// OutputFeatures is the final feature-collection path.
	OutputFeatures string `yaml:"output_features"`

	// ClassCount is the number of unsupervised classes.
	ClassCount int `yaml:"class_count"`

	// MinArea is the pre-buffer area threshold in m²; survivors are
	// strictly greater.
	MinArea float64 `yaml:"min_area"`

	// BufferDistance is a value with unit, e.g. "1 Meters" or "0.5 m".
	BufferDistance string `yaml:"buffer_distance"`

	// MinBufferArea is the post-dissolve area threshold in m²; survivors
	// are strictly greater.
	MinBufferArea float64 `yaml:"min_buffer_area"`

	// BandIndex selects the spectral band for thresholding. Zero means
	// absent: the default band is used without a warning. Out-of-range
	// values are substituted with the default and warned about at runtime.
	BandIndex int `yaml:"band_index"`

	// CellSize is the raster cell edge length in meters, inherited by
	// every dataset of the run.
	CellSize float64 `yaml:"cell_size"`

	// Parallel enables backend worker fan-out inside the engine.
	Parallel bool `yaml:"parallel"`

	// KeepWorkspace retains the scratch directory and all intermediate
	// artifacts after the run.
	KeepWorkspace bool `yaml:"keep_workspace"`
}

// Defaults returns a Params with every optional field at its default.
func Defaults() Params {
	return Params{
		ClassCount:     DefaultClassCount,
		MinArea:        DefaultMinArea,
		BufferDistance: DefaultBufferDist,
		MinBufferArea:  DefaultMinBufferArea,
		CellSize:       DefaultCellSize,
		Parallel:       true,
	}
}

// LoadParams reads a YAML parameter file over the defaults.
func LoadParams(path string) (Params, error) {
	p := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read parameter file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("failed to parse parameter file %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the parameters that must hold before any stage runs.
func (p *Params) Validate() error {
	if p.InputRaster == "" {
		return fmt.Errorf("input raster is required")
	}
	if p.OutputFeatures == "" {
		return fmt.Errorf("output features path is required")
	}
	if p.ClassCount < 2 {
		return fmt.Errorf("class count %d: need at least 2", p.ClassCount)
	}
	if p.CellSize <= 0 {
		return fmt.Errorf("cell size %.3f must be positive", p.CellSize)
	}
	if _, err := p.BufferMeters(); err != nil {
		return err
	}
	return nil
}

// BufferMeters parses the buffer distance into meters.
func (p *Params) BufferMeters() (float64, error) {
	fields := strings.Fields(strings.TrimSpace(p.BufferDistance))
	if len(fields) == 0 || len(fields) > 2 {
		return 0, fmt.Errorf("buffer distance %q: want \"<value> <unit>\"", p.BufferDistance)
	}
	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("buffer distance %q: %w", p.BufferDistance, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("buffer distance %q must be positive", p.BufferDistance)
	}

	unit := "meters"
	if len(fields) == 2 {
		unit = strings.ToLower(fields[1])
	}
	switch unit {
	case "m", "meter", "meters":
		return value, nil
	case "km", "kilometer", "kilometers":
		return value * 1000, nil
	case "ft", "foot", "feet":
		return value * 0.3048, nil
	default:
		return 0, fmt.Errorf("buffer distance %q: unsupported unit %q", p.BufferDistance, unit)
	}
}

// workspaceBase returns the path the scratch workspace is derived from: the
// output features path, optionally relocated into OutputWorkspace.
func (p *Params) workspaceBase() string {
	if p.OutputWorkspace != "" {
		return filepath.Join(p.OutputWorkspace, filepath.Base(p.OutputFeatures))
	}
	return p.OutputFeatures
}
