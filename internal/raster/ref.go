package raster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RefKind enumerates the storage forms a raster reference can take.
type RefKind int

const (
	// RefDataset is the canonical form: a path to a raster file.
	RefDataset RefKind = iota
	// RefProjectLayer names a layer inside a project layer registry.
	RefProjectLayer
	// RefUnknown marks a reference that is neither of the above.
	RefUnknown
)

func (k RefKind) String() string {
	switch k {
	case RefDataset:
		return "dataset"
	case RefProjectLayer:
		return "project-layer"
	default:
		return "unknown"
	}
}

// Ref is an opaque reference to a raster in dataset or project-layer form.
type Ref struct {
	Kind  RefKind
	Path  string // dataset path, or registry path for project layers
	Layer string // layer name, set only for project layers
}

func (r Ref) String() string {
	if r.Kind == RefProjectLayer {
		return r.Path + "#" + r.Layer
	}
	return r.Path
}

// ParseRef interprets a reference string. "registry.yaml#layer" is a project
// layer; any other non-empty string is a dataset path. Empty strings and
// malformed layer references parse as RefUnknown.
func ParseRef(s string) Ref {
	if s == "" {
		return Ref{Kind: RefUnknown}
	}
	if idx := strings.LastIndex(s, "#"); idx >= 0 {
		path, layer := s[:idx], s[idx+1:]
		if path == "" || layer == "" {
			return Ref{Kind: RefUnknown, Path: s}
		}
		return Ref{Kind: RefProjectLayer, Path: path, Layer: layer}
	}
	return Ref{Kind: RefDataset, Path: s}
}

// ErrBadRefForm reports a reference that is neither dataset nor project-layer
// form. Callers map it onto their own validation error type.
var ErrBadRefForm = errors.New("raster reference is neither dataset nor project-layer form")

// projectFile is the on-disk shape of a layer registry.
type projectFile struct {
	Layers map[string]string `yaml:"layers"`
}

// resolveLayer looks a layer name up in a YAML registry and returns the
// source dataset path, relative entries resolved against the registry file.
func resolveLayer(registry, layer string) (string, error) {
	raw, err := os.ReadFile(registry)
	if err != nil {
		return "", fmt.Errorf("failed to read layer registry %s: %w", registry, err)
	}
	var pf projectFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return "", fmt.Errorf("failed to parse layer registry %s: %w", registry, err)
	}
	src, ok := pf.Layers[layer]
	if !ok {
		return "", fmt.Errorf("layer %q not found in registry %s", layer, registry)
	}
	if !filepath.IsAbs(src) {
		src = filepath.Join(filepath.Dir(registry), src)
	}
	return src, nil
}

// Normalize returns a canonical dataset reference for ref together with the
// loaded dataset.
//
// Dataset-form references pass through unchanged. Project-layer references
// are materialized: the layer's source raster is loaded and written into
// scratchDir as a TIFF, and the returned reference points at that copy.
// Any other form fails with ErrBadRefForm.
func Normalize(ref Ref, scratchDir string, cellSize float64) (Ref, *Dataset, error) {
	switch ref.Kind {
	case RefDataset:
		d, err := Load(ref.Path, cellSize)
		if err != nil {
			return Ref{}, nil, err
		}
		return ref, d, nil

	case RefProjectLayer:
		src, err := resolveLayer(ref.Path, ref.Layer)
		if err != nil {
			return Ref{}, nil, err
		}
		d, err := Load(src, cellSize)
		if err != nil {
			return Ref{}, nil, err
		}
		dst := filepath.Join(scratchDir, ref.Layer+".tif")
		if err := d.StoreTIFF(dst); err != nil {
			return Ref{}, nil, err
		}
		return Ref{Kind: RefDataset, Path: dst}, d, nil

	default:
		return Ref{}, nil, fmt.Errorf("%q: %w", ref.Path, ErrBadRefForm)
	}
}
