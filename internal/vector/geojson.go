package vector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// areaProperty is the attribute name carrying the feature area, kept
// compatible with the shapefile field the original workflow produced.
const areaProperty = "Shape_Area"

type geoJSONCollection struct {
	Type     string        `json:"type"`
	Features []geoJSONFeat `json:"features"`
}

type geoJSONFeat struct {
	Type       string             `json:"type"`
	Properties map[string]float64 `json:"properties"`
	Geometry   geoJSONGeom        `json:"geometry"`
}

type geoJSONGeom struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// WriteCollection writes features as a GeoJSON FeatureCollection.
//
// The file is written next to its final name and renamed into place, so a
// failed run never leaves a partial file registered as the output.
func WriteCollection(features []Feature, path string) error {
	coll := geoJSONCollection{Type: "FeatureCollection", Features: make([]geoJSONFeat, 0, len(features))}
	for _, f := range features {
		coords := make([][][2]float64, 0, len(f.Rings))
		for _, r := range f.Rings {
			ring := make([][2]float64, 0, len(r)+1)
			for _, p := range r {
				ring = append(ring, [2]float64{p.X, p.Y})
			}
			if len(r) > 0 {
				ring = append(ring, [2]float64{r[0].X, r[0].Y}) // close per GeoJSON
			}
			coords = append(coords, ring)
		}
		coll.Features = append(coll.Features, geoJSONFeat{
			Type:       "Feature",
			Properties: map[string]float64{areaProperty: f.Area},
			Geometry:   geoJSONGeom{Type: "Polygon", Coordinates: coords},
		})
	}

	raw, err := json.MarshalIndent(&coll, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode feature collection: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write feature collection: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize feature collection %s: %w", path, err)
	}
	return nil
}

// ReadCollection reads a GeoJSON FeatureCollection of polygons. Areas are
// taken from the Shape_Area property when present, otherwise recomputed.
func ReadCollection(path string) ([]Feature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature collection %s: %w", path, err)
	}
	var coll geoJSONCollection
	if err := json.Unmarshal(raw, &coll); err != nil {
		return nil, fmt.Errorf("failed to parse feature collection %s: %w", path, err)
	}

	features := make([]Feature, 0, len(coll.Features))
	for _, gf := range coll.Features {
		if gf.Geometry.Type != "Polygon" {
			continue
		}
		f := Feature{}
		for _, coords := range gf.Geometry.Coordinates {
			ring := make(Ring, 0, len(coords))
			for i, c := range coords {
				// Drop the explicit closing vertex.
				if i == len(coords)-1 && len(coords) > 1 && c == coords[0] {
					break
				}
				ring = append(ring, Point{X: c[0], Y: c[1]})
			}
			f.Rings = append(f.Rings, ring)
		}
		if a, ok := gf.Properties[areaProperty]; ok {
			f.Area = a
		} else {
			f.ComputeArea()
		}
		features = append(features, f)
	}
	return features, nil
}

// ReadMask reads a forest-cover mask as the union of all polygons in a
// GeoJSON FeatureCollection.
func ReadMask(path string) ([]Feature, error) {
	features, err := ReadCollection(path)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("mask %s contains no polygon features", path)
	}
	return features, nil
}
