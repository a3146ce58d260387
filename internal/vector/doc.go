// Package vector provides polygon features and the planar geometry used by
// the vectorization and cleanup stages of the pipeline.
//
// Coordinates are planar meters in the same frame as the run's rasters:
// world X = cell X * cell size, world Y = cell Y * cell size, with Y growing
// downward. Areas are therefore square meters straight from the shoelace
// formula, matching the raster's native planar unit.
//
// A Feature holds one polygon as a set of rings. The first ring is the outer
// boundary; any further rings are holes. The Area attribute is maintained by
// the pipeline: it is computed when the feature is created and recomputed
// after every geometric transform.
//
// Feature collections are read from and written to GeoJSON. Forest-cover mask
// polygons arrive the same way.
package vector
