// Package geo defines the raster/vector capability interface the pipeline
// orchestrator depends on, and provides Local, an in-memory implementation.
//
// The orchestrator only ever talks to the Engine interface: unsupervised
// clustering, maximum-likelihood classification, reclassification,
// morphological filters, polygon conversion, buffering, dissolving and
// attribute selection. Local implements these with pure-Go image processing
// (bild morphology and thresholding, gonum cluster statistics) so the
// pipeline runs without an external GIS installation; a backend with true
// geodesic geometry can be swapped in behind the same interface.
//
// # Engine Context
//
// Per-run engine settings (active workspace, cell size, overwrite behavior,
// worker count) travel in an explicit Context value passed to every call.
// There is no process-global engine state: two runs with different contexts
// never interfere.
//
// # Band Extraction Tiers
//
// Local exposes two band-extraction capabilities with interchangeable
// results. CompositeBand is the specialized tier: it addresses a channel of
// the dataset's backing image directly and fails with ErrExtensionUnavailable
// when no backing image exists or the band is beyond the image's channels.
// CopyBand is the generic tier: a plain band-addressed plane copy that works
// on any dataset. Callers fall back from the first to the second.
//
// # Geometry Operations
//
// Local implements Buffer and Dissolve by rasterizing features at the run's
// cell size, applying the distance operation on the grid, and re-vectorizing.
// The contracts the pipeline relies on hold regardless of method: buffers
// grow outward by the requested distance, dissolved polygons are single-part
// with overlaps merged, and areas are recomputed from the resulting planar
// geometry.
package geo
