// Package raster provides the in-memory raster dataset model for the
// dead-trees detection pipeline.
//
// A Dataset is a fixed-size grid of one or more band planes with a shared
// per-cell validity mask (NoData). Datasets are loaded from PNG, JPEG or TIFF
// imagery, flow between pipeline stages in memory, and are persisted into the
// scratch workspace as TIFF artifacts after each stage.
//
// # Coordinate System
//
// Cell coordinates are 0-based with (0,0) at the top-left corner, X increasing
// rightward and Y increasing downward. World coordinates are planar meters:
// a cell (x, y) covers the square [x*CellSize, (x+1)*CellSize) horizontally
// and likewise vertically. The cell size is inherited from the run input and
// is constant for all datasets of one run.
//
// # Band Numbering
//
// Bands are addressed 1-based (Band 1 is the first plane), matching the
// numbering used by the run parameters. Internal plane storage is 0-based.
//
// # NoData
//
// Validity is shared across bands: a cell is either present in all bands or
// absent in all of them. When a dataset is loaded from an image with an alpha
// channel, fully transparent pixels become NoData; when stored, NoData cells
// are written with zero alpha so they survive a round trip.
//
// # References
//
// A Ref names a raster in one of two storage forms: a canonical dataset (a
// file path) or a project layer (a YAML layer registry plus a layer name,
// written "registry.yaml#layer"). Normalize materializes project layers into
// the scratch workspace so that every stage downstream only ever sees the
// canonical form.
package raster
