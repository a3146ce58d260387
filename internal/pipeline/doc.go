// Package pipeline orchestrates the dead-trees detection run.
//
// A run is strictly linear: normalize the input raster, optionally clip it to
// a forest mask, classify, isolate the dead class, extract the blue band,
// threshold it, intersect and morphologically clean the masks, vectorize, and
// filter/buffer/dissolve the polygons into the final output. No stage starts
// before the previous stage's artifact is written, and no two stages run
// concurrently within one run.
//
// The orchestrator talks to the raster/vector backend exclusively through
// geo.Engine, and brackets every run with a scratch workspace that is
// released exactly once on all exit paths: normal completion, a failed stage,
// or a panic.
//
// # Failure Taxonomy
//
// Two conditions recover locally and never abort a run: an out-of-range band
// index (substituted with the default, one warning) and a failing specialized
// band extraction (falls back to the generic copy, one warning). Everything
// else is fatal: InputValidationError and ResourceCreationError abort before
// any stage runs, StageError carries a failed stage's name and cause to the
// caller. No stage is retried.
package pipeline
