package pipeline

import "fmt"

// InputValidationError reports a raster reference that is neither dataset
// nor project-layer form, or an input that cannot be read at all. It aborts
// the run before any stage executes.
type InputValidationError struct {
	Ref string
	Err error
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %v", e.Ref, e.Err)
}

func (e *InputValidationError) Unwrap() error { return e.Err }

// ResourceCreationError reports that the scratch workspace could not be
// created. It aborts the run immediately.
type ResourceCreationError struct {
	Base string
	Err  error
}

func (e *ResourceCreationError) Error() string {
	return fmt.Sprintf("cannot create scratch workspace near %q: %v", e.Base, e.Err)
}

func (e *ResourceCreationError) Unwrap() error { return e.Err }

// StageError reports a fatal backend failure in a named pipeline stage. It
// aborts the remaining stages and propagates to the caller with the
// backend's message.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
