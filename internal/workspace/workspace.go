// Package workspace manages the scratch directory one pipeline run writes
// its intermediate artifacts into.
//
// A workspace is a uniquely named sibling of the run's output location:
// the name combines the output stem, a timestamp and a short random id, so
// concurrent runs against the same output directory never share a scratch
// area and need no locking. The pipeline acquires the workspace before the
// first stage and releases it exactly once on every exit path; release either
// retains the directory with all artifacts or deletes it best-effort.
package workspace

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Handle identifies one acquired scratch workspace.
type Handle struct {
	// Dir is the absolute or caller-relative path of the scratch directory.
	Dir string

	released bool
}

// Acquire creates the scratch workspace for a run as a sibling of basePath.
//
// The directory name is derived from basePath's stem plus a timestamp and a
// short run id. Acquire fails when the directory cannot be created, for
// example when basePath's parent does not exist or is not writable.
func Acquire(basePath string) (*Handle, error) {
	parent := filepath.Dir(basePath)
	stem := strings.TrimSuffix(filepath.Base(basePath), filepath.Ext(basePath))
	runID := uuid.NewString()[:8]
	name := fmt.Sprintf("%s_scratch_%s_%s", stem, time.Now().Format("20060102_150405"), runID)

	dir := filepath.Join(parent, name)
	if err := os.Mkdir(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch workspace %s: %w", dir, err)
	}
	return &Handle{Dir: dir}, nil
}

// Path returns the location of a named artifact inside the workspace.
func (h *Handle) Path(name string) string {
	return filepath.Join(h.Dir, name)
}

// Release disposes of the workspace. With retain true the directory and all
// artifacts are left in place; otherwise the tree is deleted best-effort and
// a failed deletion is logged but never surfaced, so cleanup can never mask
// the error that ended the run. Calling Release again is a no-op.
func Release(h *Handle, retain bool) {
	if h == nil || h.released {
		return
	}
	h.released = true

	if retain {
		log.Printf("scratch workspace retained: %s", h.Dir)
		return
	}
	if err := os.RemoveAll(h.Dir); err != nil {
		log.Printf("failed to remove scratch workspace %s: %v", h.Dir, err)
	}
}
