// Package system probes the host before the engine fans out image work.
package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// workerMemoryBudget is the memory assumed per classification worker. Large
// aerial tiles hold several band planes in memory at once.
const workerMemoryBudget = 512 << 20

// Workers returns the engine worker count for a run.
//
// With parallelism disabled the engine runs strictly single-worker. Otherwise
// the count follows the logical CPU count, capped by available memory so a
// busy host does not start swapping mid-classification. Probing failures fall
// back to the Go runtime's CPU count.
func Workers(parallel bool) int {
	if !parallel {
		return 1
	}

	workers := runtime.NumCPU()
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		workers = n
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		if byMem := int(vm.Available / workerMemoryBudget); byMem < workers {
			workers = byMem
		}
	}

	if workers < 1 {
		workers = 1
	}
	return workers
}
