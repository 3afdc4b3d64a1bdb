package system

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryReport is a snapshot of host and process memory use.
type MemoryReport struct {
	Total       uint64
	Available   uint64
	UsedPercent float64
	HeapAlloc   uint64
	NumGC       uint32
}

// ReadMemory samples host memory through gopsutil and the Go heap through
// the runtime.
func ReadMemory() (MemoryReport, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	r := MemoryReport{HeapAlloc: ms.HeapAlloc, NumGC: ms.NumGC}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return r, fmt.Errorf("virtual memory: %w", err)
	}
	r.Total = vm.Total
	r.Available = vm.Available
	r.UsedPercent = vm.UsedPercent
	return r, nil
}

func (r MemoryReport) String() string {
	return fmt.Sprintf("RAM %s/%s free (%.1f%% used) | Heap %s | GC %d",
		formatBytes(r.Available), formatBytes(r.Total), r.UsedPercent, formatBytes(r.HeapAlloc), r.NumGC)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
