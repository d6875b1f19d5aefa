package types

import (
	"fmt"
	"time"
)

// Run defaults used when neither the config file nor flags override them.
const (
	// DefaultTopK controls how many top processes are kept per resource category each round.
	DefaultTopK      = 5
	DefaultRounds    = 30
	DefaultInterval  = time.Minute
	DefaultRetention = 24 * time.Hour
)

// Identity keys a process across rounds. StartTicks is the process start time in clock
// ticks since boot; it is 0 when the data source cannot report it, in which case a
// recycled PID is indistinguishable from the original process.
type Identity struct {
	PID        int
	StartTicks uint64
}

func (id Identity) String() string {
	if id.StartTicks == 0 {
		return fmt.Sprintf("%d", id.PID)
	}
	return fmt.Sprintf("%d@%d", id.PID, id.StartTicks)
}

// ProcessSample is one process's resource footprint at one instant.
type ProcessSample struct {
	ID   Identity
	Comm string
	// CPUTicks is user+system scheduler ticks accumulated since process start.
	CPUTicks float64
	// VMSizeMB is the virtual memory size in megabytes.
	VMSizeMB float64
}

// Empty reports whether the sample carries no usage at all.
func (s ProcessSample) Empty() bool {
	return s.CPUTicks == 0 && s.VMSizeMB == 0
}

// Snapshot is the process table in data-source enumeration order.
type Snapshot []ProcessSample

// Metric extracts the ranking value from a sample.
type Metric struct {
	Name  string
	Value func(ProcessSample) float64
}

// CPU ranks by accumulated scheduler ticks.
var CPU = Metric{Name: "cpu", Value: func(s ProcessSample) float64 { return s.CPUTicks }}

// Memory ranks by virtual memory size.
var Memory = Metric{Name: "memory", Value: func(s ProcessSample) float64 { return s.VMSizeMB }}
