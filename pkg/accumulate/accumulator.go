// Package accumulate merges per-round top-N lists into per-process running sums and turns
// them into averages over a whole run.
package accumulate

import (
	"errors"
	"fmt"

	"github.com/srodi/topres/pkg/types"
)

// ErrInvalidRounds is returned by Finalize when the round count is not positive.
var ErrInvalidRounds = errors.New("total rounds must be positive")

// Entry is one process's contribution across the run. Before Finalize CPU and Memory are
// sums over the rounds where the process made the top-N list; after, they are averages.
type Entry struct {
	ID          types.Identity
	Comm        string
	CPU         float64
	Memory      float64
	Appearances int
}

// Accumulator keeps entries in first-appearance order for one ranking metric.
// It is not safe for concurrent use.
type Accumulator struct {
	metric  types.Metric
	index   map[types.Identity]int
	entries []Entry
}

// New returns an empty accumulator for lists ranked by metric.
func New(metric types.Metric) *Accumulator {
	return &Accumulator{
		metric: metric,
		index:  make(map[types.Identity]int),
	}
}

// Metric reports the ranking metric the accumulator was built for.
func (a *Accumulator) Metric() types.Metric {
	return a.metric
}

// Len returns the number of distinct identities seen so far.
func (a *Accumulator) Len() int {
	return len(a.entries)
}

// Merge adds one round's top-N list. The first name seen for an identity is kept.
func (a *Accumulator) Merge(top []types.ProcessSample) {
	for _, s := range top {
		if i, ok := a.index[s.ID]; ok {
			e := &a.entries[i]
			e.CPU += s.CPUTicks
			e.Memory += s.VMSizeMB
			e.Appearances++
			continue
		}
		a.index[s.ID] = len(a.entries)
		a.entries = append(a.entries, Entry{
			ID:          s.ID,
			Comm:        s.Comm,
			CPU:         s.CPUTicks,
			Memory:      s.VMSizeMB,
			Appearances: 1,
		})
	}
}

// Finalize divides every sum by totalRounds, not by the entry's own appearance count, so a
// process that ranked in few rounds averages low. Entries come back in first-appearance
// order. The accumulator is left untouched and repeated calls return the same result.
func (a *Accumulator) Finalize(totalRounds int) ([]Entry, error) {
	if totalRounds <= 0 {
		return nil, fmt.Errorf("finalizing %s averages over %d rounds: %w", a.metric.Name, totalRounds, ErrInvalidRounds)
	}
	out := make([]Entry, len(a.entries))
	rounds := float64(totalRounds)
	for i, e := range a.entries {
		e.CPU /= rounds
		e.Memory /= rounds
		out[i] = e
	}
	return out, nil
}

// Value returns the entry's figure for metric's dimension.
func (e Entry) Value(metric types.Metric) float64 {
	return metric.Value(types.ProcessSample{CPUTicks: e.CPU, VMSizeMB: e.Memory})
}
