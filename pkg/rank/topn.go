// Package rank selects the heaviest processes of a snapshot by one metric.
package rank

import (
	"sort"

	"github.com/srodi/topres/pkg/types"
)

// SelectTop returns up to n samples ordered by metric, highest first. Samples with neither
// CPU nor memory usage are not candidates. Equal values keep their snapshot order.
func SelectTop(snapshot types.Snapshot, metric types.Metric, n int) []types.ProcessSample {
	if n <= 0 {
		return nil
	}
	candidates := make([]types.ProcessSample, 0, len(snapshot))
	for _, s := range snapshot {
		if s.Empty() {
			continue
		}
		candidates = append(candidates, s)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return metric.Value(candidates[i]) > metric.Value(candidates[j])
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}
