//go:build !linux
// +build !linux

package process

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"github.com/srodi/topres/pkg/types"
)

// Collector reads the process table through gopsutil on platforms without procfs.
type Collector struct {
	logger *zap.Logger
}

var _ Reader = (*Collector)(nil)

// NewCollector ignores opts.ProcPath; it exists only on Linux.
func NewCollector(opts Options) (*Collector, error) {
	return &Collector{logger: loggerOrNop(opts.Logger)}, nil
}

// ReadSnapshot enumerates processes and converts CPU seconds to ticks so samples are
// comparable with the procfs collector.
func (c *Collector) ReadSnapshot(ctx context.Context) (types.Snapshot, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating processes: %w", err)
	}

	snapshot := make(types.Snapshot, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sample := types.ProcessSample{ID: types.Identity{PID: int(p.Pid)}}
		if name, err := p.NameWithContext(ctx); err == nil {
			sample.Comm = name
		}
		if times, err := p.TimesWithContext(ctx); err == nil {
			sample.CPUTicks = secondsToTicks(times.User + times.System)
		}
		// Create time is epoch milliseconds; only its stability matters here.
		if created, err := p.CreateTimeWithContext(ctx); err == nil && created > 0 {
			sample.ID.StartTicks = uint64(created) * userHz / 1000
		}
		if mem, err := p.MemoryInfoWithContext(ctx); err == nil {
			sample.VMSizeMB = bytesToMB(mem.VMS)
		}
		if sample.Empty() {
			continue
		}
		snapshot = append(snapshot, sample)
	}

	c.logger.Debug("read process table",
		zap.Int("pids", len(procs)),
		zap.Int("samples", len(snapshot)))
	return snapshot, nil
}
