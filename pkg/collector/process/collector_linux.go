//go:build linux
// +build linux

package process

import (
	"context"
	"fmt"
	"sort"

	"github.com/prometheus/procfs"
	"go.uber.org/zap"

	"github.com/srodi/topres/pkg/types"
)

// Collector reads per-process CPU ticks and virtual memory size from procfs.
type Collector struct {
	fs     procfs.FS
	logger *zap.Logger
}

var _ Reader = (*Collector)(nil)

// NewCollector opens the proc filesystem at opts.ProcPath, or /proc when unset.
func NewCollector(opts Options) (*Collector, error) {
	mount := opts.ProcPath
	if mount == "" {
		mount = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(mount)
	if err != nil {
		return nil, fmt.Errorf("opening procfs at %s: %w", mount, err)
	}
	return &Collector{fs: fs, logger: loggerOrNop(opts.Logger)}, nil
}

// ReadSnapshot enumerates every visible PID and reads its name, stat, and status files.
// Processes that exit between enumeration and the reads contribute zero values and are
// dropped if nothing at all could be read.
func (c *Collector) ReadSnapshot(ctx context.Context) (types.Snapshot, error) {
	procs, err := c.fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("enumerating processes: %w", err)
	}
	// Directory order is filesystem dependent; /proc itself lists ascending PIDs.
	sort.Sort(procs)

	snapshot := make(types.Snapshot, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sample := readSample(p)
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

func readSample(p procfs.Proc) types.ProcessSample {
	sample := types.ProcessSample{ID: types.Identity{PID: p.PID}}
	if comm, err := p.Comm(); err == nil {
		sample.Comm = comm
	}
	if stat, err := p.Stat(); err == nil {
		sample.CPUTicks = float64(stat.UTime + stat.STime)
		sample.ID.StartTicks = stat.Starttime
	}
	// VmSize is reported in kB; procfs scales it to bytes.
	if status, err := p.NewStatus(); err == nil {
		sample.VMSizeMB = bytesToMB(status.VmSize)
	}
	return sample
}
