package process

import (
	"context"

	"go.uber.org/zap"

	"github.com/srodi/topres/pkg/types"
)

// userHz is the scheduler tick rate assumed when a source reports CPU time in seconds.
// Reading the real value needs sysconf(_SC_CLK_TCK) and therefore cgo; 100 holds on
// every mainstream Linux build.
const userHz = 100

const bytesPerMB = 1024 * 1024

// Reader returns the live process table. A non-nil error means the table itself could not
// be enumerated; per-process read failures never surface and yield zero-valued fields.
type Reader interface {
	ReadSnapshot(ctx context.Context) (types.Snapshot, error)
}

// Options configures a Collector.
type Options struct {
	// ProcPath overrides the proc mount point. Linux only; empty means /proc.
	ProcPath string
	Logger   *zap.Logger
}

func bytesToMB(b uint64) float64 {
	return float64(b) / bytesPerMB
}

func secondsToTicks(seconds float64) float64 {
	return seconds * userHz
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
