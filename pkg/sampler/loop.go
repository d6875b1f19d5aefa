// Package sampler runs the fixed-length sampling run: read the process table, rank it by
// CPU and by memory, fold both rankings into running sums, and average them at the end.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/srodi/topres/pkg/accumulate"
	"github.com/srodi/topres/pkg/collector/process"
	"github.com/srodi/topres/pkg/rank"
	"github.com/srodi/topres/pkg/types"
)

// ErrInvalidTopN is returned when the top-N size is not positive.
var ErrInvalidTopN = errors.New("top-N size must be positive")

// Params fixes the shape of one run.
type Params struct {
	Rounds   int
	Interval time.Duration
	TopN     int
}

// DefaultParams returns 30 rounds, one minute apart, keeping the top 5.
func DefaultParams() Params {
	return Params{
		Rounds:   types.DefaultRounds,
		Interval: types.DefaultInterval,
		TopN:     types.DefaultTopK,
	}
}

// Validate checks that the run can produce averages.
func (p Params) Validate() error {
	if p.Rounds <= 0 {
		return fmt.Errorf("rounds=%d: %w", p.Rounds, accumulate.ErrInvalidRounds)
	}
	if p.TopN <= 0 {
		return fmt.Errorf("top-n=%d: %w", p.TopN, ErrInvalidTopN)
	}
	if p.Interval < 0 {
		return fmt.Errorf("negative interval %v", p.Interval)
	}
	return nil
}

// Result holds the finalized averages of a run.
type Result struct {
	Params    Params
	Completed int
	CPU       []accumulate.Entry
	Memory    []accumulate.Entry
}

// Partial reports whether the run stopped before all rounds completed.
func (r Result) Partial() bool {
	return r.Completed < r.Params.Rounds
}

// Loop drives the rounds. Rounds never overlap; the suspension between them blocks Run.
type Loop struct {
	reader process.Reader
	clock  clock.Clock
	logger *zap.Logger
}

// NewLoop returns a loop reading from reader. A nil clock means wall-clock time and a nil
// logger discards output.
func NewLoop(reader process.Reader, clk clock.Clock, logger *zap.Logger) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{reader: reader, clock: clk, logger: logger}
}

// Run performs p.Rounds rounds with p.Interval between them and no wait after the last.
// Unreadable process tables count as empty rounds. If ctx is cancelled, Run stops at the
// next round boundary or immediately when suspended, and returns averages over the rounds
// that did complete together with the context error.
func (l *Loop) Run(ctx context.Context, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	cpuAcc := accumulate.New(types.CPU)
	memAcc := accumulate.New(types.Memory)
	res := Result{Params: p}

	var stopErr error
	for round := 1; round <= p.Rounds; round++ {
		if err := l.sampleRound(ctx, round, p.TopN, cpuAcc, memAcc); err != nil {
			stopErr = err
			break
		}
		res.Completed = round
		if round == p.Rounds {
			break
		}
		if err := l.sleep(ctx, p.Interval); err != nil {
			stopErr = err
			break
		}
	}

	if stopErr != nil {
		l.logger.Warn("sampling interrupted",
			zap.Int("completed", res.Completed),
			zap.Int("rounds", p.Rounds),
			zap.Error(stopErr))
		if res.Completed == 0 {
			return res, fmt.Errorf("sampling stopped before the first round: %w", stopErr)
		}
	}

	divisor := p.Rounds
	if res.Partial() {
		divisor = res.Completed
	}
	var err error
	if res.CPU, err = cpuAcc.Finalize(divisor); err != nil {
		return res, err
	}
	if res.Memory, err = memAcc.Finalize(divisor); err != nil {
		return res, err
	}
	if stopErr != nil {
		return res, fmt.Errorf("sampling stopped after %d of %d rounds: %w", res.Completed, p.Rounds, stopErr)
	}
	return res, nil
}

func (l *Loop) sampleRound(ctx context.Context, round, topN int, cpuAcc, memAcc *accumulate.Accumulator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot, err := l.reader.ReadSnapshot(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		l.logger.Warn("process table unreadable, round contributes nothing",
			zap.Int("round", round),
			zap.Error(err))
		snapshot = nil
	}

	topCPU := rank.SelectTop(snapshot, cpuAcc.Metric(), topN)
	topMem := rank.SelectTop(snapshot, memAcc.Metric(), topN)
	cpuAcc.Merge(topCPU)
	memAcc.Merge(topMem)

	l.logger.Debug("round sampled",
		zap.Int("round", round),
		zap.Int("samples", len(snapshot)),
		zap.Int("cpu_tracked", cpuAcc.Len()),
		zap.Int("memory_tracked", memAcc.Len()))
	return nil
}

func (l *Loop) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := l.clock.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
