package accumulate

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/srodi/topres/pkg/types"
)

func proc(pid int, comm string, cpu, mem float64) types.ProcessSample {
	return types.ProcessSample{ID: types.Identity{PID: pid}, Comm: comm, CPUTicks: cpu, VMSizeMB: mem}
}

func TestMergeSumsRepeatedIdentity(t *testing.T) {
	orders := [][][]types.ProcessSample{
		{{proc(1, "a", 10, 0)}, {proc(1, "a", 5, 0)}},
		{{proc(1, "a", 5, 0)}, {proc(1, "a", 10, 0)}},
	}
	for _, rounds := range orders {
		acc := New(types.CPU)
		for _, r := range rounds {
			acc.Merge(r)
		}
		got, err := acc.Finalize(1)
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		if len(got) != 1 || got[0].CPU != 15 || got[0].Appearances != 2 {
			t.Fatalf("expected cumulative cpu 15 over 2 appearances, got %+v", got)
		}
	}
}

func TestMergeDistinctIdentitiesIsOrderIndependent(t *testing.T) {
	a := New(types.Memory)
	a.Merge([]types.ProcessSample{proc(1, "x", 0, 10)})
	a.Merge([]types.ProcessSample{proc(2, "y", 0, 20)})

	b := New(types.Memory)
	b.Merge([]types.ProcessSample{proc(2, "y", 0, 20)})
	b.Merge([]types.ProcessSample{proc(1, "x", 0, 10)})

	sums := func(acc *Accumulator) map[int]float64 {
		entries, err := acc.Finalize(1)
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		out := map[int]float64{}
		for _, e := range entries {
			out[e.ID.PID] = e.Memory
		}
		return out
	}
	if diff := cmp.Diff(sums(a), sums(b)); diff != "" {
		t.Fatalf("merge order changed sums (-a +b):\n%s", diff)
	}
}

func TestMergeKeepsFirstName(t *testing.T) {
	acc := New(types.CPU)
	acc.Merge([]types.ProcessSample{proc(4, "first", 1, 1)})
	acc.Merge([]types.ProcessSample{proc(4, "renamed", 1, 1)})
	got, _ := acc.Finalize(2)
	if got[0].Comm != "first" {
		t.Fatalf("display name overwritten: %q", got[0].Comm)
	}
}

func TestMergeEmptyListIsNoop(t *testing.T) {
	acc := New(types.CPU)
	acc.Merge(nil)
	acc.Merge([]types.ProcessSample{})
	if acc.Len() != 0 {
		t.Fatalf("expected no entries, got %d", acc.Len())
	}
	got, err := acc.Finalize(3)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty finalize, got %v %v", got, err)
	}
}

func TestMergeSeparatesRecycledPIDs(t *testing.T) {
	acc := New(types.CPU)
	old := proc(100, "old", 40, 0)
	old.ID.StartTicks = 500
	reused := proc(100, "new", 4, 0)
	reused.ID.StartTicks = 9000
	acc.Merge([]types.ProcessSample{old})
	acc.Merge([]types.ProcessSample{reused})
	if acc.Len() != 2 {
		t.Fatalf("recycled pid merged into original process: %d entries", acc.Len())
	}
}

func TestFinalizeDividesByTotalRounds(t *testing.T) {
	acc := New(types.CPU)
	for _, v := range []float64{10, 20, 30} {
		acc.Merge([]types.ProcessSample{proc(9, "x", v, 3)})
	}
	got, err := acc.Finalize(30)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if math.Abs(got[0].CPU-2.0) > 1e-9 {
		t.Fatalf("expected 60/30 = 2.0, got %v", got[0].CPU)
	}
	if math.Abs(got[0].Memory-0.3) > 1e-9 {
		t.Fatalf("expected 9/30 = 0.3, got %v", got[0].Memory)
	}
	if got[0].Appearances != 3 {
		t.Fatalf("expected 3 appearances, got %d", got[0].Appearances)
	}
	if got[0].Value(types.CPU) != got[0].CPU || got[0].Value(types.Memory) != got[0].Memory {
		t.Fatalf("Value does not follow metric: %+v", got[0])
	}
}

func TestFinalizeIsRepeatable(t *testing.T) {
	acc := New(types.CPU)
	acc.Merge([]types.ProcessSample{proc(1, "a", 8, 0), proc(2, "b", 4, 0)})
	first, _ := acc.Finalize(4)
	second, _ := acc.Finalize(4)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second finalize differs (-first +second):\n%s", diff)
	}
	if first[0].CPU != 2 || first[1].CPU != 1 {
		t.Fatalf("unexpected averages: %+v", first)
	}
}

func TestFinalizeRejectsNonPositiveRounds(t *testing.T) {
	acc := New(types.Memory)
	for _, n := range []int{0, -1} {
		if _, err := acc.Finalize(n); !errors.Is(err, ErrInvalidRounds) {
			t.Fatalf("rounds=%d: expected ErrInvalidRounds, got %v", n, err)
		}
	}
}

func TestFinalizePreservesInsertionOrder(t *testing.T) {
	acc := New(types.CPU)
	acc.Merge([]types.ProcessSample{proc(3, "c", 1, 0), proc(1, "a", 100, 0)})
	acc.Merge([]types.ProcessSample{proc(2, "b", 1000, 0), proc(3, "c", 1, 0)})
	got, _ := acc.Finalize(1)
	order := []int{got[0].ID.PID, got[1].ID.PID, got[2].ID.PID}
	if diff := cmp.Diff([]int{3, 1, 2}, order); diff != "" {
		t.Fatalf("order changed (-want +got):\n%s", diff)
	}
}
