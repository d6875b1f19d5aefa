//go:build linux

package process

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/srodi/topres/pkg/types"
)

type fakeProc struct {
	pid        int
	comm       string
	utime      uint64
	stime      uint64
	start      uint64
	vmSizeKB   uint64
	skipStat   bool
	skipStatus bool
	skipComm   bool
}

func writeProcTree(t *testing.T, procs []fakeProc) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range procs {
		dir := filepath.Join(root, fmt.Sprint(p.pid))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		if !p.skipComm {
			writeFile(t, filepath.Join(dir, "comm"), p.comm+"\n")
		}
		if !p.skipStat {
			// Fields after utime/stime up to starttime, then vsize, rss, and the zero tail.
			stat := fmt.Sprintf("%d (%s) S 1 %d %d 0 -1 4194560 100 0 0 0 %d %d 0 0 20 0 1 0 %d %d 256 0%s\n",
				p.pid, p.comm, p.pid, p.pid, p.utime, p.stime, p.start, p.vmSizeKB*1024, strings.Repeat(" 0", 28))
			writeFile(t, filepath.Join(dir, "stat"), stat)
		}
		if !p.skipStatus {
			status := fmt.Sprintf("Name:\t%s\nState:\tS (sleeping)\nTgid:\t%d\nPid:\t%d\nPPid:\t1\nVmSize:\t%8d kB\nVmRSS:\t    1024 kB\n",
				p.comm, p.pid, p.pid, p.vmSizeKB)
			writeFile(t, filepath.Join(dir, "status"), status)
		}
	}
	// Non-numeric entries are not processes.
	if err := os.MkdirAll(filepath.Join(root, "sys"), 0o755); err != nil {
		t.Fatalf("mkdir sys: %v", err)
	}
	writeFile(t, filepath.Join(root, "uptime"), "100.00 200.00\n")
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestReadSnapshotFromProcTree(t *testing.T) {
	root := writeProcTree(t, []fakeProc{
		{pid: 10, comm: "api", utime: 300, stime: 200, start: 4000, vmSizeKB: 204800},
		{pid: 20, comm: "db", utime: 50, stime: 25, start: 4100, vmSizeKB: 1048576},
	})

	c, err := NewCollector(Options{ProcPath: root})
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	snapshot, err := c.ReadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	want := types.Snapshot{
		{ID: types.Identity{PID: 10, StartTicks: 4000}, Comm: "api", CPUTicks: 500, VMSizeMB: 200},
		{ID: types.Identity{PID: 20, StartTicks: 4100}, Comm: "db", CPUTicks: 75, VMSizeMB: 1024},
	}
	if diff := cmp.Diff(want, snapshot); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestReadSnapshotToleratesPartialReads(t *testing.T) {
	root := writeProcTree(t, []fakeProc{
		// Exited between enumeration and read: nothing readable.
		{pid: 30, skipComm: true, skipStat: true, skipStatus: true},
		// Kernel thread style: ticks but no VmSize line content.
		{pid: 40, comm: "kworker/0:1", utime: 7, stime: 3, start: 10, skipStatus: true},
		// Name unreadable, usage still counted.
		{pid: 50, skipComm: true, utime: 1, stime: 1, start: 20, vmSizeKB: 2048},
		// Readable but idle with no memory: discarded.
		{pid: 60, comm: "idle", skipStatus: true},
	})

	c, err := NewCollector(Options{ProcPath: root})
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	snapshot, err := c.ReadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 samples, got %+v", snapshot)
	}
	if snapshot[0].ID.PID != 40 || snapshot[0].CPUTicks != 10 || snapshot[0].VMSizeMB != 0 {
		t.Fatalf("unexpected kernel thread sample: %+v", snapshot[0])
	}
	if snapshot[1].ID.PID != 50 || snapshot[1].Comm != "" || snapshot[1].VMSizeMB != 2 {
		t.Fatalf("unexpected nameless sample: %+v", snapshot[1])
	}
}

func TestReadSnapshotEnumerationFailure(t *testing.T) {
	root := writeProcTree(t, nil)
	c, err := NewCollector(Options{ProcPath: root})
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("remove: %v", err)
	}
	snapshot, err := c.ReadSnapshot(context.Background())
	if err == nil {
		t.Fatalf("expected enumeration error")
	}
	if len(snapshot) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snapshot)
	}
}

func TestReadSnapshotHonorsCancellation(t *testing.T) {
	root := writeProcTree(t, []fakeProc{{pid: 10, comm: "api", utime: 1, start: 1, vmSizeKB: 1024}})
	c, err := NewCollector(Options{ProcPath: root})
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ReadSnapshot(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewCollectorMissingMount(t *testing.T) {
	if _, err := NewCollector(Options{ProcPath: filepath.Join(t.TempDir(), "absent")}); err == nil {
		t.Fatalf("expected error for missing proc mount")
	}
}
