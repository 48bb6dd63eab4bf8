package worker

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestNumThreadsZeroUsesCPUCount(t *testing.T) {
	got, err := NumThreads(0)
	if err != nil {
		t.Fatalf("NumThreads(0): %v", err)
	}
	want := runtime.NumCPU()
	if want < 1 {
		want = 1
	}
	if got != want {
		t.Errorf("NumThreads(0) = %d, want %d", got, want)
	}
}

func TestNumThreadsClampedToCPUCount(t *testing.T) {
	got, err := NumThreads(runtime.NumCPU() + 100)
	if err != nil {
		t.Fatalf("NumThreads: %v", err)
	}
	if got != runtime.NumCPU() {
		t.Errorf("NumThreads = %d, want %d", got, runtime.NumCPU())
	}
}

func TestNumThreadsNegativeRejected(t *testing.T) {
	if _, err := NumThreads(-1); err == nil {
		t.Error("expected error for negative thread count")
	}
}

func TestPoolPreservesInputOrder(t *testing.T) {
	items := []int{5, 4, 3, 2, 1, 0, 9, 8, 7, 6}
	results, err := Pool(4, items, func(ctx context.Context, item int, index int) (int, error) {
		return item * 10, nil
	})
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	for i, item := range items {
		if results[i] != item*10 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], item*10)
		}
	}
}

func TestPoolPropagatesTaskError(t *testing.T) {
	items := []int{1, 2, 3}
	_, err := Pool(2, items, func(ctx context.Context, item int, index int) (int, error) {
		if item == 2 {
			return 0, errBoom
		}
		return item, nil
	})
	if err == nil {
		t.Fatal("expected error from failing task")
	}
}

func TestRewriteGateSerializesAccess(t *testing.T) {
	var gate RewriteGate
	var counter int32
	var sawOverlap int32

	results, err := Pool(8, make([]int, 20), func(ctx context.Context, item int, index int) (int, error) {
		err := gate.Do(func() error {
			if atomic.AddInt32(&counter, 1) != 1 {
				atomic.StoreInt32(&sawOverlap, 1)
			}
			defer atomic.AddInt32(&counter, -1)
			return nil
		})
		return 0, err
	})
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if len(results) != 20 {
		t.Fatalf("len(results) = %d, want 20", len(results))
	}
	if atomic.LoadInt32(&sawOverlap) != 0 {
		t.Error("RewriteGate allowed overlapping critical sections")
	}
}

func TestDelayedConsoleReplayOrderNotInterleaved(t *testing.T) {
	var c DelayedConsole
	c.Stdout().Write([]byte("out1"))
	c.Stderr().Write([]byte("err1"))
	c.Stdout().Write([]byte("out2"))

	var stdout, stderr buffer
	if err := c.Drain(&stdout, &stderr); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if stdout.String() != "out1out2" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "out1out2")
	}
	if stderr.String() != "err1" {
		t.Errorf("stderr = %q, want %q", stderr.String(), "err1")
	}
}

func TestAlbumCollectorDrainInIndexOrder(t *testing.T) {
	c := NewAlbumCollector[string](3)
	c.Put(2, "third")
	c.Put(0, "first")
	c.Put(1, "second")

	got := c.Drain()
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

type buffer struct {
	data []byte
}

func (b *buffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *buffer) String() string { return string(b.data) }

var errBoom = boomError{}

type boomError struct{}

func (boomError) Error() string { return "boom" }
