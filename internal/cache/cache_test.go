package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[int](30 * time.Second).WithClock(func() time.Time { return now })

	c.Set("stats", 42)
	if v, ok := c.Get("stats"); !ok || v != 42 {
		t.Fatalf("fresh entry missing")
	}

	now = now.Add(31 * time.Second)
	if _, ok := c.Get("stats"); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestGetOrLoadSharesConcurrentMisses(t *testing.T) {
	c := New[int](time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	load := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "stats", load)
			if err != nil {
				t.Errorf("GetOrLoad: %v", err)
			}
			results[i] = v
		}()
	}

	// let every goroutine reach the shared load before it returns
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("load ran %d times, want 1", n)
	}
	for i, v := range results {
		if v != 7 {
			t.Fatalf("result[%d] = %d", i, v)
		}
	}
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := New[int](time.Minute)
	boom := errors.New("db down")

	if _, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) { return 3, nil })
	if err != nil || v != 3 {
		t.Fatalf("second load = %d, %v", v, err)
	}
}

func TestInvalidateDuringLoadDiscardsResult(t *testing.T) {
	c := New[int](time.Minute)

	v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
		c.Invalidate("k")
		return 1, nil
	})
	if err != nil || v != 1 {
		t.Fatalf("GetOrLoad = %d, %v", v, err)
	}
	if _, ok := c.Get("k"); ok {
		t.Fatal("stale load was stored after invalidation")
	}
}

func TestCallerAfterInvalidateDoesNotJoinOlderLoad(t *testing.T) {
	c := New[int](time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})

	oldDone := make(chan int)
	go func() {
		v, _ := c.GetOrLoad(context.Background(), "stats", func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		oldDone <- v
	}()
	<-started

	c.Invalidate("stats")

	v, err := c.GetOrLoad(context.Background(), "stats", func(context.Context) (int, error) { return 2, nil })
	if err != nil || v != 2 {
		t.Fatalf("GetOrLoad after invalidate = %d, %v, want fresh 2", v, err)
	}

	close(release)
	if old := <-oldDone; old != 1 {
		t.Fatalf("older caller = %d, want 1", old)
	}
	if got, ok := c.Get("stats"); !ok || got != 2 {
		t.Fatalf("cached = %d, %v, want 2", got, ok)
	}
}
