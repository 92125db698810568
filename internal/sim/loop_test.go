package sim

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/server-monitor/internal/domain"
)

func newTestLoop(t *testing.T) *Loop {
	t.Helper()
	l := NewLoop(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := l.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return l
}

func TestPostRunsTask(t *testing.T) {
	l := newTestLoop(t)
	defer l.Stop()

	ran := make(chan struct{})
	if err := l.Post(func() { close(ran) }); err != nil {
		t.Fatalf("Post: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("posted task never ran")
	}
}

func TestCallWaitsForResult(t *testing.T) {
	l := newTestLoop(t)
	defer l.Stop()

	value := 0
	if err := l.Call(func() { value = 42 }); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if value != 42 {
		t.Errorf("value = %d after Call returned, want 42", value)
	}
}

func TestCallSerializesWithPostedTasks(t *testing.T) {
	l := newTestLoop(t)
	defer l.Stop()

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		if err := l.Post(func() { order = append(order, i) }); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}
	if err := l.Call(func() { order = append(order, 4) }); err != nil {
		t.Fatalf("Call: %v", err)
	}

	for i, want := range []int{1, 2, 3, 4} {
		if order[i] != want {
			t.Fatalf("order = %v, want FIFO", order)
		}
	}
}

func TestPostAfterStop(t *testing.T) {
	l := newTestLoop(t)
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if err := l.Post(func() {}); !errors.Is(err, domain.ErrLoopStopped) {
		t.Errorf("Post after Stop: err = %v, want ErrLoopStopped", err)
	}
	if err := l.Call(func() {}); !errors.Is(err, domain.ErrLoopStopped) {
		t.Errorf("Call after Stop: err = %v, want ErrLoopStopped", err)
	}
}

func TestStartAndStopAreIdempotent(t *testing.T) {
	l := newTestLoop(t)
	if err := l.Start(); err != nil {
		t.Errorf("second Start: %v", err)
	}
	if err := l.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := l.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestStopConcurrent(t *testing.T) {
	l := newTestLoop(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Stop(); err != nil {
				t.Errorf("Stop: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestHostStateThroughLoop(t *testing.T) {
	l := newTestLoop(t)
	defer l.Stop()
	h := NewHost(l)

	h.SetPlayer(3, domain.PlayerStats{Name: "Alice", Kills: 5, Deaths: 2, Assists: 1})
	h.SetScores(domain.TeamScores{CT: 7, T: 8})

	var stats domain.PlayerStats
	var ok bool
	var scores domain.TeamScores
	if err := l.Call(func() {
		stats, ok = h.PlayerBySlot(3)
		scores = h.TeamScores()
	}); err != nil {
		t.Fatalf("Call: %v", err)
	}

	if !ok || stats.Kills != 5 || stats.Name != "Alice" {
		t.Errorf("PlayerBySlot(3) = %+v, %v", stats, ok)
	}
	if scores.CT != 7 || scores.T != 8 {
		t.Errorf("TeamScores = %+v", scores)
	}

	h.RemovePlayer(3)
	if err := l.Call(func() { _, ok = h.PlayerBySlot(3) }); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if ok {
		t.Error("slot 3 still present after RemovePlayer")
	}
}
