package sim

import (
	"log/slog"
	"sync"

	"github.com/server-monitor/internal/domain"
)

// Loop is the authoritative execution context. Everything that touches live
// game state or the session registry runs here, on a single goroutine, so
// none of that state needs locking. Blocking work (rank lookups, HTTP sends)
// must never be posted to the loop.
type Loop struct {
	tasks   chan func()
	stopCh  chan struct{}
	doneCh  chan struct{}
	logger  *slog.Logger
	mu      sync.Mutex
	running bool
}

// NewLoop creates a stopped loop.
func NewLoop(logger *slog.Logger) *Loop {
	return &Loop{
		tasks:  make(chan func(), 128),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logger,
	}
}

// Start begins draining tasks on the loop goroutine.
func (l *Loop) Start() error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = true
	l.mu.Unlock()

	go l.run()
	l.logger.Debug("simulation loop started")
	return nil
}

// Stop shuts the loop down. Tasks posted after Stop fail with ErrLoopStopped.
// running is cleared under the same lock that checks it, so concurrent Stop
// calls cannot both reach the close.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	l.mu.Unlock()

	close(l.stopCh)
	<-l.doneCh

	l.logger.Debug("simulation loop stopped")
	return nil
}

func (l *Loop) run() {
	defer close(l.doneCh)
	for {
		select {
		case <-l.stopCh:
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post queues fn to run on the loop and returns without waiting for it.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.stopCh:
		return domain.ErrLoopStopped
	case l.tasks <- fn:
		return nil
	}
}

// Call runs fn on the loop and waits for it to finish. Calling it from the
// loop itself would deadlock; it is for worker goroutines that need a
// consistent read of loop-owned state.
func (l *Loop) Call(fn func()) error {
	done := make(chan struct{})
	err := l.Post(func() {
		defer close(done)
		fn()
	})
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-l.stopCh:
		return domain.ErrLoopStopped
	}
}
