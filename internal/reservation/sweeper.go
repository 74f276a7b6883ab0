package reservation

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sweeper runs the expiry sweep on a fixed interval.  It is owned
// explicitly by the embedding application: main starts it after the engine
// is wired and stops it at shutdown, so no free-running background state
// survives a test run or a graceful stop.  Running concurrently with
// reservation creation is safe because the sweep only touches records
// already past their deadline.
type Sweeper struct {
	engine   *Engine
	interval time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// DefaultSweepInterval matches the reference sweep cadence.
const DefaultSweepInterval = 60 * time.Second

// NewSweeper returns a Sweeper over the engine.  A non-positive interval
// falls back to DefaultSweepInterval.
func NewSweeper(engine *Engine, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		engine:   engine,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.  Calling Start more
// than once has no effect.
func (s *Sweeper) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

// Stop halts the loop and waits for the in-flight sweep, if any, to finish.
// Safe to call multiple times.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	n, err := s.engine.ReleaseExpired(ctx)
	if err != nil {
		log.Printf("sweeper: release expired failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("sweeper: expired %d reservation(s)", n)
	}
}
