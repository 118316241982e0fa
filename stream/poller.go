package stream

import (
	"context"
	"sync"
	"time"
)

// Poller runs a task on a fixed interval for the lifetime of an active
// view. The task receives a context that is cancelled when the poller
// stops, so an in-flight fetch can be abandoned with the view.
type Poller struct {
	interval time.Duration
	task     func(ctx context.Context)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewPoller creates a poller that will run task every interval once
// started.
func NewPoller(interval time.Duration, task func(ctx context.Context)) *Poller {
	return &Poller{
		interval: interval,
		task:     task,
	}
}

// Start begins ticking. The parent context bounds the poller's
// lifetime in addition to Stop. Starting an already started poller is
// a no-op.
func (p *Poller) Start(parent context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.task(ctx)
		}
	}
}

// Stop cancels the poller and waits for the loop to exit. No task
// invocation begins after Stop returns. Stopping a poller that never
// started, or stopping twice, is safe.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.started = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	<-done
}
