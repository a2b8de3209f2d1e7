package tracker

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wardenbot/warden/internal/infra"
)

// Pruner periodically sweeps the tracker so that actors who went quiet do
// not pin their windows in memory forever. The ceiling sits far above any
// sane detection window, a sweep never evicts entries a configured window
// could still count.
type Pruner struct {
	tracker  *Tracker
	interval time.Duration
	ceiling  time.Duration

	runtimeCtx context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	started    bool
}

func NewPruner(tracker *Tracker, interval, ceiling time.Duration) *Pruner {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if ceiling <= 0 {
		ceiling = 5 * time.Minute
	}
	return &Pruner{
		tracker:  tracker,
		interval: interval,
		ceiling:  ceiling,
	}
}

func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	p.runtimeCtx, p.cancel = context.WithCancel(ctx)
	p.started = true

	runCtx := p.runtimeCtx
	p.wg.Add(1)
	// Done is not deferred, a panicking sweep is restarted by the recover
	// wrapper and must release the latch only on the normal exit.
	go infra.GoRecoverable(-1, "prune_windows", func() {
		p.run(runCtx)
		p.wg.Done()
	})
	return nil
}

func (p *Pruner) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (p *Pruner) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			windows, entries := p.tracker.Prune(now.Add(-p.ceiling))
			if windows > 0 || entries > 0 {
				p.getLogEntry().WithField("windows", windows).WithField("entries", entries).Debug("pruned stale action windows")
			}
		}
	}
}

func (p *Pruner) getLogEntry() *log.Entry {
	return log.WithField("object", "Pruner")
}
