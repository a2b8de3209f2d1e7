package response

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/wardenbot/warden/internal/errors"
	"github.com/wardenbot/warden/internal/infra"
	"github.com/wardenbot/warden/internal/observability"
)

type responder interface {
	Respond(ctx context.Context, breach Breach) Outcome
}

// Queue decouples detection from containment. Detection happens on gateway
// event goroutines that must never block on outbound platform calls, so
// breaches are buffered and a small worker pool drains them.
type Queue struct {
	engine   responder
	breaches chan Breach
	workers  int

	runtimeCtx context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	started    bool
}

func NewQueue(engine responder, workers, size int) *Queue {
	if workers <= 0 {
		workers = 4
	}
	if size <= 0 {
		size = 64
	}
	return &Queue{
		engine:   engine,
		breaches: make(chan Breach, size),
		workers:  workers,
	}
}

// Enqueue hands a breach to the workers without blocking the caller. When
// the buffer is saturated the breach is dropped and counted, detection keeps
// running.
func (q *Queue) Enqueue(breach Breach) error {
	select {
	case q.breaches <- breach:
		return nil
	default:
		observability.RecordBreachDropped()
		q.getLogEntry().
			WithField("guild_id", breach.GuildID).
			WithField("actor_id", breach.ActorID).
			Error("breach queue full, dropping breach")
		return errors.ErrQueueFull
	}
}

func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return nil
	}
	q.runtimeCtx, q.cancel = context.WithCancel(ctx)
	q.started = true

	runCtx := q.runtimeCtx
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		// Done is not deferred, a panicking worker is restarted by the
		// recover wrapper and the drain latch must release only on the
		// normal exit.
		go infra.GoRecoverable(-1, "process_breaches", func() {
			q.run(runCtx)
			q.wg.Done()
		})
	}
	return nil
}

func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return nil
	}
	q.started = false
	cancel := q.cancel
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (q *Queue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case breach := <-q.breaches:
			// Shutdown stops intake only, a sequence in flight runs to
			// completion bounded by the per step timeouts.
			q.engine.Respond(context.WithoutCancel(ctx), breach)
		}
	}
}

func (q *Queue) getLogEntry() *log.Entry {
	return log.WithField("object", "ResponseQueue")
}
