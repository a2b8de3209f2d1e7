package response

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	internalerrors "github.com/wardenbot/warden/internal/errors"
)

type stubEngine struct {
	mu      sync.Mutex
	handled []Breach
	done    chan struct{}
}

func (s *stubEngine) Respond(ctx context.Context, breach Breach) Outcome {
	_ = ctx
	s.mu.Lock()
	s.handled = append(s.handled, breach)
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	return Outcome{}
}

func TestQueueDeliversBreachesToWorkers(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{done: make(chan struct{}, 8)}
	queue := NewQueue(engine, 2, 8)
	if err := queue.Start(context.Background()); err != nil {
		t.Fatalf("start queue: %v", err)
	}
	t.Cleanup(func() { _ = queue.Stop(context.Background()) })

	const breaches = 5
	for i := 0; i < breaches; i++ {
		if err := queue.Enqueue(Breach{GuildID: "g1", ActorID: "a1", Count: i}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	for i := 0; i < breaches; i++ {
		select {
		case <-engine.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("worker did not handle breach %d in time", i)
		}
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if len(engine.handled) != breaches {
		t.Fatalf("unexpected handled count: %d", len(engine.handled))
	}
}

func TestQueueOverflowDropsWithoutBlocking(t *testing.T) {
	t.Parallel()

	// No workers running, the buffer alone decides.
	queue := NewQueue(&stubEngine{}, 1, 2)

	if err := queue.Enqueue(Breach{ActorID: "a1"}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := queue.Enqueue(Breach{ActorID: "a2"}); err != nil {
		t.Fatalf("second enqueue: %v", err)
	}

	start := time.Now()
	err := queue.Enqueue(Breach{ActorID: "a3"})
	if !errors.Is(err, internalerrors.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("enqueue blocked for %v", elapsed)
	}
}

type flakyEngine struct {
	mu      sync.Mutex
	calls   int
	handled []Breach
	done    chan struct{}
}

func (f *flakyEngine) Respond(ctx context.Context, breach Breach) Outcome {
	_ = ctx
	f.mu.Lock()
	f.calls++
	if f.calls == 1 {
		f.mu.Unlock()
		panic("platform client gone")
	}
	f.handled = append(f.handled, breach)
	f.mu.Unlock()
	f.done <- struct{}{}
	return Outcome{}
}

func TestQueueWorkerSurvivesEnginePanic(t *testing.T) {
	t.Parallel()

	engine := &flakyEngine{done: make(chan struct{}, 4)}
	queue := NewQueue(engine, 1, 4)
	if err := queue.Start(context.Background()); err != nil {
		t.Fatalf("start queue: %v", err)
	}

	if err := queue.Enqueue(Breach{ActorID: "a1"}); err != nil {
		t.Fatalf("enqueue a1: %v", err)
	}
	if err := queue.Enqueue(Breach{ActorID: "a2"}); err != nil {
		t.Fatalf("enqueue a2: %v", err)
	}

	select {
	case <-engine.done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not come back after the panic")
	}

	engine.mu.Lock()
	if len(engine.handled) != 1 || engine.handled[0].ActorID != "a2" {
		t.Fatalf("expected the breach after the panic to be handled: %#v", engine.handled)
	}
	engine.mu.Unlock()

	// The drain latch must still release despite the restart.
	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := queue.Stop(stopCtx); err != nil {
		t.Fatalf("stop after restart: %v", err)
	}
}

type slowEngine struct {
	entered   chan struct{}
	release   chan struct{}
	completed atomic.Int32
	ctxErr    error
	mu        sync.Mutex
}

func (s *slowEngine) Respond(ctx context.Context, breach Breach) Outcome {
	_ = breach
	s.entered <- struct{}{}
	<-s.release
	s.mu.Lock()
	s.ctxErr = ctx.Err()
	s.mu.Unlock()
	s.completed.Add(1)
	return Outcome{}
}

func TestQueueStopWaitsForInFlightSequence(t *testing.T) {
	t.Parallel()

	engine := &slowEngine{entered: make(chan struct{}), release: make(chan struct{})}
	queue := NewQueue(engine, 1, 4)
	if err := queue.Start(context.Background()); err != nil {
		t.Fatalf("start queue: %v", err)
	}

	if err := queue.Enqueue(Breach{ActorID: "a1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-engine.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not pick up breach")
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(engine.release)
	}()

	if err := queue.Stop(context.Background()); err != nil {
		t.Fatalf("stop queue: %v", err)
	}
	if got := engine.completed.Load(); got != 1 {
		t.Fatalf("stop returned before the sequence completed: %d", got)
	}

	// A sequence in flight must not observe the shutdown cancellation.
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.ctxErr != nil {
		t.Fatalf("in flight sequence saw cancelled context: %v", engine.ctxErr)
	}
}

func TestQueueStopGivesUpOnDeadline(t *testing.T) {
	t.Parallel()

	engine := &slowEngine{entered: make(chan struct{}), release: make(chan struct{})}
	t.Cleanup(func() { close(engine.release) })

	queue := NewQueue(engine, 1, 4)
	if err := queue.Start(context.Background()); err != nil {
		t.Fatalf("start queue: %v", err)
	}
	if err := queue.Enqueue(Breach{ActorID: "a1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-engine.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not pick up breach")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := queue.Stop(stopCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error from stop, got %v", err)
	}
}
