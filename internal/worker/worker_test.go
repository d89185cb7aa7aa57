package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"odras.app/odras/internal/events"
	"odras.app/odras/internal/worker"
)

// memQueue is a non-blocking in-memory queue; BlockingPop returns nil
// immediately when empty, like the Redis queue after its timeout.
type memQueue struct {
	mu     sync.Mutex
	items  []*events.Event
	popErr error
}

func (q *memQueue) Push(_ context.Context, evt *events.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, evt)
	return nil
}

func (q *memQueue) BlockingPop(_ context.Context, _ time.Duration) (*events.Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.popErr != nil {
		return nil, q.popErr
	}
	if len(q.items) == 0 {
		return nil, nil
	}
	evt := q.items[0]
	q.items = q.items[1:]
	return evt, nil
}

func (q *memQueue) Depth(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

type fakeRouting struct {
	routed    atomic.Int64
	panicLeft atomic.Int64
}

func (r *fakeRouting) Route(_ context.Context, _ *events.Event) bool {
	if r.panicLeft.Load() > 0 {
		r.panicLeft.Add(-1)
		panic("router exploded")
	}
	r.routed.Add(1)
	return true
}

func testConfig() worker.Config {
	return worker.Config{
		PopTimeout:   time.Millisecond,
		IdleInterval: time.Millisecond,
		ErrorBackoff: 5 * time.Millisecond,
	}
}

func pushEvents(q *memQueue, n int) {
	for range n {
		_ = q.Push(context.Background(), events.New(events.FileUploaded,
			events.Actor{UserID: "u1", Username: "alice"}, "proj_1", "alice uploaded 'a'", nil))
	}
}

var _ = Describe("Worker", func() {
	var (
		q   *memQueue
		r   *fakeRouting
		w   *worker.Worker
		ctx context.Context
	)

	BeforeEach(func() {
		q = &memQueue{}
		r = &fakeRouting{}
		w = worker.New(q, r, testConfig(), nil)
		ctx = context.Background()
	})

	AfterEach(func() {
		stopCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		w.Stop(stopCtx)
	})

	It("drains queued events in the background", func() {
		pushEvents(q, 3)
		w.Start(ctx)

		Eventually(r.routed.Load).Should(Equal(int64(3)))
		Eventually(w.Processed).Should(Equal(int64(3)))
		Expect(w.State()).To(Equal(worker.StateRunning))
	})

	It("picks up events enqueued after start", func() {
		w.Start(ctx)
		Eventually(w.State).Should(Equal(worker.StateRunning))

		pushEvents(q, 1)
		Eventually(r.routed.Load).Should(Equal(int64(1)))
	})

	It("ignores a second start", func() {
		w.Start(ctx)
		w.Start(ctx)
		Expect(w.State()).To(Equal(worker.StateRunning))

		pushEvents(q, 2)
		Eventually(r.routed.Load).Should(Equal(int64(2)))
		Consistently(r.routed.Load, 20*time.Millisecond).Should(Equal(int64(2)))
	})

	It("survives a panicking router and keeps processing", func() {
		r.panicLeft.Store(1)
		pushEvents(q, 2)
		w.Start(ctx)

		Eventually(r.routed.Load).Should(Equal(int64(1)))
		Expect(w.State()).To(Equal(worker.StateRunning))
	})

	It("backs off on queue errors instead of exiting", func() {
		q.popErr = errors.New("connection reset")
		w.Start(ctx)

		Consistently(w.State, 20*time.Millisecond).Should(Equal(worker.StateRunning))

		q.mu.Lock()
		q.popErr = nil
		q.mu.Unlock()
		pushEvents(q, 1)

		Eventually(r.routed.Load).Should(Equal(int64(1)))
	})

	It("stops cleanly and reports the stopped state", func() {
		w.Start(ctx)
		Eventually(w.State).Should(Equal(worker.StateRunning))

		stopCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		w.Stop(stopCtx)
		Expect(w.State()).To(Equal(worker.StateStopped))

		// Stop again is a no-op.
		w.Stop(stopCtx)
		Expect(w.State()).To(Equal(worker.StateStopped))
	})

	Describe("ProcessBatch", func() {
		It("drains up to the limit", func() {
			pushEvents(q, 5)

			n, err := w.ProcessBatch(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(3))

			depth, _ := q.Depth(ctx)
			Expect(depth).To(Equal(int64(2)))
		})

		It("stops early on an empty queue", func() {
			pushEvents(q, 1)

			n, err := w.ProcessBatch(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})

		It("surfaces routing panics as errors", func() {
			r.panicLeft.Store(1)
			pushEvents(q, 1)

			n, err := w.ProcessBatch(ctx, 10)
			Expect(err).To(HaveOccurred())
			Expect(n).To(BeZero())
		})
	})
})
