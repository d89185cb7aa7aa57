package capture_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"odras.app/odras/internal/capture"
	"odras.app/odras/internal/events"
)

// fakeQueue records pushed events and can be told to fail or panic.
type fakeQueue struct {
	mu      sync.Mutex
	pushed  []*events.Event
	pushErr error
	panics  bool
}

func (q *fakeQueue) Push(_ context.Context, evt *events.Event) error {
	if q.panics {
		panic("queue exploded")
	}
	if q.pushErr != nil {
		return q.pushErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushed = append(q.pushed, evt)
	return nil
}

func (q *fakeQueue) BlockingPop(_ context.Context, _ time.Duration) (*events.Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pushed) == 0 {
		return nil, nil
	}
	evt := q.pushed[0]
	q.pushed = q.pushed[1:]
	return evt, nil
}

func (q *fakeQueue) Depth(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.pushed)), nil
}

func (q *fakeQueue) last() *events.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pushed) == 0 {
		return nil
	}
	return q.pushed[len(q.pushed)-1]
}

var _ = Describe("Capturer", func() {
	var (
		q     *fakeQueue
		svc   capture.Service
		c     *capture.Capturer
		ctx   context.Context
		actor events.Actor
	)

	BeforeEach(func() {
		q = &fakeQueue{}
		c = capture.New(q, nil)
		svc = c
		ctx = context.Background()
		actor = events.Actor{UserID: "u1", Username: "alice"}
	})

	It("enqueues a fully populated event", func() {
		ok := svc.CaptureProjectOperation(ctx, actor, "proj_1", "created",
			map[string]any{"name": "UAV Fleet"}, 42.0)
		Expect(ok).To(BeTrue())

		evt := q.last()
		Expect(evt).NotTo(BeNil())
		Expect(evt.EventType).To(Equal(events.ProjectCreated))
		Expect(evt.EventID).To(HavePrefix("project_created_"))
		Expect(evt.ProjectID).To(Equal("proj_1"))
		Expect(evt.Actor).To(Equal(actor))
		Expect(evt.Summary).To(Equal("alice created project 'UAV Fleet'"))
		Expect(evt.ResponseTimeMS).To(Equal(42.0))
		Expect(evt.Context).To(HaveKeyWithValue("area", "project"))
		Expect(evt.Context).To(HaveKeyWithValue("source", "api"))
		Expect(c.Captured()).To(Equal(int64(1)))
	})

	It("returns false without error when the queue is unavailable", func() {
		q.pushErr = errors.New("connection refused")

		ok := svc.CaptureFileOperation(ctx, actor, "proj_1", "uploaded",
			map[string]any{"filename": "spec.pdf"}, 10)
		Expect(ok).To(BeFalse())
		Expect(c.Captured()).To(BeZero())
	})

	It("absorbs a panicking queue", func() {
		q.panics = true

		var ok bool
		Expect(func() {
			ok = svc.CaptureWorkflowOperation(ctx, actor, "proj_1", "started",
				map[string]any{"workflow_name": "ingest"}, 5)
		}).NotTo(Panic())
		Expect(ok).To(BeFalse())
	})

	It("rejects unknown operations without enqueueing", func() {
		ok := svc.CaptureProjectOperation(ctx, actor, "proj_1", "archived", nil, 1)
		Expect(ok).To(BeFalse())
		Expect(q.last()).To(BeNil())
	})

	It("captures events without a project", func() {
		ok := svc.CaptureDASInteraction(ctx, actor, "", "question",
			map[string]any{"question": "what is this?"}, 3)
		Expect(ok).To(BeTrue())
		Expect(q.last().ProjectID).To(BeEmpty())
	})

	It("distinguishes class operations from ontology operations", func() {
		svc.CaptureOntologyOperation(ctx, actor, "proj_1", "created",
			map[string]any{"ontology_name": "vehicles", "class_name": "QuadCopter"}, 1)
		Expect(q.last().EventType).To(Equal(events.ClassCreated))

		svc.CaptureOntologyOperation(ctx, actor, "proj_1", "created",
			map[string]any{"ontology_name": "vehicles"}, 1)
		Expect(q.last().EventType).To(Equal(events.OntologyCreated))
	})

	It("counts captures across event families", func() {
		svc.CaptureKnowledgeSearch(ctx, actor, "proj_1",
			map[string]any{"query": "x", "results_count": 1}, 1)
		svc.CaptureRAGQuery(ctx, actor, "proj_1",
			map[string]any{"question": "y"}, 1)
		svc.CaptureKnowledgeAssetPublished(ctx, actor, "proj_1",
			map[string]any{"title": "Spec"}, 1)
		Expect(c.Captured()).To(Equal(int64(3)))
	})
})
