package routing_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"odras.app/odras/internal/events"
	"odras.app/odras/internal/routing"
	"odras.app/odras/internal/thread"
)

// memThreads is an in-memory thread.Manager. Threads are created out of
// band, mirroring the production rule that routing never creates them.
type memThreads struct {
	mu        sync.Mutex
	threads   map[string]*thread.Thread
	entries   map[string][]thread.Entry
	getErr    error
	appendErr error
	panics    bool
}

func newMemThreads() *memThreads {
	return &memThreads{
		threads: make(map[string]*thread.Thread),
		entries: make(map[string][]thread.Entry),
	}
}

func (m *memThreads) addThread(projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[projectID] = &thread.Thread{ID: "thread_" + projectID, ProjectID: projectID}
}

func (m *memThreads) GetThread(_ context.Context, projectID string) (*thread.Thread, error) {
	if m.panics {
		panic("store exploded")
	}
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	th, ok := m.threads[projectID]
	if !ok {
		return nil, thread.ErrNotFound
	}
	return th, nil
}

func (m *memThreads) AppendEvent(_ context.Context, th *thread.Thread, entry thread.Entry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[th.ID] = append(m.entries[th.ID], entry)
	return nil
}

func (m *memThreads) entriesFor(projectID string) []thread.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries["thread_"+projectID]
}

func makeEvent(t events.EventType, projectID string) *events.Event {
	return events.New(t, events.Actor{UserID: "u1", Username: "alice"}, projectID,
		"alice did a thing", map[string]any{"name": "thing"})
}

var _ = Describe("Router", func() {
	var (
		primary  *memThreads
		fallback *memThreads
		router   *routing.Router
		ctx      context.Context
	)

	BeforeEach(func() {
		primary = newMemThreads()
		fallback = newMemThreads()
		router = routing.New([]routing.Engine{
			{Name: "primary", Threads: primary},
			{Name: "fallback", Threads: fallback},
		}, nil)
		ctx = context.Background()
	})

	It("does not route events without a project and touches no engine", func() {
		primary.panics = true // any engine call would blow up the test
		fallback.panics = true

		routed := router.Route(ctx, makeEvent(events.DASQuestion, ""))
		Expect(routed).To(BeFalse())
	})

	It("appends to the primary engine's thread", func() {
		primary.addThread("proj_1")

		evt := makeEvent(events.FileUploaded, "proj_1")
		Expect(router.Route(ctx, evt)).To(BeTrue())

		entries := primary.entriesFor("proj_1")
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].EventType).To(Equal(thread.TypeFileOperation))
		Expect(entries[0].Summary).To(Equal(evt.Summary))
		Expect(entries[0].ActorID).To(Equal("u1"))
		Expect(entries[0].CapturedBy).To(Equal(routing.CapturedBy))
		Expect(entries[0].CapturedAt).To(Equal(evt.Timestamp))
		Expect(fallback.entriesFor("proj_1")).To(BeEmpty())
	})

	It("is not routed when no engine has a thread", func() {
		Expect(router.Route(ctx, makeEvent(events.ProjectUpdated, "proj_2"))).To(BeFalse())
	})

	It("falls back when the primary has no thread", func() {
		fallback.addThread("proj_3")

		Expect(router.Route(ctx, makeEvent(events.WorkflowStarted, "proj_3"))).To(BeTrue())
		Expect(fallback.entriesFor("proj_3")).To(HaveLen(1))
	})

	It("falls back when the primary fails to append", func() {
		primary.addThread("proj_4")
		primary.appendErr = errors.New("disk full")
		fallback.addThread("proj_4")

		Expect(router.Route(ctx, makeEvent(events.OntologyModified, "proj_4"))).To(BeTrue())
		Expect(fallback.entriesFor("proj_4")).To(HaveLen(1))
	})

	It("falls back when the primary panics", func() {
		primary.panics = true
		fallback.addThread("proj_5")

		var routed bool
		Expect(func() {
			routed = router.Route(ctx, makeEvent(events.KnowledgeSearch, "proj_5"))
		}).NotTo(Panic())
		Expect(routed).To(BeTrue())
		Expect(fallback.entriesFor("proj_5")).To(HaveLen(1))
	})

	It("treats an unavailable engine as a delivery failure", func() {
		router = routing.New([]routing.Engine{
			{Name: "primary", Threads: nil},
			{Name: "fallback", Threads: fallback},
		}, nil)
		fallback.addThread("proj_6")

		Expect(router.Route(ctx, makeEvent(events.DASQuestion, "proj_6"))).To(BeTrue())
	})

	It("records only post-bootstrap events for a project", func() {
		// Until the thread exists, routing quietly drops events.
		Expect(router.Route(ctx, makeEvent(events.ProjectCreated, "proj_7"))).To(BeFalse())

		primary.addThread("proj_7")

		Expect(router.Route(ctx, makeEvent(events.FileUploaded, "proj_7"))).To(BeTrue())
		Expect(router.Route(ctx, makeEvent(events.KnowledgeSearch, "proj_7"))).To(BeTrue())

		entries := primary.entriesFor("proj_7")
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].EventType).To(Equal(thread.TypeFileOperation))
		Expect(entries[1].EventType).To(Equal(thread.TypeSearchOperation))
	})
})

var _ = Describe("ThreadEventType", func() {
	It("maps every capture type into the thread vocabulary", func() {
		expected := map[events.EventType]thread.Type{
			events.ProjectCreated:          thread.TypeProjectManagement,
			events.ProjectUpdated:          thread.TypeProjectManagement,
			events.ProjectDeleted:          thread.TypeProjectManagement,
			events.OntologyCreated:         thread.TypeOntologyChange,
			events.OntologyModified:        thread.TypeOntologyChange,
			events.OntologyDeleted:         thread.TypeOntologyChange,
			events.ClassCreated:            thread.TypeOntologyChange,
			events.ClassModified:           thread.TypeOntologyChange,
			events.ClassDeleted:            thread.TypeOntologyChange,
			events.FileUploaded:            thread.TypeFileOperation,
			events.FileDeleted:             thread.TypeFileOperation,
			events.FileProcessed:           thread.TypeFileOperation,
			events.WorkflowStarted:         thread.TypeWorkflowExecution,
			events.WorkflowCompleted:       thread.TypeWorkflowExecution,
			events.WorkflowFailed:          thread.TypeWorkflowExecution,
			events.DASQuestion:             thread.TypeDASInteraction,
			events.DASResponse:             thread.TypeDASInteraction,
			events.DASCommand:              thread.TypeDASInteraction,
			events.KnowledgeAssetCreated:   thread.TypeKnowledgeManagement,
			events.KnowledgeAssetUpdated:   thread.TypeKnowledgeManagement,
			events.KnowledgeAssetPublished: thread.TypeKnowledgeManagement,
			events.KnowledgeSearch:         thread.TypeSearchOperation,
			events.KnowledgeRAGQuery:       thread.TypeSearchOperation,
		}
		Expect(expected).To(HaveLen(len(events.All())))

		for capture, want := range expected {
			Expect(routing.ThreadEventType(capture)).To(Equal(want), string(capture))
		}
	})

	It("falls back to command for values outside the enumeration", func() {
		Expect(routing.ThreadEventType(events.EventType("bogus"))).To(Equal(thread.TypeCommand))
	})
})
