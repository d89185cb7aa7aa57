package middleware_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"odras.app/odras/internal/events"
	"odras.app/odras/internal/http/middleware"
	"odras.app/odras/internal/store"
)

// capturedCall records one dispatch into the capture service.
type capturedCall struct {
	Method    string // Service method family
	Operation string
	Actor     events.Actor
	ProjectID string
	Details   map[string]any
	ElapsedMS float64
}

// recordingService implements capture.Service by recording every call. It
// can also be told to panic, to prove the middleware boundary holds.
type recordingService struct {
	mu     sync.Mutex
	calls  []capturedCall
	panics bool
}

func (s *recordingService) record(method, op string, actor events.Actor, projectID string, details map[string]any, ms float64) bool {
	if s.panics {
		panic("capture service exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, capturedCall{
		Method: method, Operation: op, Actor: actor,
		ProjectID: projectID, Details: details, ElapsedMS: ms,
	})
	return true
}

func (s *recordingService) last() *capturedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	return &s.calls[len(s.calls)-1]
}

func (s *recordingService) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *recordingService) CaptureProjectOperation(_ context.Context, actor events.Actor, projectID, operation string, details map[string]any, ms float64) bool {
	return s.record("project", operation, actor, projectID, details, ms)
}

func (s *recordingService) CaptureOntologyOperation(_ context.Context, actor events.Actor, projectID, operation string, details map[string]any, ms float64) bool {
	return s.record("ontology", operation, actor, projectID, details, ms)
}

func (s *recordingService) CaptureFileOperation(_ context.Context, actor events.Actor, projectID, operation string, details map[string]any, ms float64) bool {
	return s.record("file", operation, actor, projectID, details, ms)
}

func (s *recordingService) CaptureWorkflowOperation(_ context.Context, actor events.Actor, projectID, operation string, details map[string]any, ms float64) bool {
	return s.record("workflow", operation, actor, projectID, details, ms)
}

func (s *recordingService) CaptureDASInteraction(_ context.Context, actor events.Actor, projectID, interaction string, details map[string]any, ms float64) bool {
	return s.record("das", interaction, actor, projectID, details, ms)
}

func (s *recordingService) CaptureKnowledgeAssetCreated(_ context.Context, actor events.Actor, projectID string, details map[string]any, ms float64) bool {
	return s.record("knowledge", "asset_created", actor, projectID, details, ms)
}

func (s *recordingService) CaptureKnowledgeAssetUpdated(_ context.Context, actor events.Actor, projectID string, details map[string]any, ms float64) bool {
	return s.record("knowledge", "asset_updated", actor, projectID, details, ms)
}

func (s *recordingService) CaptureKnowledgeAssetPublished(_ context.Context, actor events.Actor, projectID string, details map[string]any, ms float64) bool {
	return s.record("knowledge", "asset_published", actor, projectID, details, ms)
}

func (s *recordingService) CaptureKnowledgeSearch(_ context.Context, actor events.Actor, projectID string, details map[string]any, ms float64) bool {
	return s.record("knowledge", "search", actor, projectID, details, ms)
}

func (s *recordingService) CaptureRAGQuery(_ context.Context, actor events.Actor, projectID string, details map[string]any, ms float64) bool {
	return s.record("knowledge", "rag_query", actor, projectID, details, ms)
}

type fakeUserStore struct {
	users map[string]*store.User
}

func (f *fakeUserStore) GetByToken(_ context.Context, token string) (*store.User, error) {
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

var _ = Describe("EventCapture", func() {
	var (
		router *gin.Engine
		svc    *recordingService
	)

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		svc = &recordingService{}
		users := &fakeUserStore{users: map[string]*store.User{
			"tok-alice": {ID: "u1", Username: "alice"},
		}}

		router = gin.New()
		router.Use(middleware.OptionalAuth(users))
		router.Use(middleware.EventCapture(svc, middleware.NewTable(middleware.DefaultPatterns()), nil))
	})

	It("captures a successful matching request", func() {
		router.POST("/api/projects", func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{"project_id": "proj_1", "name": "UAV Fleet"})
		})

		w := do("POST", "/api/projects", "tok-alice", `{"name":"UAV Fleet"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		call := svc.last()
		Expect(call).NotTo(BeNil())
		Expect(call.Method).To(Equal("project"))
		Expect(call.Operation).To(Equal("created"))
		Expect(call.Actor.Username).To(Equal("alice"))
		Expect(call.ProjectID).To(Equal("proj_1"))
		Expect(call.Details).To(HaveKeyWithValue("name", "UAV Fleet"))
		Expect(call.ElapsedMS).To(BeNumerically(">=", 0))
	})

	It("skips failed requests", func() {
		router.POST("/api/projects", func(c *gin.Context) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		})

		do("POST", "/api/projects", "tok-alice", `{}`)
		Expect(svc.count()).To(BeZero())
	})

	It("captures 204 responses", func() {
		router.DELETE("/api/projects/:project_id", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		do("DELETE", "/api/projects/proj_1", "tok-alice", "")

		call := svc.last()
		Expect(call).NotTo(BeNil())
		Expect(call.Operation).To(Equal("deleted"))
		Expect(call.ProjectID).To(Equal("proj_1"))
	})

	It("skips unauthenticated requests", func() {
		router.POST("/api/projects", func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{"project_id": "proj_1"})
		})

		w := do("POST", "/api/projects", "", `{"name":"x"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(svc.count()).To(BeZero())
	})

	It("skips requests with an unknown token", func() {
		router.POST("/api/projects", func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{"project_id": "proj_1"})
		})

		do("POST", "/api/projects", "tok-mallory", `{"name":"x"}`)
		Expect(svc.count()).To(BeZero())
	})

	It("skips non-matching routes", func() {
		router.GET("/api/projects/:project_id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"project_id": "proj_1"})
		})

		do("GET", "/api/projects/proj_1", "tok-alice", "")
		Expect(svc.count()).To(BeZero())
	})

	It("leaves the request body readable for the handler", func() {
		var seen string
		router.POST("/api/knowledge/search", func(c *gin.Context) {
			var body struct {
				Query string `json:"query"`
			}
			Expect(c.ShouldBindJSON(&body)).To(Succeed())
			seen = body.Query
			c.JSON(http.StatusOK, gin.H{"results_count": 0, "results": []any{}, "sources": []string{}})
		})

		do("POST", "/api/knowledge/search", "tok-alice", `{"query":"requirements"}`)
		Expect(seen).To(Equal("requirements"))
	})

	It("enriches search captures from the response body", func() {
		router.POST("/api/knowledge/search", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"results_count": 2,
				"results":       []any{gin.H{}, gin.H{}},
				"sources":       []string{"Spec", "Design"},
			})
		})

		do("POST", "/api/knowledge/search", "tok-alice", `{"query":"x","project_id":"proj_1"}`)

		call := svc.last()
		Expect(call).NotTo(BeNil())
		Expect(call.Operation).To(Equal("search"))
		Expect(call.ProjectID).To(Equal("proj_1"))
		Expect(call.Details).To(HaveKeyWithValue("results_count", float64(2)))
		Expect(call.Details).To(HaveKey("sources"))
	})

	It("enriches upload captures with response metadata", func() {
		router.POST("/api/files/upload", func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{
				"file_id":      "file_1",
				"project_id":   "proj_1",
				"filename":     "spec.pdf",
				"size":         2500000,
				"content_type": "application/pdf",
			})
		})

		// Multipart request bodies do not decode as JSON; the capture
		// details come from the response instead.
		do("POST", "/api/files/upload", "tok-alice", "")

		call := svc.last()
		Expect(call).NotTo(BeNil())
		Expect(call.Method).To(Equal("file"))
		Expect(call.Details).To(HaveKeyWithValue("filename", "spec.pdf"))
		Expect(call.Details).To(HaveKeyWithValue("size", float64(2500000)))
		Expect(call.ProjectID).To(Equal("proj_1"))
	})

	It("never fails the response when the capture service panics", func() {
		svc.panics = true
		router.POST("/api/projects", func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{"project_id": "proj_1"})
		})

		w := do("POST", "/api/projects", "tok-alice", `{"name":"x"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Body.String()).To(ContainSubstring("proj_1"))
	})
})
