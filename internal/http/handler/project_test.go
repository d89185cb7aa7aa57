package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"odras.app/odras/internal/http/handler"
	"odras.app/odras/internal/store"
)

var _ = Describe("ProjectHandler", func() {
	var (
		router   *gin.Engine
		projects *mockProjectStore
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		projects = &mockProjectStore{}
		h := handler.NewProjectHandler(projects)

		router = gin.New()
		router.POST("/api/projects", h.Create)
		router.GET("/api/projects/:project_id", h.Get)
		router.PUT("/api/projects/:project_id", h.Update)
		router.DELETE("/api/projects/:project_id", h.Delete)
	})

	It("creates a project and echoes its identity", func() {
		projects.createFn = func(_ context.Context, p *store.Project) (*store.Project, error) {
			p.ID = "proj_1"
			return p, nil
		}

		body, _ := json.Marshal(map[string]string{"name": "UAV Fleet"})
		req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["project_id"]).To(Equal("proj_1"))
		Expect(resp["name"]).To(Equal("UAV Fleet"))
	})

	It("rejects a create without a name", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for a missing project", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/projects/proj_9", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("returns 404 when updating a missing project", func() {
		projects.updateFn = func(_ context.Context, _ *store.Project) (*store.Project, error) {
			return nil, store.ErrNotFound
		}

		body, _ := json.Marshal(map[string]string{"name": "renamed"})
		req := httptest.NewRequest(http.MethodPut, "/api/projects/proj_9", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("deletes with 204", func() {
		req := httptest.NewRequest(http.MethodDelete, "/api/projects/proj_1", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusNoContent))
	})

	It("returns 500 when the store fails", func() {
		projects.deleteFn = func(_ context.Context, _ string) error {
			return errors.New("boom")
		}

		req := httptest.NewRequest(http.MethodDelete, "/api/projects/proj_1", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
