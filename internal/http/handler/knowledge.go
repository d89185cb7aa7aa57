package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"odras.app/odras/internal/das"
	"odras.app/odras/internal/http/dto"
	"odras.app/odras/internal/http/middleware"
	"odras.app/odras/internal/knowledge"
	"odras.app/odras/internal/store"
)

// chunkSize is the approximate segment length assets are split into for
// retrieval.
const chunkSize = 1000

type KnowledgeHandler struct {
	assets    store.KnowledgeStore
	search    knowledge.Search
	assistant *das.Assistant
}

func NewKnowledgeHandler(assets store.KnowledgeStore, search knowledge.Search, assistant *das.Assistant) *KnowledgeHandler {
	return &KnowledgeHandler{
		assets:    assets,
		search:    search,
		assistant: assistant,
	}
}

func (h *KnowledgeHandler) CreateAsset(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset := &store.KnowledgeAsset{
		ProjectID:    req.ProjectID,
		Title:        req.Title,
		Content:      req.Content,
		DocumentType: req.DocumentType,
	}
	if actor, ok := middleware.ActorFrom(ctx); ok {
		asset.CreatedBy = actor.UserID
	}

	created, err := h.assets.Create(ctx, asset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create knowledge asset", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create asset"})
		return
	}

	if h.search != nil {
		if err := h.search.Index(ctx, created); err != nil {
			slog.WarnContext(ctx, "failed to index knowledge asset",
				"asset_id", created.ID, "error", err)
		}
	}

	c.JSON(http.StatusCreated, dto.AssetResponse{
		AssetID:       created.ID,
		ProjectID:     created.ProjectID,
		Title:         created.Title,
		DocumentType:  created.DocumentType,
		IsPublished:   created.IsPublished,
		ChunksCreated: chunkCount(created.Content),
	})
}

func (h *KnowledgeHandler) UpdateAsset(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset := &store.KnowledgeAsset{
		ID:           c.Param("asset_id"),
		Title:        req.Title,
		Content:      req.Content,
		DocumentType: req.DocumentType,
	}

	updated, err := h.assets.Update(ctx, asset)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to update knowledge asset", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update asset"})
		return
	}

	if h.search != nil {
		if err := h.search.Index(ctx, updated); err != nil {
			slog.WarnContext(ctx, "failed to reindex knowledge asset",
				"asset_id", updated.ID, "error", err)
		}
	}

	c.JSON(http.StatusOK, dto.AssetResponse{
		AssetID:      updated.ID,
		ProjectID:    updated.ProjectID,
		Title:        updated.Title,
		DocumentType: updated.DocumentType,
		IsPublished:  updated.IsPublished,
	})
}

func (h *KnowledgeHandler) PublishAsset(c *gin.Context) {
	ctx := c.Request.Context()
	assetID := c.Param("asset_id")

	if err := h.assets.Publish(ctx, assetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to publish knowledge asset", "error", err, "asset_id", assetID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to publish asset"})
		return
	}

	asset, err := h.assets.GetByID(ctx, assetID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"asset_id": assetID, "is_published": true})
		return
	}

	c.JSON(http.StatusOK, dto.AssetResponse{
		AssetID:      asset.ID,
		ProjectID:    asset.ProjectID,
		Title:        asset.Title,
		DocumentType: asset.DocumentType,
		IsPublished:  asset.IsPublished,
	})
}

func (h *KnowledgeHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	hits, err := h.search.Query(ctx, req.ProjectID, req.Query, req.Limit)
	if err != nil {
		slog.ErrorContext(ctx, "knowledge search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	results := make([]dto.SearchResult, 0, len(hits))
	sources := make([]string, 0, len(hits))
	for _, hit := range hits {
		results = append(results, dto.SearchResult{
			AssetID: hit.AssetID,
			Title:   hit.Title,
			Snippet: hit.Snippet,
			Score:   hit.Score,
		})
		sources = append(sources, hit.Title)
	}

	c.JSON(http.StatusOK, dto.SearchResponse{
		ResultsCount: len(results),
		Results:      results,
		Sources:      sources,
	})
}

func (h *KnowledgeHandler) Query(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RAGQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant is not configured"})
		return
	}

	answer, err := h.assistant.Ask(ctx, req.ProjectID, req.Question)
	if err != nil {
		slog.ErrorContext(ctx, "rag query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, dto.RAGQueryResponse{
		Answer:      answer.Answer,
		Confidence:  answer.Confidence,
		ChunksFound: len(answer.Sources),
		Sources:     answer.Sources,
	})
}

func chunkCount(content string) int {
	if content == "" {
		return 0
	}
	return (len(content) + chunkSize - 1) / chunkSize
}
