package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"

	"odras.app/odras/core/config"
	"odras.app/odras/internal/store"
)

// Result is one search hit over the knowledge base.
type Result struct {
	AssetID string  `json:"asset_id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score,omitempty"`
}

// Search performs full-text search over indexed knowledge assets.
type Search interface {
	Query(ctx context.Context, projectID, query string, limit int) ([]Result, error)
	Index(ctx context.Context, asset *store.KnowledgeAsset) error
}

type typesenseSearch struct {
	client     *typesense.Client
	collection string
	logger     *slog.Logger
}

// NewTypesenseSearch connects to Typesense and ensures the collection
// schema exists.
func NewTypesenseSearch(ctx context.Context, cfg config.TypesenseConfig, logger *slog.Logger) (Search, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
	)

	schema := &api.CollectionSchema{
		Name: cfg.Collection,
		Fields: []api.Field{
			{Name: "title", Type: "string"},
			{Name: "content", Type: "string"},
			{Name: "project_id", Type: "string", Facet: pointer.True()},
		},
	}
	if _, err := client.Collections().Create(ctx, schema); err != nil {
		// The collection usually exists already; anything else surfaces on
		// first query.
		logger.DebugContext(ctx, "typesense collection create", "error", err)
	}

	return &typesenseSearch{
		client:     client,
		collection: cfg.Collection,
		logger:     logger,
	}, nil
}

func (s *typesenseSearch) Query(ctx context.Context, projectID, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("title,content"),
		PerPage: pointer.Int(limit),
	}
	if projectID != "" {
		params.FilterBy = pointer.String("project_id:=" + projectID)
	}

	res, err := s.client.Collection(s.collection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("typesense search: %w", err)
	}

	var results []Result
	if res.Hits != nil {
		for _, hit := range *res.Hits {
			if hit.Document == nil {
				continue
			}
			doc := *hit.Document
			result := Result{
				AssetID: docString(doc, "id"),
				Title:   docString(doc, "title"),
				Snippet: docString(doc, "content"),
			}
			if len(result.Snippet) > 200 {
				result.Snippet = result.Snippet[:200]
			}
			results = append(results, result)
		}
	}
	return results, nil
}

func (s *typesenseSearch) Index(ctx context.Context, asset *store.KnowledgeAsset) error {
	doc := map[string]any{
		"id":         asset.ID,
		"title":      asset.Title,
		"content":    asset.Content,
		"project_id": asset.ProjectID,
	}
	if _, err := s.client.Collection(s.collection).Documents().Upsert(ctx, doc, &api.DocumentIndexParameters{}); err != nil {
		return fmt.Errorf("indexing asset %s: %w", asset.ID, err)
	}
	return nil
}

func docString(doc map[string]any, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}
