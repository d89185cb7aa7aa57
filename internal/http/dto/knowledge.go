package dto

type CreateAssetRequest struct {
	ProjectID    string `json:"project_id" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Content      string `json:"content" binding:"required"`
	DocumentType string `json:"document_type"`
}

type UpdateAssetRequest struct {
	Title        string `json:"title" binding:"required"`
	Content      string `json:"content" binding:"required"`
	DocumentType string `json:"document_type"`
}

type AssetResponse struct {
	AssetID       string `json:"asset_id"`
	ProjectID     string `json:"project_id"`
	Title         string `json:"title"`
	DocumentType  string `json:"document_type,omitempty"`
	IsPublished   bool   `json:"is_published"`
	ChunksCreated int    `json:"chunks_created,omitempty"`
}

type SearchRequest struct {
	Query     string `json:"query" binding:"required"`
	ProjectID string `json:"project_id"`
	Limit     int    `json:"limit"`
}

type SearchResult struct {
	AssetID string  `json:"asset_id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score,omitempty"`
}

type SearchResponse struct {
	ResultsCount int            `json:"results_count"`
	Results      []SearchResult `json:"results"`
	Sources      []string       `json:"sources"`
}

type RAGQueryRequest struct {
	Question  string `json:"question" binding:"required"`
	ProjectID string `json:"project_id"`
}

type RAGQueryResponse struct {
	Answer      string   `json:"answer"`
	Confidence  string   `json:"confidence,omitempty"`
	ChunksFound int      `json:"chunks_found"`
	Sources     []string `json:"sources"`
}
