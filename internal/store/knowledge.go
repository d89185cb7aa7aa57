package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"odras.app/odras/common/id"
)

type KnowledgeAsset struct {
	ID           string
	ProjectID    string
	Title        string
	Content      string
	DocumentType string
	IsPublished  bool
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type KnowledgeStore interface {
	Create(ctx context.Context, asset *KnowledgeAsset) (*KnowledgeAsset, error)
	GetByID(ctx context.Context, assetID string) (*KnowledgeAsset, error)
	Update(ctx context.Context, asset *KnowledgeAsset) (*KnowledgeAsset, error)
	Publish(ctx context.Context, assetID string) error
}

type knowledgeStore struct {
	pool *pgxpool.Pool
}

func NewKnowledgeStore(pool *pgxpool.Pool) KnowledgeStore {
	return &knowledgeStore{pool: pool}
}

func (s *knowledgeStore) Create(ctx context.Context, asset *KnowledgeAsset) (*KnowledgeAsset, error) {
	now := time.Now().UTC()
	asset.ID = fmt.Sprintf("asset_%d", id.New())
	asset.CreatedAt = now
	asset.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO knowledge_assets
		   (id, project_id, title, content, document_type, is_published, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		asset.ID, asset.ProjectID, asset.Title, asset.Content, asset.DocumentType,
		asset.IsPublished, asset.CreatedBy, asset.CreatedAt, asset.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge asset: %w", err)
	}
	return asset, nil
}

func (s *knowledgeStore) GetByID(ctx context.Context, assetID string) (*KnowledgeAsset, error) {
	var a KnowledgeAsset
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, title, content, document_type, is_published, created_by, created_at, updated_at
		   FROM knowledge_assets WHERE id = $1`,
		assetID,
	).Scan(&a.ID, &a.ProjectID, &a.Title, &a.Content, &a.DocumentType,
		&a.IsPublished, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching knowledge asset %s: %w", assetID, err)
	}
	return &a, nil
}

func (s *knowledgeStore) Update(ctx context.Context, asset *KnowledgeAsset) (*KnowledgeAsset, error) {
	asset.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE knowledge_assets SET title = $2, content = $3, document_type = $4, updated_at = $5
		  WHERE id = $1`,
		asset.ID, asset.Title, asset.Content, asset.DocumentType, asset.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("updating knowledge asset %s: %w", asset.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return asset, nil
}

func (s *knowledgeStore) Publish(ctx context.Context, assetID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE knowledge_assets SET is_published = TRUE, updated_at = $2 WHERE id = $1`,
		assetID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("publishing knowledge asset %s: %w", assetID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
