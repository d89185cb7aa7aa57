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

// File is upload metadata; blob storage is owned by an external collaborator.
type File struct {
	ID          string
	ProjectID   string
	Filename    string
	Size        int64
	ContentType string
	UploadedBy  string
	CreatedAt   time.Time
}

type FileStore interface {
	Create(ctx context.Context, file *File) (*File, error)
	GetByID(ctx context.Context, fileID string) (*File, error)
	Delete(ctx context.Context, fileID string) error
}

type fileStore struct {
	pool *pgxpool.Pool
}

func NewFileStore(pool *pgxpool.Pool) FileStore {
	return &fileStore{pool: pool}
}

func (s *fileStore) Create(ctx context.Context, file *File) (*File, error) {
	file.ID = fmt.Sprintf("file_%d", id.New())
	file.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO files (id, project_id, filename, size, content_type, uploaded_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		file.ID, file.ProjectID, file.Filename, file.Size, file.ContentType,
		file.UploadedBy, file.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating file record: %w", err)
	}
	return file, nil
}

func (s *fileStore) GetByID(ctx context.Context, fileID string) (*File, error) {
	var f File
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, filename, size, content_type, uploaded_by, created_at
		   FROM files WHERE id = $1`,
		fileID,
	).Scan(&f.ID, &f.ProjectID, &f.Filename, &f.Size, &f.ContentType, &f.UploadedBy, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching file %s: %w", fileID, err)
	}
	return &f, nil
}

func (s *fileStore) Delete(ctx context.Context, fileID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("deleting file %s: %w", fileID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
