package thread

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"odras.app/odras/common/id"
)

// PostgresStore keeps project threads in Postgres. It backs the primary
// consumer engine.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var (
	_ Manager      = (*PostgresStore)(nil)
	_ Bootstrapper = (*PostgresStore)(nil)
	_ Reader       = (*PostgresStore)(nil)
)

func (s *PostgresStore) GetThread(ctx context.Context, projectID string) (*Thread, error) {
	var th Thread
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, created_at FROM project_threads WHERE project_id = $1`,
		projectID,
	).Scan(&th.ID, &th.ProjectID, &th.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching thread for project %s: %w", projectID, err)
	}
	return &th, nil
}

func (s *PostgresStore) AppendEvent(ctx context.Context, th *Thread, entry Entry) error {
	data, err := json.Marshal(entry.Data)
	if err != nil {
		return fmt.Errorf("encoding thread entry data: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO project_thread_events
		   (id, thread_id, project_id, actor_id, event_type, summary, data, captured_by, captured_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id.New(), th.ID, th.ProjectID, entry.ActorID, string(entry.EventType),
		entry.Summary, data, entry.CapturedBy, entry.CapturedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("appending event to thread %s: %w", th.ID, err)
	}
	return nil
}

func (s *PostgresStore) CreateThread(ctx context.Context, projectID string) (*Thread, error) {
	if _, err := s.GetThread(ctx, projectID); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	th := &Thread{
		ID:        fmt.Sprintf("thread_%d", id.New()),
		ProjectID: projectID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO project_threads (id, project_id, created_at) VALUES ($1, $2, $3)`,
		th.ID, th.ProjectID, th.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating thread for project %s: %w", projectID, err)
	}
	return th, nil
}

func (s *PostgresStore) RecentEvents(ctx context.Context, projectID string, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, thread_id, project_id, actor_id, event_type, summary, data, captured_by, captured_at, created_at
		   FROM project_thread_events
		  WHERE project_id = $1
		  ORDER BY created_at DESC
		  LIMIT $2`,
		projectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing thread events for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry Entry
			data  []byte
		)
		if err := rows.Scan(&entry.ID, &entry.ThreadID, &entry.ProjectID, &entry.ActorID,
			&entry.EventType, &entry.Summary, &data, &entry.CapturedBy,
			&entry.CapturedAt, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning thread event: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &entry.Data); err != nil {
				return nil, fmt.Errorf("decoding thread entry data: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating thread events: %w", err)
	}
	return entries, nil
}
