package thread

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/arangodb/shared"
	"github.com/arangodb/go-driver/v2/connection"

	"odras.app/odras/common/id"
)

const (
	threadCollection      = "project_threads"
	threadEventCollection = "project_thread_events"
)

// ArangoConfig configures the fallback engine's thread store.
type ArangoConfig struct {
	URL      string
	Username string
	Password string
	Database string
}

func (c ArangoConfig) Enabled() bool {
	return c.URL != "" && c.Database != ""
}

// ArangoStore keeps project threads in ArangoDB document collections. It
// backs the fallback consumer engine.
type ArangoStore struct {
	db arangodb.Database
}

var (
	_ Manager      = (*ArangoStore)(nil)
	_ Bootstrapper = (*ArangoStore)(nil)
)

type arangoThread struct {
	Key       string    `json:"_key"`
	ThreadID  string    `json:"thread_id"`
	ProjectID string    `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

type arangoEntry struct {
	Key        string         `json:"_key"`
	ThreadID   string         `json:"thread_id"`
	ProjectID  string         `json:"project_id"`
	ActorID    string         `json:"actor_id"`
	EventType  string         `json:"event_type"`
	Summary    string         `json:"summary"`
	Data       map[string]any `json:"data,omitempty"`
	CapturedBy string         `json:"captured_by"`
	CapturedAt time.Time      `json:"captured_at"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewArangoStore connects and ensures the database and collections exist.
func NewArangoStore(ctx context.Context, cfg ArangoConfig) (*ArangoStore, error) {
	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	conn := connection.NewHttp2Connection(connection.DefaultHTTP2ConfigurationWrapper(endpoint, true))

	auth := connection.NewBasicAuth(cfg.Username, cfg.Password)
	if err := conn.SetAuthentication(auth); err != nil {
		return nil, fmt.Errorf("arangodb auth: %w", err)
	}

	client := arangodb.NewClient(conn)

	exists, err := client.DatabaseExists(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("check database exists: %w", err)
	}
	if !exists {
		if _, err := client.CreateDatabase(ctx, cfg.Database, nil); err != nil {
			return nil, fmt.Errorf("create database: %w", err)
		}
		slog.InfoContext(ctx, "arangodb database created", "database", cfg.Database)
	}

	db, err := client.GetDatabase(ctx, cfg.Database, nil)
	if err != nil {
		return nil, fmt.Errorf("get database: %w", err)
	}

	store := &ArangoStore{db: db}
	for _, name := range []string{threadCollection, threadEventCollection} {
		if err := store.ensureCollection(ctx, name); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (s *ArangoStore) ensureCollection(ctx context.Context, name string) error {
	exists, err := s.db.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s exists: %w", name, err)
	}
	if !exists {
		colType := arangodb.CollectionTypeDocument
		props := &arangodb.CreateCollectionPropertiesV2{Type: &colType}
		if _, err := s.db.CreateCollectionV2(ctx, name, props); err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
		slog.InfoContext(ctx, "arangodb collection created", "collection", name)
	}
	return nil
}

func (s *ArangoStore) GetThread(ctx context.Context, projectID string) (*Thread, error) {
	col, err := s.db.GetCollection(ctx, threadCollection, nil)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", threadCollection, err)
	}

	var doc arangoThread
	if _, err := col.ReadDocument(ctx, projectID, &doc); err != nil {
		if shared.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading thread for project %s: %w", projectID, err)
	}

	return &Thread{
		ID:        doc.ThreadID,
		ProjectID: doc.ProjectID,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (s *ArangoStore) AppendEvent(ctx context.Context, th *Thread, entry Entry) error {
	col, err := s.db.GetCollection(ctx, threadEventCollection, nil)
	if err != nil {
		return fmt.Errorf("get collection %s: %w", threadEventCollection, err)
	}

	doc := arangoEntry{
		Key:        fmt.Sprintf("%d", id.New()),
		ThreadID:   th.ID,
		ProjectID:  th.ProjectID,
		ActorID:    entry.ActorID,
		EventType:  string(entry.EventType),
		Summary:    entry.Summary,
		Data:       entry.Data,
		CapturedBy: entry.CapturedBy,
		CapturedAt: entry.CapturedAt,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := col.CreateDocument(ctx, doc); err != nil {
		return fmt.Errorf("appending event to thread %s: %w", th.ID, err)
	}
	return nil
}

func (s *ArangoStore) CreateThread(ctx context.Context, projectID string) (*Thread, error) {
	col, err := s.db.GetCollection(ctx, threadCollection, nil)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", threadCollection, err)
	}

	doc := arangoThread{
		Key:       projectID,
		ThreadID:  fmt.Sprintf("thread_%d", id.New()),
		ProjectID: projectID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := col.CreateDocument(ctx, doc); err != nil {
		if shared.IsConflict(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("creating thread for project %s: %w", projectID, err)
	}
	return &Thread{ID: doc.ThreadID, ProjectID: doc.ProjectID, CreatedAt: doc.CreatedAt}, nil
}
