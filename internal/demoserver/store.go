package demoserver

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/raysh454/centinela/internal/logging"
	"github.com/raysh454/centinela/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// Record is one stored analysis.
type Record struct {
	ID string `json:"id"`
	model.AnalysisResult
	CanonicalURL string    `json:"canonical_url"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
}

// Store persists analyses in SQLite.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// OpenStore opens (or creates) the SQLite database at path.
func OpenStore(path string, logger logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening analysis database: %w", err)
	}
	// ":memory:" databases exist per connection.
	db.SetMaxOpenConns(1)

	s, err := NewStore(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore runs migrations from schema.sql against db.
func NewStore(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	return &Store{db: db, logger: logger.With(logging.Field{Key: "component", Value: "store"})}, nil
}

// Save inserts r, filling ID and AnalyzedAt when unset.
func (s *Store) Save(ctx context.Context, r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.AnalyzedAt.IsZero() {
		r.AnalyzedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO url_analysis (id, url, canonical_url, title, summary, score, label, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.URL, r.CanonicalURL, r.Title, r.Summary, r.Score, string(r.Label), r.AnalyzedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	s.logger.Debug("stored analysis", logging.Field{Key: "id", Value: r.ID}, logging.Field{Key: "url", Value: r.URL})
	return nil
}

// List returns up to limit analyses, newest first. A non-empty canonicalURL
// restricts the result to that page.
func (s *Store) List(ctx context.Context, canonicalURL string, limit int) ([]Record, error) {
	query := `SELECT id, url, canonical_url, title, summary, score, label, analyzed_at FROM url_analysis`
	args := []any{}
	if canonicalURL != "" {
		query += ` WHERE canonical_url = ?`
		args = append(args, canonicalURL)
	}
	query += ` ORDER BY analyzed_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var (
			r     Record
			label string
			nanos int64
		)
		if err := rows.Scan(&r.ID, &r.URL, &r.CanonicalURL, &r.Title, &r.Summary, &r.Score, &label, &nanos); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		r.Label = model.Label(label)
		r.AnalyzedAt = time.Unix(0, nanos).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
