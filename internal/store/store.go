// Package store persists annotation results per image in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ironsheep/mask-annotations-mcp/internal/annotations"
)

// ErrNotFound is returned by Load and Delete for unknown image keys.
var ErrNotFound = errors.New("annotations not found")

// Store wraps the SQLite database connection with thread-safe access.
type Store struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// Open creates or opens the database at path and creates the schema.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// single connection so ":memory:" databases are shared
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS annotations (
		image_key TEXT PRIMARY KEY,
		bbox TEXT,
		brush TEXT,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_annotations_updated_at ON annotations(updated_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Save stores data under key, replacing what was there. Absent parts are
// stored as NULL.
func (s *Store) Save(key string, data *annotations.OutputAnnotationData) error {
	if data == nil {
		data = &annotations.OutputAnnotationData{}
	}
	bbox, err := encodePart(data.BBox)
	if err != nil {
		return fmt.Errorf("failed to encode boxes for %q: %w", key, err)
	}
	brush, err := encodePart(data.Brush)
	if err != nil {
		return fmt.Errorf("failed to encode brush for %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.conn.Exec(`
		INSERT INTO annotations (image_key, bbox, brush, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(image_key) DO UPDATE SET
			bbox = excluded.bbox,
			brush = excluded.brush,
			updated_at = excluded.updated_at
	`, key, bbox, brush, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save annotations: %w", err)
	}
	return nil
}

// Load returns the annotations stored under key.
func (s *Store) Load(key string) (*annotations.OutputAnnotationData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bbox, brush sql.NullString
	err := s.conn.QueryRow(`
		SELECT bbox, brush FROM annotations WHERE image_key = ?
	`, key).Scan(&bbox, &brush)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load annotations: %w", err)
	}

	out := &annotations.OutputAnnotationData{}
	if bbox.Valid {
		out.BBox = &annotations.BoxAnnotations{}
		if err := json.Unmarshal([]byte(bbox.String), out.BBox); err != nil {
			return nil, fmt.Errorf("corrupt boxes for %q: %w", key, err)
		}
	}
	if brush.Valid {
		out.Brush = &annotations.BrushAnnotations{}
		if err := json.Unmarshal([]byte(brush.String), out.Brush); err != nil {
			return nil, fmt.Errorf("corrupt brush for %q: %w", key, err)
		}
	}
	return out, nil
}

// Delete removes the annotations stored under key.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn.Exec(`DELETE FROM annotations WHERE image_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete annotations: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	return nil
}

// Keys returns every stored image key in ascending order.
func (s *Store) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(`SELECT image_key FROM annotations ORDER BY image_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// encodePart marshals v, returning NULL for a nil pointer.
func encodePart[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
