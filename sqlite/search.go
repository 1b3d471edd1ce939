package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/fwojciec/docpkg"
)

// Compile-time interface verification.
var (
	_ docpkg.IndexStore    = (*SearchStore)(nil)
	_ docpkg.SearchService = (*SearchStore)(nil)
)

// DefaultSearchLimit caps results when SearchOptions.Limit is zero.
const DefaultSearchLimit = 10

// SearchStore persists generated indexes into SQLite and searches them
// with FTS5 ranked by bm25.
type SearchStore struct {
	db *DB

	// ReadBody returns the text indexed for a file. Defaults to reading the
	// file at its absolute path.
	ReadBody func(f *docpkg.FileEntry) (string, error)
}

// NewSearchStore creates a new SearchStore.
func NewSearchStore(db *DB) *SearchStore {
	return &SearchStore{db: db, ReadBody: readBody}
}

func readBody(f *docpkg.FileEntry) (string, error) {
	if f.AbsolutePath == "" {
		return "", nil
	}
	data, err := os.ReadFile(f.AbsolutePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveIndex replaces the stored index with idx.
func (s *SearchStore) SaveIndex(ctx context.Context, idx *docpkg.Index) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		"DELETE FROM files_fts",
		"DELETE FROM files",
		"DELETE FROM sources",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ('generated_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, idx.GeneratedAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	for _, src := range idx.Sources {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO sources (name, type, version, path) VALUES (?, ?, ?, ?)
		`, src.Name, src.Type, src.Version, src.Path); err != nil {
			return err
		}
	}

	for _, f := range idx.Files {
		if err := s.insertFile(ctx, tx, f); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SearchStore) insertFile(ctx context.Context, tx *sql.Tx, f *docpkg.FileEntry) error {
	entry, err := json.Marshal(f)
	if err != nil {
		return err
	}
	body, err := s.ReadBody(f)
	if err != nil {
		return err
	}
	tags := strings.Join(f.Tags, " ")

	res, err := tx.ExecContext(ctx, `
		INSERT INTO files (path, source, title, description, tags, entry)
		VALUES (?, ?, ?, ?, ?, ?)
	`, f.Path, f.Source, f.Title, f.Description, tags, string(entry))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO files_fts (rowid, title, description, tags, body) VALUES (?, ?, ?, ?, ?)
	`, id, f.Title, f.Description, tags, body)
	return err
}

// GeneratedAt returns the generation time of the stored index.
func (s *SearchStore) GeneratedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'generated_at'`).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, docpkg.Errorf(docpkg.ENOTFOUND, "no index stored")
	}
	if err != nil {
		return time.Time{}, err
	}
	return parseRFC3339(value, "generated_at")
}

// Search returns files matching every term of query, best match first.
func (s *SearchStore) Search(ctx context.Context, query string, opts docpkg.SearchOptions) ([]docpkg.SearchResult, error) {
	match := MatchQuery(query)
	if match == "" {
		return nil, docpkg.Errorf(docpkg.EINVALID, "search query required")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var q strings.Builder
	args := []any{match}
	q.WriteString(`
		SELECT f.entry, snippet(files_fts, 3, '[', ']', '...', 12), bm25(files_fts)
		FROM files_fts
		JOIN files f ON f.id = files_fts.rowid
		WHERE files_fts MATCH ?`)
	appendIn(&q, &args, " AND ", "f.source", opts.Sources)
	q.WriteString(" ORDER BY bm25(files_fts)")
	appendLimit(&q, &args, limit)

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []docpkg.SearchResult{}
	for rows.Next() {
		var entry, snippet string
		var rank float64
		if err := rows.Scan(&entry, &snippet, &rank); err != nil {
			return nil, err
		}
		var f docpkg.FileEntry
		if err := json.Unmarshal([]byte(entry), &f); err != nil {
			return nil, err
		}
		results = append(results, docpkg.SearchResult{
			File:    &f,
			Snippet: snippet,
			// bm25 is lower for better matches.
			Score: -rank,
		})
	}
	return results, rows.Err()
}
