// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists past searches and their resolved documents in a
// local SQLite database, so earlier results can be reviewed without
// re-querying the API.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/patent-scout/pkg/types"
)

const dbFile = "patent-scout.db"

// Store manages the search-history SQLite database.
type Store struct {
	db         *sql.DB
	maxEntries int
}

// Entry is one recorded search.
type Entry struct {
	ID        int64
	Query     string
	Range     types.Range
	Total     int
	Returned  int
	CreatedAt time.Time
}

// NewStore opens or creates the history database at historyDir/patent-scout.db,
// creating the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.HistoryDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(cfg.HistoryDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 20
	}

	s := &Store{db: db, maxEntries: maxEntries}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			range_begin INTEGER NOT NULL,
			range_end INTEGER NOT NULL,
			total INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			search_id INTEGER NOT NULL REFERENCES searches(id),
			doc_id TEXT NOT NULL,
			title TEXT,
			abstract TEXT,
			applicants TEXT,
			published TEXT,
			enrich_failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_search ON documents(search_id)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_doc_id ON documents(doc_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a successful search and its documents. Failed searches are
// not recorded.
func (s *Store) Record(ctx context.Context, result types.SearchResult) (int64, error) {
	if !result.Success {
		return 0, fmt.Errorf("refusing to record a failed search")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO searches (query, range_begin, range_end, total, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		result.Query, result.Range.Begin, result.Range.End, result.Total,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("inserting search: %w", err)
	}
	searchID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading search id: %w", err)
	}

	for _, doc := range result.Docs {
		failed := 0
		if doc.EnrichFailed {
			failed = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO documents (search_id, doc_id, title, abstract, applicants, published, enrich_failed)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			searchID, doc.ID.String(), doc.Title, doc.Abstract,
			strings.Join(doc.Applicants, "; "), doc.PublicationDate, failed)
		if err != nil {
			return 0, fmt.Errorf("inserting document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return searchID, nil
}

// Recent returns the most recent searches, newest first. limit <= 0 uses
// the configured default.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxEntries
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.query, s.range_begin, s.range_end, s.total, s.created_at,
		        (SELECT COUNT(*) FROM documents d WHERE d.search_id = s.id)
		 FROM searches s ORDER BY s.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying searches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Query, &e.Range.Begin, &e.Range.End,
			&e.Total, &createdAt, &e.Returned); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// FindDocument returns previously recorded copies of a document, newest
// first. An empty result means the id has never been seen.
func (s *Store) FindDocument(ctx context.Context, id types.DocumentID) ([]types.PatentDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, title, abstract, applicants, published, enrich_failed
		 FROM documents WHERE doc_id = ? ORDER BY search_id DESC`, id.String())
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []types.PatentDocument
	for rows.Next() {
		var doc types.PatentDocument
		var docID, applicants string
		var failed int
		if err := rows.Scan(&docID, &doc.Title, &doc.Abstract, &applicants,
			&doc.PublicationDate, &failed); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		if parsed, ok := types.ParseDocumentID(docID); ok {
			doc.ID = parsed
		}
		if applicants != "" {
			doc.Applicants = strings.Split(applicants, "; ")
		}
		doc.EnrichFailed = failed != 0
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
