package session

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/marcboeker/go-duckdb"
)

// PreviewPage is one rendered page image belonging to a document in a batch.
// Src is a data URI ready for an <img> tag.
type PreviewPage struct {
	DocumentID string `json:"documentId" msgpack:"documentId"`
	PageNum    int    `json:"pageNum" msgpack:"pageNum"`
	Src        string `json:"src" msgpack:"src"`
}

// PreviewStoreOptions tunes the embedded database backing a preview store.
type PreviewStoreOptions struct {
	Threads     int
	MemoryLimit string
}

// PreviewStore spills rendered page previews to a temporary DuckDB file so a
// large multi-page batch does not pin hundreds of base64 PNGs in process
// memory. One store exists per batch and is removed when the batch is
// cleaned up.
type PreviewStore struct {
	db     *sql.DB
	dbPath string

	mu        sync.RWMutex
	pageCount int
}

// NewPreviewStore creates a preview store for the given batch in tempDir.
func NewPreviewStore(tempDir, batchID string) (*PreviewStore, error) {
	return NewPreviewStoreWithOptions(tempDir, batchID, PreviewStoreOptions{})
}

// NewPreviewStoreWithOptions creates a preview store with explicit database
// settings. Zero values fall back to conservative defaults suitable for
// container deployments.
func NewPreviewStoreWithOptions(tempDir, batchID string, opts PreviewStoreOptions) (*PreviewStore, error) {
	if opts.Threads <= 0 {
		opts.Threads = 2
	}
	if opts.MemoryLimit == "" {
		opts.MemoryLimit = "512MB"
	}

	dbPath := filepath.Join(tempDir, fmt.Sprintf("batch_%s.duckdb", batchID))

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit),
			fmt.Sprintf("PRAGMA threads=%d", opts.Threads),
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE previews (
			document_id VARCHAR NOT NULL,
			page_num    INTEGER NOT NULL,
			src         VARCHAR NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &PreviewStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// AddPreviews appends the rendered pages of one document using the native
// Appender API. Page numbers are 1-based in document order.
func (ps *PreviewStore) AddPreviews(documentID string, srcs []string) error {
	if len(srcs) == 0 {
		return nil
	}

	conn, err := ps.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "previews")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for i, src := range srcs {
			if err := appender.AppendRow(documentID, int32(i+1), src); err != nil {
				return fmt.Errorf("failed to append page %d: %w", i+1, err)
			}
		}

		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	ps.mu.Lock()
	ps.pageCount += len(srcs)
	ps.mu.Unlock()

	return nil
}

// GetPreviews returns one page window of a document's previews plus the
// document's total page count. offset is 0-based; limit <= 0 means all
// remaining pages.
func (ps *PreviewStore) GetPreviews(documentID string, offset, limit int) ([]PreviewPage, int, error) {
	var total int
	err := ps.db.QueryRow(
		"SELECT COUNT(*) FROM previews WHERE document_id = ?", documentID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count previews: %w", err)
	}

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = total
	}

	rows, err := ps.db.Query(`
		SELECT document_id, page_num, src
		FROM previews
		WHERE document_id = ?
		ORDER BY page_num
		LIMIT ? OFFSET ?
	`, documentID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query previews: %w", err)
	}
	defer rows.Close()

	pages := make([]PreviewPage, 0, limit)
	for rows.Next() {
		var p PreviewPage
		if err := rows.Scan(&p.DocumentID, &p.PageNum, &p.Src); err != nil {
			return nil, 0, fmt.Errorf("failed to scan preview row: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return pages, total, nil
}

// Len returns the total number of stored pages across all documents.
func (ps *PreviewStore) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.pageCount
}

// Close closes the database and removes the underlying file.
func (ps *PreviewStore) Close() error {
	var err error
	if ps.db != nil {
		err = ps.db.Close()
	}
	if ps.dbPath != "" {
		os.Remove(ps.dbPath)
	}
	return err
}
