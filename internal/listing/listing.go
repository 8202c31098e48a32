package listing

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Options control which rows a Lister returns and how they are ordered.
type Options struct {
	// Pattern is a doublestar glob matched against file names. Empty matches all.
	Pattern string
	// OrderBy is one of "", "name", "size" or "modified".
	OrderBy string
}

// Row is one projected fs_list row. Timestamps are NULL when the platform
// could not provide them.
type Row struct {
	Path      string
	FileName  string
	Extension string
	IsDir     bool
	IsFile    bool
	IsSymLink bool
	Readonly  bool
	Bytes     int64
	Created   sql.NullString
	Modified  sql.NullString
	Accessed  sql.NullString
}

type rowDocument struct {
	Path      string  `json:"path"`
	FileName  string  `json:"file_name"`
	Extension string  `json:"extension"`
	IsDir     bool    `json:"is_dir"`
	IsFile    bool    `json:"is_file"`
	IsSymLink bool    `json:"is_sym_link"`
	Readonly  bool    `json:"readonly"`
	Bytes     int64   `json:"bytes"`
	Created   *string `json:"created"`
	Modified  *string `json:"modified"`
	Accessed  *string `json:"accessed"`
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func (r Row) document() rowDocument {
	return rowDocument{
		Path:      r.Path,
		FileName:  r.FileName,
		Extension: r.Extension,
		IsDir:     r.IsDir,
		IsFile:    r.IsFile,
		IsSymLink: r.IsSymLink,
		Readonly:  r.Readonly,
		Bytes:     r.Bytes,
		Created:   nullable(r.Created),
		Modified:  nullable(r.Modified),
		Accessed:  nullable(r.Accessed),
	}
}

// MarshalJSON renders the row with snake_case keys and null for missing timestamps.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.document())
}

// Lister runs directory listings through the fs_list relation of a database
// opened with the sqlitefs driver.
type Lister struct {
	db      *sql.DB
	opts    Options
	logger  *slog.Logger
	targets []RowSyncTarget

	mu   sync.Mutex
	last map[string][]Row
}

// NewLister constructs a Lister over db.
func NewLister(db *sql.DB, opts Options, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lister{
		db:     db,
		opts:   opts,
		logger: logger,
		last:   make(map[string][]Row),
	}
}

// RegisterSyncTarget adds a consumer for row change sets produced by Sync and Watch.
func (l *Lister) RegisterSyncTarget(target RowSyncTarget) {
	if target == nil {
		return
	}
	l.targets = append(l.targets, target)
}

const listColumns = `path, file_name, extension, is_dir, is_file, is_sym_link, readonly, bytes, created, modified, accessed`

func (l *Lister) listQuery() (string, bool, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + listColumns + ` FROM fs_list WHERE input = ?`)
	withPattern := strings.TrimSpace(l.opts.Pattern) != ""
	if withPattern {
		b.WriteString(` AND fs_glob(?, file_name)`)
	}
	switch strings.ToLower(strings.TrimSpace(l.opts.OrderBy)) {
	case "":
	case "name":
		b.WriteString(` ORDER BY file_name`)
	case "size":
		b.WriteString(` ORDER BY bytes DESC, file_name`)
	case "modified":
		b.WriteString(` ORDER BY modified DESC, file_name`)
	default:
		return "", false, fmt.Errorf("unknown order %q (valid: name, size, modified)", l.opts.OrderBy)
	}
	return b.String(), withPattern, nil
}

// List returns the rows of dir.
func (l *Lister) List(ctx context.Context, dir string) ([]Row, error) {
	query, withPattern, err := l.listQuery()
	if err != nil {
		return nil, err
	}
	args := []any{dir}
	if withPattern {
		args = append(args, strings.TrimSpace(l.opts.Pattern))
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Path, &r.FileName, &r.Extension, &r.IsDir, &r.IsFile, &r.IsSymLink, &r.Readonly, &r.Bytes, &r.Created, &r.Modified, &r.Accessed); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	l.logger.Debug("Listed directory", "input", dir, "rows", len(result))
	return result, nil
}

// Query runs an arbitrary statement and returns its column names and raw values.
func (l *Lister) Query(ctx context.Context, query string, args ...any) ([]string, [][]any, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("query columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return cols, out, nil
}

// Sync lists dir, compares the result with the previous listing of the same
// directory and dispatches the difference to the registered targets. The
// listing becomes the new baseline only once every target accepted it.
func (l *Lister) Sync(ctx context.Context, dir string) (RowChangeSet, error) {
	current, err := l.List(ctx, dir)
	if err != nil {
		return RowChangeSet{}, err
	}

	l.mu.Lock()
	previous := l.last[dir]
	l.mu.Unlock()

	changes := DiffRows(previous, current)
	if changes.IsEmpty() {
		return changes, nil
	}

	l.logger.Info("Directory changed", "input", dir, "upserts", len(changes.Upserts), "deletions", len(changes.Deletions))
	if err := l.dispatchRowChanges(ctx, dir, changes); err != nil {
		// The previous listing stays the baseline so the next Sync resends these changes.
		return changes, err
	}

	l.mu.Lock()
	l.last[dir] = current
	l.mu.Unlock()
	return changes, nil
}

func (l *Lister) dispatchRowChanges(ctx context.Context, dir string, changes RowChangeSet) error {
	for _, target := range l.targets {
		if err := target.ApplyRowChanges(ctx, dir, changes); err != nil {
			return fmt.Errorf("apply row changes: %w", err)
		}
	}
	return nil
}
