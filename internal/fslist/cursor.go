package fslist

import (
	"fmt"
	"io/fs"
	"log/slog"
	"time"
)

const (
	// LegacyTimeLayout renders timestamps as "2024-0315 09:30:00". Month and day
	// are joined without a separator; existing consumers parse that shape.
	LegacyTimeLayout = "2006-0102 15:04:05"
	// ISOTimeLayout renders timestamps as "2024-03-15 09:30:00".
	ISOTimeLayout = "2006-01-02 15:04:05"
)

// Options control how a cursor renders its rows.
type Options struct {
	// TimeLayout is the time.Format layout for timestamp columns. Empty means
	// LegacyTimeLayout.
	TimeLayout string
	// Location is the zone timestamps are rendered in. Nil means time.Local.
	Location *time.Location
}

func (o Options) layout() string {
	if o.TimeLayout == "" {
		return LegacyTimeLayout
	}
	return o.TimeLayout
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// Cursor iterates a snapshot of one directory. It is not safe for concurrent
// use; the engine drives each cursor serially.
type Cursor struct {
	fs     FileSystem
	mapper *Mapper
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	input    string
	entries  []DirectoryEntry
	filtered bool
	pos      int
	skipped  int
}

// NewCursor returns an unfiltered cursor reading from filesystem.
func NewCursor(filesystem FileSystem, opts Options, logger *slog.Logger) *Cursor {
	if filesystem == nil {
		filesystem = OSFileSystem{}
	}
	return &Cursor{
		fs:     filesystem,
		mapper: NewMapper(filesystem, logger),
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Mapper exposes the cursor's metadata mapper so callers can tune it.
func (c *Cursor) Mapper() *Mapper {
	return c.mapper
}

// SetClock overrides the source of the scan time used for degraded entries.
func (c *Cursor) SetClock(now func() time.Time) {
	if now == nil {
		c.now = time.Now
		return
	}
	c.now = now
}

// Filter discards any previous snapshot and lists the directory named by
// args[0]. On failure the cursor is left without a snapshot.
func (c *Cursor) Filter(args []any) error {
	c.reset()

	if len(args) == 0 {
		return newArgumentError("filter", "missing path argument")
	}
	path, err := pathArgument(args[0])
	if err != nil {
		return err
	}

	scanTime := c.now()
	var entries []DirectoryEntry
	skipped := 0
	err = c.fs.ReadDir(path, func(entry fs.DirEntry, entryErr error) {
		if entryErr != nil || entry == nil {
			skipped++
			c.loggerOrDefault().Debug("Skipping unreadable directory entry", "input", path, "error", entryErr)
			return
		}
		entries = append(entries, c.mapper.Map(path, entry, scanTime))
	})
	if err != nil {
		return newDirectoryOpenError(path, err)
	}

	c.input = path
	c.entries = entries
	c.filtered = true
	c.skipped = skipped
	c.loggerOrDefault().Debug("Listed directory", "input", path, "entries", len(entries), "skipped", skipped)
	return nil
}

func pathArgument(v any) (string, error) {
	switch p := v.(type) {
	case string:
		return p, nil
	case []byte:
		return string(p), nil
	case nil:
		return "", newArgumentError("filter", "missing path argument")
	default:
		return "", newArgumentError("filter", fmt.Sprintf("path must be text, got %T", v))
	}
}

func (c *Cursor) reset() {
	c.input = ""
	c.entries = nil
	c.filtered = false
	c.pos = 0
	c.skipped = 0
}

// Next advances to the following row. It is a no-op once the snapshot is exhausted.
func (c *Cursor) Next() {
	if c.pos < len(c.entries) {
		c.pos++
	}
}

// EOF reports whether there is no current row.
func (c *Cursor) EOF() bool {
	return !c.filtered || c.pos >= len(c.entries)
}

// Rowid is the position of the current row within this filter pass.
func (c *Cursor) Rowid() int64 {
	return int64(c.pos)
}

// Len is the number of rows in the current snapshot.
func (c *Cursor) Len() int {
	return len(c.entries)
}

// Skipped is the number of entries dropped because enumeration failed on them.
func (c *Cursor) Skipped() int {
	return c.skipped
}

// Input is the directory argument of the last successful Filter.
func (c *Cursor) Input() string {
	return c.input
}

// Entry returns the current row.
func (c *Cursor) Entry() (DirectoryEntry, error) {
	if !c.filtered {
		return DirectoryEntry{}, newCursorStateError("column", "cursor has not been filtered")
	}
	if c.pos >= len(c.entries) {
		return DirectoryEntry{}, newCursorStateError("column", "cursor is past the last row")
	}
	return c.entries[c.pos], nil
}

// Column projects column i of the current row. Values are string, bool, int64
// or nil for NULL.
func (c *Cursor) Column(i int) (any, error) {
	col := Column(i)
	if !col.Valid() {
		return nil, newArgumentError("column", fmt.Sprintf("no such column index %d", i))
	}
	entry, err := c.Entry()
	if err != nil {
		return nil, err
	}

	switch col {
	case ColumnPath:
		return entry.Path, nil
	case ColumnIsDir:
		return entry.IsDir, nil
	case ColumnBytes:
		return entry.Bytes, nil
	case ColumnIsFile:
		return entry.IsFile, nil
	case ColumnCreated:
		return c.formatTime(entry.Created), nil
	case ColumnModified:
		return c.formatTime(entry.Modified), nil
	case ColumnAccessed:
		return c.formatTime(entry.Accessed), nil
	case ColumnIsSymLink:
		return entry.IsSymLink, nil
	case ColumnReadonly:
		return entry.Readonly, nil
	case ColumnExtension:
		return entry.Extension, nil
	case ColumnFileName:
		return entry.FileName, nil
	case ColumnInput:
		return c.input, nil
	}
	return nil, newArgumentError("column", fmt.Sprintf("no such column index %d", i))
}

func (c *Cursor) formatTime(ts Timestamp) any {
	if !ts.Valid() {
		return nil
	}
	return ts.Time.In(c.opts.location()).Format(c.opts.layout())
}

func (c *Cursor) loggerOrDefault() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}
