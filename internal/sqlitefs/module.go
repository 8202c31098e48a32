package sqlitefs

import (
	"fmt"
	"log/slog"

	"github.com/mattn/go-sqlite3"

	"github.com/leafo/fslist/internal/fslist"
)

// Module serves the fs_list relation. It is eponymous-only: the table exists
// on every connection without CREATE VIRTUAL TABLE and is usable both as
// "FROM fs_list WHERE input = ?" and as the table-valued function fs_list(?).
type Module struct {
	fs     fslist.FileSystem
	opts   fslist.Options
	logger *slog.Logger
}

// NewModule builds the module. A nil filesystem means the OS filesystem.
func NewModule(filesystem fslist.FileSystem, opts fslist.Options, logger *slog.Logger) *Module {
	if filesystem == nil {
		filesystem = fslist.OSFileSystem{}
	}
	return &Module{fs: filesystem, opts: opts, logger: logger}
}

func (m *Module) EponymousOnlyModule() {}

func (m *Module) Create(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	return m.Connect(c, args)
}

func (m *Module) Connect(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	if err := c.DeclareVTab(fslist.CreateSQL); err != nil {
		return nil, fmt.Errorf("declare %s: %w", fslist.TableName, err)
	}
	return &table{conn: c, module: m}, nil
}

func (m *Module) DestroyModule() {}

func (m *Module) loggerOrDefault() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return slog.Default()
}

// table is the per-connection relation handle. The connection is owned by the
// driver; the table only keeps a reference to it.
type table struct {
	conn   *sqlite3.SQLiteConn
	module *Module
}

func (t *table) BestIndex(constraints []sqlite3.InfoConstraint, _ []sqlite3.InfoOrderBy) (*sqlite3.IndexResult, error) {
	offered := make([]fslist.Constraint, len(constraints))
	for i, c := range constraints {
		offered[i] = fslist.Constraint{Column: c.Column, Op: fslist.Op(c.Op), Usable: c.Usable}
	}

	plan, err := fslist.Negotiate(offered)
	if err != nil {
		t.module.loggerOrDefault().Debug("Rejected query plan", "error", err)
		return nil, err
	}

	// The driver numbers used constraints from argv slot 1 and marks them omitted.
	used := make([]bool, len(plan.Usage))
	for i, u := range plan.Usage {
		used[i] = u.ArgvIndex > 0
	}
	return &sqlite3.IndexResult{
		Used:          used,
		IdxNum:        plan.IdxNum,
		EstimatedCost: plan.EstimatedCost,
		EstimatedRows: float64(plan.EstimatedRows),
	}, nil
}

func (t *table) Disconnect() error {
	return nil
}

func (t *table) Destroy() error {
	return nil
}

func (t *table) Open() (sqlite3.VTabCursor, error) {
	return &cursor{c: fslist.NewCursor(t.module.fs, t.module.opts, t.module.logger)}, nil
}

type cursor struct {
	c *fslist.Cursor
}

func (c *cursor) Filter(_ int, _ string, vals []any) error {
	return c.c.Filter(vals)
}

func (c *cursor) Next() error {
	c.c.Next()
	return nil
}

func (c *cursor) EOF() bool {
	return c.c.EOF()
}

func (c *cursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	v, err := c.c.Column(col)
	if err != nil {
		return err
	}
	switch value := v.(type) {
	case nil:
		ctx.ResultNull()
	case string:
		ctx.ResultText(value)
	case bool:
		ctx.ResultBool(value)
	case int64:
		ctx.ResultInt64(value)
	default:
		return fmt.Errorf("%s: unexpected column value %T", fslist.TableName, v)
	}
	return nil
}

func (c *cursor) Rowid() (int64, error) {
	return c.c.Rowid(), nil
}

func (c *cursor) Close() error {
	return nil
}
