package sqlitefs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/leafo/fslist/internal/fslist"
)

// DriverName is the database/sql driver registered by OpenDatabase. Every
// connection opened through it carries the fs_list table and the fs_*
// scalar functions.
const DriverName = "sqlite3_fslist"

var registerDefault sync.Once

// Config controls the relation served on connections of a registered driver.
type Config struct {
	FileSystem fslist.FileSystem
	Options    fslist.Options
	Logger     *slog.Logger
}

// NewDriver returns a SQLite driver whose connections expose fs_list and the
// filesystem scalar functions.
func NewDriver(cfg Config) *sqlite3.SQLiteDriver {
	module := NewModule(cfg.FileSystem, cfg.Options, cfg.Logger)
	return &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.CreateModule(fslist.TableName, module); err != nil {
				return fmt.Errorf("create module %s: %w", fslist.TableName, err)
			}
			return RegisterFunctions(conn)
		},
	}
}

// Register makes a driver configured with cfg available to sql.Open under
// name. Like sql.Register it panics when name is already taken.
func Register(name string, cfg Config) {
	sql.Register(name, NewDriver(cfg))
}

// OpenDatabase opens a SQLite database at path through the default driver.
// ":memory:" opens a private in-memory database.
func OpenDatabase(ctx context.Context, path string) (*sql.DB, error) {
	registerDefault.Do(func() {
		Register(DriverName, Config{})
	})
	return openWithDriver(ctx, DriverName, path)
}

func openWithDriver(ctx context.Context, driver, path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// OpenDatabaseWithConfig registers a dedicated driver for cfg and opens path with it.
func OpenDatabaseWithConfig(ctx context.Context, path string, cfg Config) (*sql.DB, error) {
	name := nextDriverName()
	Register(name, cfg)
	return openWithDriver(ctx, name, path)
}

var (
	driverSeqMu sync.Mutex
	driverSeq   int
)

func nextDriverName() string {
	driverSeqMu.Lock()
	defer driverSeqMu.Unlock()
	driverSeq++
	return fmt.Sprintf("%s_%d", DriverName, driverSeq)
}
