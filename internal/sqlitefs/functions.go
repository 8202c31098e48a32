package sqlitefs

import (
	"errors"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mattn/go-sqlite3"
)

var (
	errCreateFile = errors.New("could not create file")
	errCreateDir  = errors.New("could not create directory")
	errDeleteFile = errors.New("could not delete file")
)

type scalarFunc struct {
	name string
	impl any
}

var scalarFuncs = []scalarFunc{
	{"fs_exists", fsExists},
	{"fs_new", fsNew},
	{"fs_mk_dir", fsMkDir},
	{"fs_delete", fsDelete},
	{"fs_glob", fsGlob},
}

// RegisterFunctions installs the filesystem scalar functions on conn.
func RegisterFunctions(conn *sqlite3.SQLiteConn) error {
	for _, fn := range scalarFuncs {
		if err := conn.RegisterFunc(fn.name, fn.impl, true); err != nil {
			return fmt.Errorf("register %s: %w", fn.name, err)
		}
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func fsExists(path string) bool {
	return exists(path)
}

// fsNew creates path, truncating any existing file, and reports whether it exists afterwards.
func fsNew(path string) (bool, error) {
	f, err := os.Create(path)
	if err != nil {
		return false, errCreateFile
	}
	f.Close()
	return exists(path), nil
}

// fsMkDir creates a single directory level.
func fsMkDir(path string) (bool, error) {
	if err := os.Mkdir(path, 0o755); err != nil {
		return false, errCreateDir
	}
	return exists(path), nil
}

// fsDelete removes a file. A missing target is not an error.
func fsDelete(path string) (bool, error) {
	if !exists(path) {
		return false, nil
	}
	info, err := os.Lstat(path)
	if err != nil || info.IsDir() {
		return false, errDeleteFile
	}
	if err := os.Remove(path); err != nil {
		return false, errDeleteFile
	}
	return true, nil
}

func fsGlob(pattern, path string) (bool, error) {
	matched, err := doublestar.Match(pattern, path)
	if err != nil {
		return false, fmt.Errorf("fs_glob: %w", err)
	}
	return matched, nil
}
