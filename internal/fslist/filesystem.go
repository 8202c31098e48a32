package fslist

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// readDirBatch is the number of entries requested per getdents round trip.
const readDirBatch = 256

// ErrNotDirectory is wrapped by ReadDir when the path exists but is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// FileSystem abstracts directory enumeration and metadata lookups so tests can
// provide in-memory implementations.
type FileSystem interface {
	// ReadDir opens name and calls fn once per enumerated entry, in the order the
	// filesystem yields them. A per-entry enumeration failure is reported as a
	// nil entry with a non-nil error. The returned error is non-nil only when the
	// directory itself could not be opened.
	ReadDir(name string, fn func(entry fs.DirEntry, err error)) error
	// Stat returns metadata for name, following symbolic links.
	Stat(name string) (fs.FileInfo, error)
}

// OSFileSystem implements FileSystem using the local OS filesystem.
type OSFileSystem struct{}

func (OSFileSystem) ReadDir(name string, fn func(entry fs.DirEntry, err error)) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "readdir", Path: name, Err: ErrNotDirectory}
	}

	for {
		entries, err := f.ReadDir(readDirBatch)
		for _, entry := range entries {
			fn(entry, nil)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// The stream cannot be resumed after a failed read.
			fn(nil, fmt.Errorf("read %s: %w", name, err))
			return nil
		}
		if len(entries) == 0 {
			return nil
		}
	}
}

func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}
