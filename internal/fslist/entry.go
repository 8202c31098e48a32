package fslist

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// Timestamp is a time value whose lookup may have failed independently of the
// rest of the entry's metadata.
type Timestamp struct {
	Time time.Time
	Err  error
}

// Valid reports whether the timestamp was retrieved.
func (t Timestamp) Valid() bool {
	return t.Err == nil
}

func knownTime(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// DirectoryEntry is one row of a directory snapshot.
type DirectoryEntry struct {
	Path      string
	FileName  string
	Extension string

	IsDir     bool
	IsFile    bool
	IsSymLink bool
	Readonly  bool

	Bytes int64
	Mode  fs.FileMode

	Created  Timestamp
	Modified Timestamp
	Accessed Timestamp

	// Degraded is set when the metadata lookup failed and the record was
	// synthesized from defaults.
	Degraded bool
}

// TimesFunc resolves the creation and access times for a stat result.
type TimesFunc func(path string, info fs.FileInfo) (created, accessed Timestamp)

// Mapper converts enumerated directory entries into DirectoryEntry records.
// Map never fails; partial metadata loss is carried on the record.
type Mapper struct {
	fs     FileSystem
	times  TimesFunc
	logger *slog.Logger
}

// NewMapper builds a Mapper over filesystem using the platform timestamp lookups.
func NewMapper(filesystem FileSystem, logger *slog.Logger) *Mapper {
	if filesystem == nil {
		filesystem = OSFileSystem{}
	}
	return &Mapper{fs: filesystem, times: platformTimes, logger: logger}
}

// SetTimesFunc overrides how creation and access times are resolved.
func (m *Mapper) SetTimesFunc(fn TimesFunc) {
	if fn == nil {
		m.times = platformTimes
		return
	}
	m.times = fn
}

// Map builds the record for entry, which was listed from dir. scanTime is the
// fallback for every timestamp when the metadata lookup fails.
func (m *Mapper) Map(dir string, entry fs.DirEntry, scanTime time.Time) DirectoryEntry {
	name := entry.Name()
	path := joinEntryPath(dir, name)

	rec := DirectoryEntry{
		Path:      strings.ToValidUTF8(path, string(utf8.RuneError)),
		FileName:  fileName(name),
		Extension: extension(name),
	}

	info, err := m.fs.Stat(path)
	if err != nil {
		m.loggerOrDefault().Debug("Metadata unavailable, using defaults", "path", rec.Path, "error", err)
		return degraded(rec, scanTime)
	}

	rec.IsDir = info.IsDir()
	rec.IsFile = info.Mode().IsRegular()
	rec.IsSymLink = entry.Type()&fs.ModeSymlink != 0
	rec.Bytes = info.Size()
	rec.Mode = info.Mode()
	rec.Readonly = info.Mode().Perm()&0o222 == 0
	rec.Modified = knownTime(info.ModTime())
	rec.Created, rec.Accessed = m.times(path, info)
	return rec
}

// degraded fills rec with the defaults used when stat fails: no type flags,
// zero size, writable, and every timestamp set to scanTime.
func degraded(rec DirectoryEntry, scanTime time.Time) DirectoryEntry {
	rec.IsDir = false
	rec.IsFile = false
	rec.IsSymLink = false
	rec.Readonly = false
	rec.Bytes = 0
	rec.Mode = 0
	rec.Created = knownTime(scanTime)
	rec.Modified = knownTime(scanTime)
	rec.Accessed = knownTime(scanTime)
	rec.Degraded = true
	return rec
}

func (m *Mapper) loggerOrDefault() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return slog.Default()
}

// joinEntryPath appends name to dir without cleaning dir, so "./" stays a
// visible prefix of the result.
func joinEntryPath(dir, name string) string {
	if dir == "" {
		return name
	}
	if os.IsPathSeparator(dir[len(dir)-1]) {
		return dir + name
	}
	return dir + string(filepath.Separator) + name
}

func fileName(name string) string {
	base := name
	if i := strings.LastIndexFunc(base, isSeparatorRune); i >= 0 {
		base = base[i+1:]
	}
	if !utf8.ValidString(base) {
		return ""
	}
	return base
}

// extension returns the text after the last dot of the final path segment. A
// name whose only dot is the leading one has no extension.
func extension(name string) string {
	base := fileName(name)
	if base == "" || base == "." || base == ".." {
		return ""
	}
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return ""
	}
	return base[i+1:]
}

func isSeparatorRune(r rune) bool {
	return r < utf8.RuneSelf && os.IsPathSeparator(uint8(r))
}
