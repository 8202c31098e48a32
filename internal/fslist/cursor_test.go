package fslist

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

type projectedRow struct {
	fileName  string
	extension string
	isDir     bool
	bytes     int64
}

func collectRows(t *testing.T, c *Cursor) []projectedRow {
	t.Helper()
	var rows []projectedRow
	for !c.EOF() {
		name := mustColumn(t, c, ColumnFileName).(string)
		ext := mustColumn(t, c, ColumnExtension).(string)
		isDir := mustColumn(t, c, ColumnIsDir).(bool)
		size := mustColumn(t, c, ColumnBytes).(int64)
		rows = append(rows, projectedRow{fileName: name, extension: ext, isDir: isDir, bytes: size})
		c.Next()
	}
	return rows
}

func mustColumn(t *testing.T, c *Cursor, col Column) any {
	t.Helper()
	v, err := c.Column(int(col))
	if err != nil {
		t.Fatalf("column %s: %v", col, err)
	}
	return v
}

func TestCursorListsDirectoryScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "0123456789")
	writeFile(t, filepath.Join(dir, "b"), "")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	c := NewCursor(OSFileSystem{}, Options{}, nil)
	if !c.EOF() {
		t.Fatalf("unfiltered cursor must report EOF")
	}
	if err := c.Filter([]any{dir + "/"}); err != nil {
		t.Fatalf("filter: %v", err)
	}

	rows := collectRows(t, c)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}

	byName := map[string]projectedRow{}
	for _, row := range rows {
		byName[row.fileName] = row
	}
	if got := byName["a.txt"]; got != (projectedRow{"a.txt", "txt", false, 10}) {
		t.Fatalf("unexpected a.txt row: %+v", got)
	}
	if got := byName["b"]; got != (projectedRow{"b", "", false, 0}) {
		t.Fatalf("unexpected b row: %+v", got)
	}
	if got := byName["sub"]; got.extension != "" || !got.isDir {
		t.Fatalf("unexpected sub row: %+v", got)
	}
}

func TestCursorFilterIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.go", "two.md", "three"} {
		writeFile(t, filepath.Join(dir, name), name)
	}

	c := NewCursor(OSFileSystem{}, Options{}, nil)
	project := func() [][]any {
		var out [][]any
		for !c.EOF() {
			var row []any
			for col := ColumnPath; col < columnCount; col++ {
				row = append(row, mustColumn(t, c, col))
			}
			out = append(out, row)
			c.Next()
		}
		return out
	}

	if err := c.Filter([]any{dir}); err != nil {
		t.Fatalf("first filter: %v", err)
	}
	first := project()
	if err := c.Filter([]any{dir}); err != nil {
		t.Fatalf("second filter: %v", err)
	}
	second := project()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical passes:\n%v\n%v", first, second)
	}
}

func TestCursorDirectoryOpenErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	writeFile(t, file, "x")

	for _, path := range []string{filepath.Join(dir, "missing"), file} {
		c := NewCursor(OSFileSystem{}, Options{}, nil)
		err := c.Filter([]any{path})
		if !errors.Is(err, KindDirectoryOpen) {
			t.Fatalf("expected directory open error for %s, got %v", path, err)
		}
		if !c.EOF() || c.Len() != 0 {
			t.Fatalf("failed filter must not leave a snapshot")
		}
	}
}

func TestCursorFailedFilterDiscardsPreviousSnapshot(t *testing.T) {
	mfs := newMapFileSystem(map[string]string{"d/a": "a"})
	c := NewCursor(mfs, Options{}, nil)
	if err := c.Filter([]any{"d"}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if c.EOF() {
		t.Fatalf("expected a row")
	}
	if err := c.Filter([]any{"nope"}); !errors.Is(err, KindDirectoryOpen) {
		t.Fatalf("expected directory open error, got %v", err)
	}
	if !c.EOF() {
		t.Fatalf("previous snapshot must be discarded")
	}
	if _, err := c.Column(int(ColumnPath)); !errors.Is(err, KindCursorState) {
		t.Fatalf("expected cursor state error, got %v", err)
	}
}

func TestCursorArgumentErrors(t *testing.T) {
	c := NewCursor(newMapFileSystem(nil), Options{}, nil)
	for _, args := range [][]any{nil, {nil}, {int64(3)}} {
		if err := c.Filter(args); !errors.Is(err, KindArgument) {
			t.Fatalf("expected argument error for %v, got %v", args, err)
		}
	}
}

func TestCursorAcceptsBlobPath(t *testing.T) {
	mfs := newMapFileSystem(map[string]string{"d/a": "a"})
	c := NewCursor(mfs, Options{}, nil)
	if err := c.Filter([]any{[]byte("d")}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", c.Len())
	}
}

func TestCursorColumnOutsideRow(t *testing.T) {
	mfs := newMapFileSystem(map[string]string{"d/a": "a"})
	c := NewCursor(mfs, Options{}, nil)

	if _, err := c.Column(int(ColumnPath)); !errors.Is(err, KindCursorState) {
		t.Fatalf("expected cursor state error before filter, got %v", err)
	}
	if err := c.Filter([]any{"d"}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if _, err := c.Column(99); !errors.Is(err, KindArgument) {
		t.Fatalf("expected argument error for unknown column, got %v", err)
	}

	c.Next()
	c.Next()
	if !c.EOF() {
		t.Fatalf("expected EOF")
	}
	if c.Rowid() != 1 {
		t.Fatalf("Next past end must not advance, rowid %d", c.Rowid())
	}
	if _, err := c.Column(int(ColumnInput)); !errors.Is(err, KindCursorState) {
		t.Fatalf("expected cursor state error after exhaustion, got %v", err)
	}
}

func TestCursorRowidAndInputEcho(t *testing.T) {
	mfs := newMapFileSystem(map[string]string{"d/a": "a", "d/b": "b"})
	c := NewCursor(mfs, Options{}, nil)
	if err := c.Filter([]any{"d/"}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	for want := int64(0); !c.EOF(); want++ {
		if c.Rowid() != want {
			t.Fatalf("expected rowid %d, got %d", want, c.Rowid())
		}
		if got := mustColumn(t, c, ColumnInput); got != "d/" {
			t.Fatalf("expected input echo, got %v", got)
		}
		path := mustColumn(t, c, ColumnPath).(string)
		if path != "d/a" && path != "d/b" {
			t.Fatalf("unexpected path %q", path)
		}
		c.Next()
	}
}

func TestCursorSkipsEnumerationErrorsButKeepsDegradedEntries(t *testing.T) {
	mfs := newMapFileSystem(map[string]string{
		"d/gone":     "x",
		"d/nometa":   "x",
		"d/fine.txt": "hello",
	})
	mfs.enumErrors["gone"] = errors.New("entry vanished")
	mfs.statErrors["d/nometa"] = fs.ErrPermission

	scan := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	c := NewCursor(mfs, Options{Location: time.UTC}, nil)
	c.SetClock(func() time.Time { return scan })

	if err := c.Filter([]any{"d"}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if c.Len() != 2 || c.Skipped() != 1 {
		t.Fatalf("expected 2 rows and 1 skip, got %d rows %d skipped", c.Len(), c.Skipped())
	}

	found := false
	for ; !c.EOF(); c.Next() {
		if mustColumn(t, c, ColumnFileName) != "nometa" {
			continue
		}
		found = true
		for _, col := range []Column{ColumnIsDir, ColumnIsFile, ColumnIsSymLink, ColumnReadonly} {
			if mustColumn(t, c, col) != false {
				t.Fatalf("expected %s false on degraded row", col)
			}
		}
		if mustColumn(t, c, ColumnBytes) != int64(0) {
			t.Fatalf("expected 0 bytes on degraded row")
		}
		for _, col := range []Column{ColumnCreated, ColumnModified, ColumnAccessed} {
			if got := mustColumn(t, c, col); got != "2024-0315 09:30:00" {
				t.Fatalf("expected scan time for %s, got %v", col, got)
			}
		}
	}
	if !found {
		t.Fatalf("degraded entry must stay in the snapshot")
	}
}

func TestCursorTimestampFormatting(t *testing.T) {
	mfs := newMapFileSystem(map[string]string{"d/a.txt": "x"})
	mfs.fs["d/a.txt"].ModTime = time.Date(2023, 11, 5, 7, 8, 9, 0, time.UTC)

	for layout, want := range map[string]string{
		"":            "2023-1105 07:08:09",
		ISOTimeLayout: "2023-11-05 07:08:09",
	} {
		c := NewCursor(mfs, Options{TimeLayout: layout, Location: time.UTC}, nil)
		c.Mapper().SetTimesFunc(func(string, fs.FileInfo) (Timestamp, Timestamp) {
			return Timestamp{Err: ErrTimeUnsupported}, Timestamp{Err: ErrTimeUnsupported}
		})
		if err := c.Filter([]any{"d"}); err != nil {
			t.Fatalf("filter: %v", err)
		}
		if got := mustColumn(t, c, ColumnModified); got != want {
			t.Fatalf("layout %q: expected %q, got %v", layout, want, got)
		}
		if got := mustColumn(t, c, ColumnCreated); got != nil {
			t.Fatalf("failed timestamp must project NULL, got %v", got)
		}
		if got := mustColumn(t, c, ColumnAccessed); got != nil {
			t.Fatalf("failed timestamp must project NULL, got %v", got)
		}
	}
}

func TestCursorRowCountMatchesEnumeration(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"x", "y.z", ".hidden"} {
		writeFile(t, filepath.Join(dir, name), "")
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}

	c := NewCursor(nil, Options{}, nil)
	if err := c.Filter([]any{dir}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if c.Len() != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), c.Len())
	}
}
