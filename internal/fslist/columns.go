package fslist

// Column identifies a column of the fs_list relation by its declared index.
type Column int

const (
	ColumnPath Column = iota
	ColumnIsDir
	ColumnBytes
	ColumnIsFile
	ColumnCreated
	ColumnModified
	ColumnAccessed
	ColumnIsSymLink
	ColumnReadonly
	ColumnExtension
	ColumnFileName
	ColumnInput

	columnCount
)

// TableName is the name the relation is registered under.
const TableName = "fs_list"

// CreateSQL declares the relation schema. The order of columns must match the
// Column constants.
const CreateSQL = "CREATE TABLE x(path, is_dir, bytes, is_file, created, modified, accessed, is_sym_link, readonly, extension, file_name, input HIDDEN)"

var columnNames = [columnCount]string{
	"path",
	"is_dir",
	"bytes",
	"is_file",
	"created",
	"modified",
	"accessed",
	"is_sym_link",
	"readonly",
	"extension",
	"file_name",
	"input",
}

// ColumnNames returns the visible column names in declaration order. The
// hidden input column is not included.
func ColumnNames() []string {
	names := make([]string, 0, len(columnNames)-1)
	for i, name := range columnNames {
		if Column(i) == ColumnInput {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (c Column) String() string {
	if c < 0 || c >= columnCount {
		return "unknown"
	}
	return columnNames[c]
}

// Valid reports whether c names one of the declared columns.
func (c Column) Valid() bool {
	return c >= 0 && c < columnCount
}
