package listing

import (
	"context"
	"database/sql"
	"sort"
)

// RowChangeSet aggregates rows that appeared or changed and paths that disappeared.
type RowChangeSet struct {
	Upserts   []Row
	Deletions []string
}

// IsEmpty reports whether there are no recorded changes.
func (c RowChangeSet) IsEmpty() bool {
	return len(c.Upserts) == 0 && len(c.Deletions) == 0
}

// RowSyncTarget consumes row change notifications for a listed directory.
type RowSyncTarget interface {
	ApplyRowChanges(ctx context.Context, dir string, changes RowChangeSet) error
}

// DiffRows compares two listings of the same directory by path. Access times
// are ignored; reading a file is not a change.
func DiffRows(previous, current []Row) RowChangeSet {
	old := make(map[string]Row, len(previous))
	for _, r := range previous {
		old[r.Path] = r
	}

	var changes RowChangeSet
	seen := make(map[string]struct{}, len(current))
	for _, r := range current {
		seen[r.Path] = struct{}{}
		prev, ok := old[r.Path]
		if ok && sameRow(prev, r) {
			continue
		}
		changes.Upserts = append(changes.Upserts, r)
	}

	for path := range old {
		if _, ok := seen[path]; !ok {
			changes.Deletions = append(changes.Deletions, path)
		}
	}
	sort.Strings(changes.Deletions)
	return changes
}

func sameRow(a, b Row) bool {
	a.Accessed = sql.NullString{}
	b.Accessed = sql.NullString{}
	return a == b
}
