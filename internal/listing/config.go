package listing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leafo/fslist/internal/fslist"
)

// Config captures listing settings and the optional change-set targets.
type Config struct {
	Pattern     string            `json:"pattern"`
	OrderBy     string            `json:"order_by"`
	TimeLayout  string            `json:"time_layout"`
	Shell       ShellTargetConfig `json:"shell"`
	Meilisearch MeilisearchConfig `json:"meilisearch"`
}

// Options converts the configuration into the options used by the Lister.
func (c Config) Options() Options {
	return Options{
		Pattern: c.Pattern,
		OrderBy: c.OrderBy,
	}
}

// RelationOptions resolves the timestamp layout for the fs_list relation.
// "legacy" (the default) and "iso" name the built-in layouts; anything else is
// used as a time.Format layout.
func (c Config) RelationOptions() fslist.Options {
	switch strings.ToLower(strings.TrimSpace(c.TimeLayout)) {
	case "", "legacy":
		return fslist.Options{TimeLayout: fslist.LegacyTimeLayout}
	case "iso":
		return fslist.Options{TimeLayout: fslist.ISOTimeLayout}
	default:
		return fslist.Options{TimeLayout: c.TimeLayout}
	}
}

// Targets builds the configured sync targets. Unconfigured targets are skipped.
func (c Config) Targets(ctx context.Context, logger *slog.Logger) ([]RowSyncTarget, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var targets []RowSyncTarget
	if shell := newShellTarget(c.Shell); shell != nil {
		targets = append(targets, shell)
	}
	meili, err := newMeilisearchTarget(ctx, c.Meilisearch, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize meilisearch: %w", err)
	}
	if meili != nil {
		targets = append(targets, meili)
	}
	return targets, nil
}
