package listing

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"github.com/meilisearch/meilisearch-go"
)

// MeilisearchConfig captures connection settings for optional search synchronization.
type MeilisearchConfig struct {
	Host   string `json:"host"`
	APIKey string `json:"api_key"`
	Index  string `json:"index"`
}

type meilisearchTarget struct {
	client *meilisearch.Client
	index  *meilisearch.Index
	logger *slog.Logger
}

func newMeilisearchTarget(ctx context.Context, cfg MeilisearchConfig, logger *slog.Logger) (RowSyncTarget, error) {
	host := strings.TrimSpace(cfg.Host)
	indexName := strings.TrimSpace(cfg.Index)
	if indexName == "" {
		return nil, nil
	}
	if host == "" {
		host = "http://localhost:7700"
	}

	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: strings.TrimSpace(cfg.APIKey),
	})
	index := client.Index(indexName)

	t := &meilisearchTarget{client: client, index: index, logger: logger}
	if err := t.ensureIndex(ctx, indexName); err != nil {
		return nil, err
	}
	logger.Info("Meilisearch target ready", "host", host, "index", indexName)
	return t, nil
}

func (t *meilisearchTarget) ensureIndex(ctx context.Context, indexName string) error {
	_, err := t.client.GetIndex(indexName)
	if err != nil {
		var meiliErr *meilisearch.Error
		if !errors.As(err, &meiliErr) || meiliErr.MeilisearchApiError.Code != "index_not_found" {
			return err
		}
		task, createErr := t.client.CreateIndex(&meilisearch.IndexConfig{Uid: indexName, PrimaryKey: "id"})
		if createErr != nil {
			return createErr
		}
		if err := t.waitForTask(ctx, task); err != nil {
			return err
		}
	}

	if err := t.ensureSearchableAttributes(ctx, []string{"file_name", "path"}); err != nil {
		return err
	}
	return t.ensureFilterableAttributes(ctx, []string{"input", "extension", "is_dir"})
}

func (t *meilisearchTarget) ensureSearchableAttributes(ctx context.Context, desired []string) error {
	currentPtr, err := t.index.GetSearchableAttributes()
	if err != nil {
		return err
	}
	if stringSlicesEqual(derefSlice(currentPtr), desired) {
		return nil
	}
	task, err := t.index.UpdateSearchableAttributes(&desired)
	if err != nil {
		return err
	}
	return t.waitForTask(ctx, task)
}

func (t *meilisearchTarget) ensureFilterableAttributes(ctx context.Context, desired []string) error {
	currentPtr, err := t.index.GetFilterableAttributes()
	if err != nil {
		return err
	}
	if stringSlicesEqual(derefSlice(currentPtr), desired) {
		return nil
	}
	task, err := t.index.UpdateFilterableAttributes(&desired)
	if err != nil {
		return err
	}
	return t.waitForTask(ctx, task)
}

func (t *meilisearchTarget) waitForTask(ctx context.Context, task *meilisearch.TaskInfo) error {
	if task == nil || task.TaskUID == 0 {
		return nil
	}
	_, err := t.client.WaitForTask(task.TaskUID, meilisearch.WaitParams{Context: ctx})
	return err
}

// ApplyRowChanges satisfies the RowSyncTarget interface.
func (t *meilisearchTarget) ApplyRowChanges(ctx context.Context, dir string, changes RowChangeSet) error {
	if changes.IsEmpty() {
		return nil
	}

	if len(changes.Upserts) > 0 {
		task, err := t.index.AddDocuments(makeMeiliDocuments(dir, changes.Upserts))
		if err != nil {
			return err
		}
		if err := t.waitForTask(ctx, task); err != nil {
			return err
		}
	}

	if len(changes.Deletions) > 0 {
		ids := make([]string, 0, len(changes.Deletions))
		for _, path := range changes.Deletions {
			ids = append(ids, rowDocumentID(path))
		}
		task, err := t.index.DeleteDocuments(ids)
		if err != nil {
			return err
		}
		if err := t.waitForTask(ctx, task); err != nil {
			return err
		}
	}

	t.logger.Debug("Pushed rows to Meilisearch", "input", dir, "upserts", len(changes.Upserts), "deletions", len(changes.Deletions))
	return nil
}

// meiliRowDocument represents a listed entry stored in Meilisearch.
type meiliRowDocument struct {
	ID    string `json:"id"`
	Input string `json:"input"`
	rowDocument
}

func makeMeiliDocuments(dir string, rows []Row) []meiliRowDocument {
	docs := make([]meiliRowDocument, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, meiliRowDocument{
			ID:          rowDocumentID(r.Path),
			Input:       dir,
			rowDocument: r.document(),
		})
	}
	return docs
}

// rowDocumentID derives a Meilisearch-safe identifier from a path.
func rowDocumentID(path string) string {
	sum := md5.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}

func derefSlice(ptr *[]string) []string {
	if ptr == nil {
		return nil
	}
	return *ptr
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
