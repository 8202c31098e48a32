package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// ShellTargetConfig configures a command that receives change sets as JSON on stdin.
type ShellTargetConfig struct {
	Command string `json:"command"`
}

// IsEmpty reports whether no command is configured.
func (c ShellTargetConfig) IsEmpty() bool {
	return strings.TrimSpace(c.Command) == ""
}

type shellTarget struct {
	command string
}

func newShellTarget(cfg ShellTargetConfig) RowSyncTarget {
	if cfg.IsEmpty() {
		return nil
	}
	return &shellTarget{command: strings.TrimSpace(cfg.Command)}
}

type shellPayload struct {
	Input     string   `json:"input"`
	Upserts   []Row    `json:"upserts"`
	Deletions []string `json:"deletions"`
}

func (s *shellTarget) ApplyRowChanges(ctx context.Context, dir string, changes RowChangeSet) error {
	if changes.IsEmpty() {
		return nil
	}

	payload, err := json.Marshal(shellPayload{
		Input:     dir,
		Upserts:   changes.Upserts,
		Deletions: changes.Deletions,
	})
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", s.command)
	cmd.Stdin = bytes.NewReader(payload)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("shell target failed: %w: %s", err, string(output))
	}

	return nil
}
