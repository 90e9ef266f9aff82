package recovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"devboot/internal/app/fault"
)

// Dump is the emergency diagnostic written when a failure is escalated or a panic escapes
type Dump struct {
	Timestamp       time.Time      `json:"timestamp"`
	Reason          string         `json:"reason"`
	Record          fault.Record   `json:"record"`
	Context         Context        `json:"context"`
	Attempts        int            `json:"attempts,omitempty"`
	Errors          []fault.Record `json:"errors,omitempty"`
	PendingRollback int            `json:"pendingRollback"`
}

func writeDump(dir string, d Dump) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create emergency dir: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("emergency-%s.json", d.Timestamp.UTC().Format("20060102T150405.000000000"))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write emergency dump: %w", err)
	}

	return path, nil
}

// ReadDump loads an emergency dump
func ReadDump(path string) (Dump, error) {
	var d Dump

	data, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}

	err = json.Unmarshal(data, &d)

	return d, err
}
