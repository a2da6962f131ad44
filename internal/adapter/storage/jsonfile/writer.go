package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Writer persists entity snapshots as JSON files. Every write goes through a
// temp file and an atomic rename; the previous file is kept as a timestamped
// backup, with at most `keep` backups retained per file.
type Writer struct {
	dir  string
	keep int
	log  *zap.Logger
	mu   sync.Mutex
}

func NewWriter(dir string, keep int, log *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	if keep <= 0 {
		keep = 5
	}
	return &Writer{dir: dir, keep: keep, log: log}, nil
}

// Write replaces <name>.json with the marshalled value.
func (w *Writer) Write(name string, v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	target := filepath.Join(w.dir, name+".json")
	if err := w.backup(name, target); err != nil {
		w.log.Warn("Backup failed, continuing with write",
			zap.String("file", target), zap.Error(err))
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	return nil
}

// Load reads <name>.json into v. A missing file is reported via os.IsNotExist.
func (w *Writer) Load(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(w.dir, name+".json"))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (w *Writer) backup(name, target string) error {
	data, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	stamp := time.Now().Format("20060102T150405.000000000")
	backupName := fmt.Sprintf("%s.json.%s.bak", name, stamp)
	if err := os.WriteFile(filepath.Join(w.dir, backupName), data, 0o644); err != nil {
		return err
	}
	return w.prune(name)
}

func (w *Writer) prune(name string) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}

	prefix := name + ".json."
	var backups []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".bak") {
			backups = append(backups, e.Name())
		}
	}
	if len(backups) <= w.keep {
		return nil
	}

	// Timestamps sort lexicographically, oldest first.
	sort.Strings(backups)
	for _, stale := range backups[:len(backups)-w.keep] {
		if err := os.Remove(filepath.Join(w.dir, stale)); err != nil {
			return err
		}
	}
	return nil
}
