package jsonfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/voltgrid/evstation/internal/domain"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type record struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

func TestWriteLoad_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, 5, newTestLogger())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	in := []record{{ID: "a", Value: 1.5}, {ID: "b", Value: 2.5}}
	if err := w.Write("bills", in); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out []record
	if err := w.Load("bills", &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].Value != 2.5 {
		t.Errorf("unexpected roundtrip result %+v", out)
	}
}

func TestWriteLoad_UserKeepsPasswordDigest(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, 5, newTestLogger())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	in := []domain.User{{
		ID:           "alice",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Car:          domain.Car{ID: "CAR-A", UserID: "alice", CapacityKWh: 60},
	}}
	if err := w.Write("users", in); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The digest must survive the restart path, or nobody can log in after
	// a restore.
	var out []domain.User
	if err := w.Load("users", &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 user, got %d", len(out))
	}
	if out[0].PasswordHash != in[0].PasswordHash {
		t.Errorf("expected password digest %q restored, got %q", in[0].PasswordHash, out[0].PasswordHash)
	}
	if out[0].Car.ID != "CAR-A" {
		t.Errorf("expected car restored, got %+v", out[0].Car)
	}
}

func TestWrite_LeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, 5, newTestLogger())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if err := w.Write("users", []record{{ID: "a"}}); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "users.json")); err != nil {
		t.Errorf("expected users.json, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	w, err := NewWriter(t.TempDir(), 5, newTestLogger())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	var out []record
	err = w.Load("nothing", &out)
	if !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestWrite_KeepsBoundedBackups(t *testing.T) {
	dir := t.TempDir()
	keep := 3
	w, err := NewWriter(dir, keep, newTestLogger())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	for i := 0; i < keep+4; i++ {
		if err := w.Write("piles", []record{{ID: "a", Value: float64(i)}}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	entries, _ := os.ReadDir(dir)
	backups := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "piles.json.") && strings.HasSuffix(e.Name(), ".bak") {
			backups++
		}
	}
	if backups > keep {
		t.Errorf("expected at most %d backups, got %d", keep, backups)
	}
	if backups == 0 {
		t.Error("expected at least one backup after rewrites")
	}

	// The live file always holds the latest write.
	var out []record
	if err := w.Load("piles", &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if out[0].Value != float64(keep+3) {
		t.Errorf("expected latest value %d, got %v", keep+3, out[0].Value)
	}
}

func TestWrite_BackupPreservesPreviousContent(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, 5, newTestLogger())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if err := w.Write("requests", []record{{ID: "old"}}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := w.Write("requests", []record{{ID: "new"}}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	var backup string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "requests.json.") && strings.HasSuffix(e.Name(), ".bak") {
			backup = e.Name()
		}
	}
	if backup == "" {
		t.Fatal("expected a backup file")
	}

	data, err := os.ReadFile(filepath.Join(dir, backup))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !strings.Contains(string(data), `"old"`) {
		t.Errorf("backup does not hold the previous content: %s", data)
	}
}
