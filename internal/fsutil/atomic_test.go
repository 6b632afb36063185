package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := WriteFileAtomic(path, []byte("{\n  \"a\": 1\n}\n"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(data) != "{\n  \"a\": 1\n}\n" {
		t.Errorf("content = %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("mode = %o, want 0644", info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only the target file, found %v", names)
	}
}

func TestWriteFileAtomic_Replaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etas_sim_mpj.slurm")
	if err := os.WriteFile(path, []byte("old\nold\nold\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := WriteFileAtomic(path, []byte("new\n"), 0755); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new\n" {
		t.Errorf("content = %q, want %q", data, "new\n")
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0755 {
		t.Errorf("mode = %o, want 0755", info.Mode().Perm())
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "config.json")
	if err := WriteFileAtomic(path, []byte("{}"), 0644); err == nil {
		t.Fatal("expected error when the directory does not exist")
	}
}
