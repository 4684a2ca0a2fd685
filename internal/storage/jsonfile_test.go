package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	v := map[string]any{"text": "<Alliance> & Élite 2024", "n": 2}

	if err := WriteJSONFile(path, v); err != nil {
		t.Fatalf("WriteJSONFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := `{"n":2,"text":"<Alliance> & Élite 2024"}` + "\n"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}

	// Overwrites rather than appends
	if err := WriteJSONFile(path, []int{1}); err != nil {
		t.Fatalf("WriteJSONFile() second write error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if !bytes.Equal(data, []byte("[1]\n")) {
		t.Errorf("file after overwrite = %q, want [1]", data)
	}
}

func TestWriteJSONFile_UncreatableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := WriteJSONFile(filepath.Join(blocker, "out.json"), 1); err == nil {
		t.Error("WriteJSONFile() expected error when parent is a file, got nil")
	}
}

func TestReadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	if err := WriteJSONFile(path, map[string]int{"N": 3}); err != nil {
		t.Fatalf("WriteJSONFile() error = %v", err)
	}

	var got struct{ N int }
	if err := ReadJSONFile(path, &got); err != nil {
		t.Fatalf("ReadJSONFile() error = %v", err)
	}
	if got.N != 3 {
		t.Errorf("N = %d, want 3", got.N)
	}

	if err := ReadJSONFile(filepath.Join(t.TempDir(), "missing.json"), &got); err == nil {
		t.Error("ReadJSONFile() expected error for missing file, got nil")
	}
}
