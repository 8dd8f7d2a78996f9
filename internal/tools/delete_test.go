package tools

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDeleteFile_RemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.txt")
	mustWrite(t, path, "x")

	result := DeleteFile(dir)(mustJSON(t, map[string]any{"path": "gone.txt"}))
	if !result.OK {
		t.Fatalf("unexpected failure: %+v", result)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected file to be removed")
	}
}

func TestDeleteFile_DirectoryRequiresRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	result := DeleteFile(dir)(mustJSON(t, map[string]any{"path": "sub"}))
	if result.Code != "TOOL_INVALID_ARGS" {
		t.Fatalf("expected TOOL_INVALID_ARGS, got %s", result.Code)
	}

	result = DeleteFile(dir)(mustJSON(t, map[string]any{"path": "sub", "recursive": true}))
	if !result.OK {
		t.Fatalf("unexpected failure: %+v", result)
	}
	if _, err := os.Stat(sub); !os.IsNotExist(err) {
		t.Fatal("expected directory to be removed")
	}
}

func TestDeleteFile_MissingPathFails(t *testing.T) {
	dir := t.TempDir()
	result := DeleteFile(dir)(mustJSON(t, map[string]any{"path": "missing.txt"}))
	if result.Code != "TOOL_NOT_FOUND" {
		t.Fatalf("expected TOOL_NOT_FOUND, got %s", result.Code)
	}
}
