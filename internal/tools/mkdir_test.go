package tools

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMkdir_RecursiveByDefault(t *testing.T) {
	dir := t.TempDir()
	result := Mkdir(dir)(mustJSON(t, map[string]any{"path": "a/b/c"}))
	if !result.OK {
		t.Fatalf("unexpected failure: %+v", result)
	}
	if info, err := os.Stat(filepath.Join(dir, "a", "b", "c")); err != nil || !info.IsDir() {
		t.Fatal("expected nested directory to exist")
	}
}

func TestMkdir_NonRecursiveFailsWithMissingParent(t *testing.T) {
	dir := t.TempDir()
	recursive := false
	result := Mkdir(dir)(mustJSON(t, map[string]any{"path": "a/b", "recursive": recursive}))
	if result.OK {
		t.Fatal("expected failure when parent is missing and recursive is false")
	}
}

func TestMkdir_MissingPathFails(t *testing.T) {
	dir := t.TempDir()
	result := Mkdir(dir)(mustJSON(t, map[string]any{"path": ""}))
	if result.Code != "TOOL_INVALID_ARGS" {
		t.Fatalf("expected TOOL_INVALID_ARGS, got %s", result.Code)
	}
}
