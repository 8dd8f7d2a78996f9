package tools

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile_HappyPath(t *testing.T) {
	dir := t.TempDir()
	result := WriteFile(dir)(mustJSON(t, map[string]any{"path": "out.txt", "content": "hello"}))
	if !result.OK {
		t.Fatalf("unexpected failure: %+v", result)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestWriteFile_RefusesOverwriteWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "existing.txt"), "old")

	result := WriteFile(dir)(mustJSON(t, map[string]any{"path": "existing.txt", "content": "new", "overwrite": false}))
	if result.Code != "TOOL_CONFLICT" {
		t.Fatalf("expected TOOL_CONFLICT, got %s", result.Code)
	}
}

func TestWriteFile_MissingParentFailsWhenCreateDirsDisabled(t *testing.T) {
	dir := t.TempDir()
	result := WriteFile(dir)(mustJSON(t, map[string]any{"path": "nested/out.txt", "content": "x", "createDirs": false}))
	if result.Code != "TOOL_NOT_FOUND" {
		t.Fatalf("expected TOOL_NOT_FOUND, got %s", result.Code)
	}
}

func TestWriteFile_CreateDirsDefaultsToTrue(t *testing.T) {
	dir := t.TempDir()
	result := WriteFile(dir)(mustJSON(t, map[string]any{"path": "nested/out.txt", "content": "x"}))
	if !result.OK {
		t.Fatalf("unexpected failure: %+v", result)
	}
	if _, err := os.Stat(filepath.Join(dir, "nested", "out.txt")); err != nil {
		t.Fatal(err)
	}
}

func TestWriteFile_NoLeftoverTempFile(t *testing.T) {
	dir := t.TempDir()
	WriteFile(dir)(mustJSON(t, map[string]any{"path": "out.txt", "content": "x"}))

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.txt" {
		t.Fatalf("expected only out.txt in directory, got %v", entries)
	}
}
