package tools

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyPatch_AppliesOpsInOrder(t *testing.T) {
	dir := t.TempDir()
	ops := []map[string]any{
		{"op": "mkdir", "path": "sub"},
		{"op": "write", "path": "sub/a.txt", "content": "hello"},
		{"op": "move", "path": "sub/a.txt", "to": "sub/b.txt"},
	}
	result := ApplyPatch(dir)(mustJSON(t, map[string]any{"operations": ops}))
	if !result.OK {
		t.Fatalf("unexpected failure: %+v", result)
	}
	if result.Data["ok"] != true {
		t.Fatalf("expected batch ok=true, got %+v", result.Data)
	}
	if _, err := os.Stat(filepath.Join(dir, "sub", "b.txt")); err != nil {
		t.Fatal(err)
	}
}

func TestApplyPatch_PrecheckFailsWholeBatch(t *testing.T) {
	dir := t.TempDir()
	ops := []map[string]any{
		{"op": "write", "path": "a.txt", "content": "x"},
		{"op": "delete", "path": "missing.txt"},
	}
	result := ApplyPatch(dir)(mustJSON(t, map[string]any{"operations": ops}))
	if result.OK {
		t.Fatal("expected precheck failure")
	}
	if _, err := os.Stat(filepath.Join(dir, "a.txt")); !os.IsNotExist(err) {
		t.Fatal("expected no ops to have run when precheck fails")
	}
}

func TestApplyPatch_StopsAtFirstExecutionFailureAndSkipsRest(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "exists.txt"), "x")
	ops := []map[string]any{
		{"op": "write", "path": "first.txt", "content": "ok"},
		{"op": "mkdir", "path": "exists.txt"},
		{"op": "mkdir", "path": "never"},
	}

	result := ApplyPatch(dir)(mustJSON(t, map[string]any{"operations": ops}))
	if result.Data["ok"] != false {
		t.Fatalf("expected batch ok=false when an op collides with an existing file, got %+v", result.Data)
	}
	results := result.Data["results"].([]patchOpResult)
	if !results[0].OK || results[1].OK || !results[2].Skipped {
		t.Fatalf("expected first op ok, second failed, third skipped; got %+v", results)
	}
}

func TestApplyPatch_AddRefusesExistingPath(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "already here")
	ops := []map[string]any{
		{"op": "add", "path": "a.txt", "content": "overwrite attempt"},
	}
	result := ApplyPatch(dir)(mustJSON(t, map[string]any{"operations": ops}))
	if result.OK {
		t.Fatal("expected precheck failure for add onto an existing path")
	}
	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil || string(data) != "already here" {
		t.Fatalf("expected no effect from failed precheck, got %q, err=%v", data, err)
	}
}

func TestApplyPatch_UpdateRequiresExistingPath(t *testing.T) {
	dir := t.TempDir()
	ops := []map[string]any{
		{"op": "update", "path": "missing.txt", "content": "x"},
	}
	result := ApplyPatch(dir)(mustJSON(t, map[string]any{"operations": ops}))
	if result.OK {
		t.Fatal("expected precheck failure for update on a missing path")
	}
	if _, err := os.Stat(filepath.Join(dir, "missing.txt")); !os.IsNotExist(err) {
		t.Fatal("expected update to not create the file when precheck fails")
	}
}

func TestApplyPatch_EmptyOpsFails(t *testing.T) {
	dir := t.TempDir()
	result := ApplyPatch(dir)(mustJSON(t, map[string]any{"operations": []map[string]any{}}))
	if result.Code != "TOOL_INVALID_ARGS" {
		t.Fatalf("expected TOOL_INVALID_ARGS, got %s", result.Code)
	}
}
