package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

type patchOp struct {
	Op        string `json:"op"`
	Path      string `json:"path"`
	Content   string `json:"content"`
	To        string `json:"to"`
	Recursive bool   `json:"recursive"`
	Overwrite bool   `json:"overwrite"`
}

type applyPatchArgs struct {
	Operations []patchOp `json:"operations"`
}

type patchOpResult struct {
	Op      string `json:"op"`
	Path    string `json:"path"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

// ApplyPatch implements apply_patch: a batch of add/update/write/delete/
// move/mkdir operations, prechecked as a whole before any of them run so a
// doomed batch fails without partial effect where possible.
func ApplyPatch(cwd string) Executor {
	return func(raw json.RawMessage) chatmodel.ToolResult {
		var args applyPatchArgs
		if err := json.Unmarshal(raw, &args); err != nil || len(args.Operations) == 0 {
			return Fail(errs.CodeToolInvalidArgs, "operations is required and must be non-empty")
		}

		for i, op := range args.Operations {
			if err := precheckOp(cwd, op); err != nil {
				return Fail(errs.CodeToolInvalidArgs, fmt.Sprintf("op %d (%s %s): %v", i, op.Op, op.Path, err))
			}
		}

		results := make([]patchOpResult, 0, len(args.Operations))
		failed := false
		for _, op := range args.Operations {
			if failed {
				results = append(results, patchOpResult{Op: op.Op, Path: op.Path, Skipped: true})
				continue
			}
			if err := executeOp(cwd, op); err != nil {
				results = append(results, patchOpResult{Op: op.Op, Path: op.Path, OK: false, Error: err.Error()})
				failed = true
				continue
			}
			results = append(results, patchOpResult{Op: op.Op, Path: op.Path, OK: true})
		}

		return Ok(map[string]any{"ok": !failed, "results": results})
	}
}

func precheckOp(cwd string, op patchOp) error {
	switch op.Op {
	case "add":
		if strings.TrimSpace(op.Path) == "" {
			return fmt.Errorf("path is required")
		}
		if _, err := os.Stat(resolveAbs(cwd, op.Path)); err == nil {
			return fmt.Errorf("path already exists")
		}
	case "update":
		if strings.TrimSpace(op.Path) == "" {
			return fmt.Errorf("path is required")
		}
		if _, err := os.Stat(resolveAbs(cwd, op.Path)); err != nil {
			return fmt.Errorf("path not found")
		}
	case "write":
		if strings.TrimSpace(op.Path) == "" {
			return fmt.Errorf("path is required")
		}
	case "delete":
		if strings.TrimSpace(op.Path) == "" {
			return fmt.Errorf("path is required")
		}
		abs := resolveAbs(cwd, op.Path)
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("path not found")
		}
		if info.IsDir() && !op.Recursive {
			return fmt.Errorf("refusing to delete a directory without recursive=true")
		}
	case "move", "rename":
		if strings.TrimSpace(op.Path) == "" || strings.TrimSpace(op.To) == "" {
			return fmt.Errorf("path and to are required")
		}
		if _, err := os.Stat(resolveAbs(cwd, op.Path)); err != nil {
			return fmt.Errorf("source not found")
		}
		if !op.Overwrite {
			if _, err := os.Stat(resolveAbs(cwd, op.To)); err == nil {
				return fmt.Errorf("destination already exists")
			}
		}
	case "mkdir":
		if strings.TrimSpace(op.Path) == "" {
			return fmt.Errorf("path is required")
		}
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
	return nil
}

func executeOp(cwd string, op patchOp) error {
	switch op.Op {
	case "add", "update", "write":
		abs := resolveAbs(cwd, op.Path)
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			return err
		}
		return atomicWriteFile(abs, []byte(op.Content))
	case "delete":
		abs := resolveAbs(cwd, op.Path)
		if op.Recursive {
			return os.RemoveAll(abs)
		}
		return os.Remove(abs)
	case "move", "rename":
		src := resolveAbs(cwd, op.Path)
		dst := resolveAbs(cwd, op.To)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		return os.Rename(src, dst)
	case "mkdir":
		return os.MkdirAll(resolveAbs(cwd, op.Path), 0755)
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
}
