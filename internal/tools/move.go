package tools

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

type moveFileArgs struct {
	Path      string `json:"path"`
	To        string `json:"to"`
	Overwrite bool   `json:"overwrite"`
}

// MoveFile implements move_file: renames path to the destination named by
// to, creating the destination's parent directory and refusing to clobber
// an existing destination unless overwrite is set (spec.md 4.G).
func MoveFile(cwd string) Executor {
	return func(raw json.RawMessage) chatmodel.ToolResult {
		var args moveFileArgs
		if err := json.Unmarshal(raw, &args); err != nil ||
			strings.TrimSpace(args.Path) == "" || strings.TrimSpace(args.To) == "" {
			return Fail(errs.CodeToolInvalidArgs, "path and to are required")
		}

		src := resolveAbs(cwd, args.Path)
		dst := resolveAbs(cwd, args.To)

		if _, err := os.Stat(src); err != nil {
			return Fail(errs.CodeToolNotFound, "source not found")
		}
		if !args.Overwrite {
			if _, err := os.Stat(dst); err == nil {
				return Fail(errs.CodeToolConflict, "destination already exists")
			}
		}

		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return Fail(errs.CodeToolExecutionError, "failed to create destination directory: "+err.Error())
		}
		if err := os.Rename(src, dst); err != nil {
			return Fail(errs.CodeToolExecutionError, "failed to move: "+err.Error())
		}

		return Ok(map[string]any{"source": src, "destination": dst})
	}
}
