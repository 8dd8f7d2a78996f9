package tools

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

type deleteFileArgs struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// DeleteFile implements delete_file: removes a file, or a directory only
// when recursive is explicitly set.
func DeleteFile(cwd string) Executor {
	return func(raw json.RawMessage) chatmodel.ToolResult {
		var args deleteFileArgs
		if err := json.Unmarshal(raw, &args); err != nil || strings.TrimSpace(args.Path) == "" {
			return Fail(errs.CodeToolInvalidArgs, "path is required")
		}

		abs := resolveAbs(cwd, args.Path)
		info, err := os.Stat(abs)
		if err != nil {
			return Fail(errs.CodeToolNotFound, "path not found")
		}

		if info.IsDir() {
			if !args.Recursive {
				return Fail(errs.CodeToolInvalidArgs, "refusing to delete a directory without recursive=true")
			}
			if err := os.RemoveAll(abs); err != nil {
				return Fail(errs.CodeToolExecutionError, "failed to delete directory: "+err.Error())
			}
			return Ok(map[string]any{"path": abs, "deleted": true, "wasDirectory": true})
		}

		if err := os.Remove(abs); err != nil {
			return Fail(errs.CodeToolExecutionError, "failed to delete file: "+err.Error())
		}
		return Ok(map[string]any{"path": abs, "deleted": true, "wasDirectory": false})
	}
}
