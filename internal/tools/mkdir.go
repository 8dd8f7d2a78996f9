package tools

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

type mkdirArgs struct {
	Path      string `json:"path"`
	Recursive *bool  `json:"recursive"`
}

// Mkdir implements mkdir: creates a directory, recursively by default.
func Mkdir(cwd string) Executor {
	return func(raw json.RawMessage) chatmodel.ToolResult {
		var args mkdirArgs
		if err := json.Unmarshal(raw, &args); err != nil || strings.TrimSpace(args.Path) == "" {
			return Fail(errs.CodeToolInvalidArgs, "path is required")
		}
		recursive := args.Recursive == nil || *args.Recursive

		abs := resolveAbs(cwd, args.Path)
		var err error
		if recursive {
			err = os.MkdirAll(abs, 0755)
		} else {
			err = os.Mkdir(abs, 0755)
		}
		if err != nil {
			return Fail(errs.CodeToolExecutionError, "failed to create directory: "+err.Error())
		}

		return Ok(map[string]any{"path": abs})
	}
}
