package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
	"github.com/google/uuid"
)

type writeFileArgs struct {
	Path       string `json:"path"`
	Content    string `json:"content"`
	CreateDirs *bool  `json:"createDirs"`
	Overwrite  *bool  `json:"overwrite"`
}

// WriteFile implements write_file: an atomic temp-file-plus-rename writer.
func WriteFile(cwd string) Executor {
	return func(raw json.RawMessage) chatmodel.ToolResult {
		var args writeFileArgs
		if err := json.Unmarshal(raw, &args); err != nil || strings.TrimSpace(args.Path) == "" {
			return Fail(errs.CodeToolInvalidArgs, "path is required")
		}
		overwrite := args.Overwrite == nil || *args.Overwrite
		createDirs := args.CreateDirs == nil || *args.CreateDirs

		abs := resolveAbs(cwd, args.Path)
		if !overwrite {
			if _, err := os.Stat(abs); err == nil {
				return Fail(errs.CodeToolConflict, "destination already exists")
			}
		}

		parent := filepath.Dir(abs)
		if _, err := os.Stat(parent); err != nil {
			if !createDirs {
				return Fail(errs.CodeToolNotFound, "parent directory does not exist")
			}
			if err := os.MkdirAll(parent, 0755); err != nil {
				return Fail(errs.CodeToolExecutionError, "failed to create parent directory: "+err.Error())
			}
		}

		if err := atomicWriteFile(abs, []byte(args.Content)); err != nil {
			return Fail(errs.CodeToolExecutionError, "failed to write file: "+err.Error())
		}

		return Ok(map[string]any{"path": abs, "bytesWritten": len(args.Content)})
	}
}

func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp.%d.%s", filepath.Base(path), time.Now().UnixNano(), uuid.NewString()[:8]))

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
