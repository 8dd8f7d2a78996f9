package tools

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

type readFileArgs struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// ReadFile implements read_file: a UTF-8 text file reader returning 1-based
// numbered lines within a window (spec.md 4.G).
func ReadFile(cwd string) Executor {
	return func(raw json.RawMessage) chatmodel.ToolResult {
		var args readFileArgs
		if err := json.Unmarshal(raw, &args); err != nil || strings.TrimSpace(args.Path) == "" {
			return Fail(errs.CodeToolInvalidArgs, "path is required")
		}
		if args.Offset <= 0 {
			args.Offset = 1
		}
		if args.Limit <= 0 {
			args.Limit = 2000
		}

		abs := resolveAbs(cwd, args.Path)
		if isBinaryLikeExtension(strings.ToLower(filepath.Ext(abs))) {
			return Fail(errs.CodeToolUnsupportedFileType, "refusing to read a known binary file type")
		}

		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			return Fail(errs.CodeToolNotFound, "file not found")
		}

		data, err := os.ReadFile(abs)
		if err != nil {
			return Fail(errs.CodeToolExecutionError, "failed to read file: "+err.Error())
		}
		if !isValidUTF8(data) {
			return Fail(errs.CodeToolUnsupportedFileType, "file is not valid UTF-8 text")
		}

		lines := strings.Split(string(data), "\n")
		totalLines := len(lines)

		startIdx := args.Offset - 1
		if startIdx < 0 {
			startIdx = 0
		}
		if startIdx > totalLines {
			startIdx = totalLines
		}
		endIdx := startIdx + args.Limit
		if endIdx > totalLines {
			endIdx = totalLines
		}

		var b strings.Builder
		for i := startIdx; i < endIdx; i++ {
			b.WriteString(formatNumberedLine(i+1, lines[i]))
			b.WriteByte('\n')
		}

		return Ok(map[string]any{
			"path":       abs,
			"content":    b.String(),
			"totalLines": totalLines,
			"offset":     args.Offset,
			"limit":      args.Limit,
		})
	}
}

func formatNumberedLine(n int, line string) string {
	return padLineNumber(n) + "\t" + line
}

func padLineNumber(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 6 {
		s = " " + s
	}
	return s
}

func isValidUTF8(data []byte) bool {
	return utf8.Valid(data)
}
