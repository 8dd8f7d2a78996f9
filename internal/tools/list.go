package tools

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

type listFilesArgs struct {
	Path          string `json:"path"`
	Include       string `json:"include"`
	IncludeHidden bool   `json:"includeHidden"`
	MaxResults    int    `json:"maxResults"`
}

// ListFiles implements list_files: recursive directory traversal with a
// wildcard include filter (spec.md 4.G).
func ListFiles(cwd string) Executor {
	return func(raw json.RawMessage) chatmodel.ToolResult {
		args := listFilesArgs{Path: ".", Include: "*", MaxResults: 2000}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return Fail(errs.CodeToolInvalidArgs, "invalid arguments")
			}
		}
		if args.Path == "" {
			args.Path = "."
		}
		if args.Include == "" {
			args.Include = "*"
		}
		if args.MaxResults <= 0 {
			args.MaxResults = 2000
		}

		pattern, err := wildcardToRegexp(args.Include)
		if err != nil {
			return Fail(errs.CodeToolInvalidPattern, "invalid include pattern")
		}

		root := resolveAbs(cwd, args.Path)
		var results []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil
			}
			if path == root {
				return nil
			}
			name := d.Name()
			if !args.IncludeHidden && strings.HasPrefix(name, ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !pattern.MatchString(name) {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			results = append(results, rel)
			if len(results) >= args.MaxResults {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			return Fail(errs.CodeToolExecutionError, "failed to list files: "+err.Error())
		}

		sort.Strings(results)
		return Ok(map[string]any{"path": args.Path, "files": results, "count": len(results)})
	}
}

// wildcardToRegexp translates a glob-style pattern (`*`, `?`) to an anchored
// case-sensitive regexp.
func wildcardToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
