package tools

import (
	"bufio"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

type searchContentArgs struct {
	Path          string `json:"path"`
	Pattern       string `json:"pattern"`
	Include       string `json:"include"`
	CaseSensitive bool   `json:"caseSensitive"`
	IncludeHidden bool   `json:"includeHidden"`
	MaxResults    int    `json:"maxResults"`
}

type searchMatch struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Preview string `json:"preview"`
}

const searchPreviewMaxLen = 400

// SearchContent implements search_content: a regex grep over text files
// under path, returning line-level matches with a bounded preview.
func SearchContent(cwd string) Executor {
	return func(raw json.RawMessage) chatmodel.ToolResult {
		args := searchContentArgs{Path: ".", Include: "*", MaxResults: 2000}
		if err := json.Unmarshal(raw, &args); err != nil || strings.TrimSpace(args.Pattern) == "" {
			return Fail(errs.CodeToolInvalidArgs, "pattern is required")
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

		exprSource := args.Pattern
		if !args.CaseSensitive {
			exprSource = "(?i)" + exprSource
		}
		expr, err := regexp.Compile(exprSource)
		if err != nil {
			return Fail(errs.CodeToolInvalidPattern, "invalid regular expression: "+err.Error())
		}

		includePattern, err := wildcardToRegexp(args.Include)
		if err != nil {
			return Fail(errs.CodeToolInvalidPattern, "invalid include pattern")
		}

		root := resolveAbs(cwd, args.Path)
		var matches []searchMatch
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if !args.IncludeHidden && strings.HasPrefix(d.Name(), ".") && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if !args.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			if !includePattern.MatchString(d.Name()) {
				return nil
			}
			if isBinaryLikeExtension(strings.ToLower(filepath.Ext(path))) {
				return nil
			}
			if len(matches) >= args.MaxResults {
				return filepath.SkipAll
			}
			found, searchErr := searchFile(path, expr, args.MaxResults-len(matches))
			if searchErr != nil {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			for _, m := range found {
				matches = append(matches, searchMatch{Path: rel, Line: m.Line, Preview: m.Preview})
			}
			return nil
		})
		if walkErr != nil {
			return Fail(errs.CodeToolExecutionError, "failed to search: "+walkErr.Error())
		}

		return Ok(map[string]any{"path": args.Path, "matches": matches, "count": len(matches)})
	}
}

func searchFile(path string, expr *regexp.Regexp, limit int) ([]searchMatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []searchMatch
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if expr.MatchString(line) {
			out = append(out, searchMatch{Line: lineNo, Preview: truncatePreview(line)})
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func truncatePreview(line string) string {
	if len(line) <= searchPreviewMaxLen {
		return line
	}
	return line[:searchPreviewMaxLen]
}
