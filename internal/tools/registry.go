package tools

import (
	openai "github.com/sashabaranov/go-openai"
)

// Definition pairs a tool's name and JSON schema with its executor.
type Definition struct {
	Name        string
	Description string
	Schema      map[string]any
	Run         Executor
}

// Registry is the complete set of tool executors available to one turn
// loop, keyed by name.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry builds the nine-tool executor set wired against cwd and the
// given shell configuration.
func NewRegistry(cwd string, shellCfg ShellConfig) *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	r.add(Definition{
		Name:        "read_file",
		Description: "Read a UTF-8 text file, returning numbered lines within an optional offset/limit window.",
		Schema:      readFileSchema,
		Run:         ReadFile(cwd),
	})
	r.add(Definition{
		Name:        "list_files",
		Description: "Recursively list files under a directory, optionally filtered by a wildcard include pattern.",
		Schema:      listFilesSchema,
		Run:         ListFiles(cwd),
	})
	r.add(Definition{
		Name:        "search_content",
		Description: "Search text files under a directory for lines matching a regular expression.",
		Schema:      searchContentSchema,
		Run:         SearchContent(cwd),
	})
	r.add(Definition{
		Name:        "write_file",
		Description: "Write content to a file, creating parent directories on request.",
		Schema:      writeFileSchema,
		Run:         WriteFile(cwd),
	})
	r.add(Definition{
		Name:        "delete_file",
		Description: "Delete a file, or a directory when recursive is set.",
		Schema:      deleteFileSchema,
		Run:         DeleteFile(cwd),
	})
	r.add(Definition{
		Name:        "move_file",
		Description: "Move or rename a file or directory.",
		Schema:      moveFileSchema,
		Run:         MoveFile(cwd),
	})
	r.add(Definition{
		Name:        "mkdir",
		Description: "Create a directory, recursively by default.",
		Schema:      mkdirSchema,
		Run:         Mkdir(cwd),
	})
	r.add(Definition{
		Name:        "apply_patch",
		Description: "Apply a batch of filesystem operations (add, update, write, delete, move, rename, mkdir) as a single precheck-then-execute unit.",
		Schema:      applyPatchSchema,
		Run:         ApplyPatch(cwd),
	})
	r.add(Definition{
		Name:        "run_command",
		Description: "Run a shell command subject to the active security policy and approval mode.",
		Schema:      runCommandSchema,
		Run:         RunCommand(shellCfg),
	})
	return r
}

func (r *Registry) add(d Definition) {
	r.defs[d.Name] = d
	r.order = append(r.order, d.Name)
}

// Lookup returns the named tool's executor.
func (r *Registry) Lookup(name string) (Executor, bool) {
	d, ok := r.defs[name]
	if !ok {
		return nil, false
	}
	return d.Run, true
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// OpenAITools converts the registry into the wire-format tool
// advertisement sent with tool_choice="auto".
func (r *Registry) OpenAITools() []openai.Tool {
	out := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		d := r.defs[name]
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Schema,
			},
		})
	}
	return out
}

func schemaObject(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

var readFileSchema = schemaObject(map[string]any{
	"path":   prop("string", "Path to the file, resolved against the working directory."),
	"offset": prop("integer", "1-based line number to start reading from. Defaults to 1."),
	"limit":  prop("integer", "Maximum number of lines to return. Defaults to 2000."),
}, "path")

var listFilesSchema = schemaObject(map[string]any{
	"path":          prop("string", "Directory to list, defaults to the working directory."),
	"include":       prop("string", "Wildcard pattern (* and ?) matched against file names. Defaults to *."),
	"includeHidden": prop("boolean", "Include dotfiles and dot-directories. Defaults to false."),
	"maxResults":    prop("integer", "Maximum number of files to return. Defaults to 2000."),
})

var searchContentSchema = schemaObject(map[string]any{
	"path":          prop("string", "Directory to search, defaults to the working directory."),
	"pattern":       prop("string", "Regular expression to match against each line."),
	"include":       prop("string", "Wildcard pattern (* and ?) matched against file names. Defaults to *."),
	"caseSensitive": prop("boolean", "Match case-sensitively. Defaults to false."),
	"includeHidden": prop("boolean", "Include dotfiles and dot-directories. Defaults to false."),
	"maxResults":    prop("integer", "Maximum number of matches to return. Defaults to 2000."),
}, "pattern")

var writeFileSchema = schemaObject(map[string]any{
	"path":       prop("string", "Path to write, resolved against the working directory."),
	"content":    prop("string", "Content to write."),
	"createDirs": prop("boolean", "Create missing parent directories. Defaults to true."),
	"overwrite":  prop("boolean", "Overwrite an existing file. Defaults to true."),
}, "path", "content")

var deleteFileSchema = schemaObject(map[string]any{
	"path":      prop("string", "Path to delete, resolved against the working directory."),
	"recursive": prop("boolean", "Required true to delete a non-empty directory."),
}, "path")

var moveFileSchema = schemaObject(map[string]any{
	"path":      prop("string", "Existing path, resolved against the working directory."),
	"to":        prop("string", "New path."),
	"overwrite": prop("boolean", "Overwrite an existing destination. Defaults to false."),
}, "path", "to")

var mkdirSchema = schemaObject(map[string]any{
	"path":      prop("string", "Directory to create."),
	"recursive": prop("boolean", "Create missing parent directories. Defaults to true."),
}, "path")

var applyPatchSchema = schemaObject(map[string]any{
	"operations": map[string]any{
		"type":        "array",
		"description": "Ordered list of filesystem operations to apply as a unit.",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"op":        prop("string", "One of add, update, write, delete, move, rename, mkdir."),
				"path":      prop("string", "Target path for the operation."),
				"content":   prop("string", "File content for add/update/write operations."),
				"to":        prop("string", "Destination path for move/rename operations."),
				"recursive": prop("boolean", "Required true to delete a non-empty directory."),
				"overwrite": prop("boolean", "Overwrite an existing destination for move/rename."),
			},
			"required": []string{"op", "path"},
		},
	},
}, "operations")

var runCommandSchema = schemaObject(map[string]any{
	"cmd": prop("string", "Shell command to execute under the active security policy."),
}, "cmd")
