// Package cliopts implements the Option Resolver: CLI token parsing, the
// environment-variable overlay, and validation against the runtime
// enumerations.
package cliopts

import (
	"strconv"
	"strings"

	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

// Options is the result of parsing argv, before environment overlay or
// merging with config-file/defaults.
type Options struct {
	Message           string
	Model             string
	ConfigPath        string
	AuthConfigPath    string
	Profile           config.Profile
	Approval          config.ApprovalMode
	Tools             config.ToolsMode
	Files             []string
	Images            []string
	SystemPrompt      *string // nil = unset; non-nil (incl. "") = explicitly set
	MaxFileBytes      *int
	MaxImageBytes     *int
	MaxFiles          *int
	MaxImages         *int
	CommandTimeoutMs  int
	AllowInsecureHTTP bool
	JSON              bool
	JSONSchema        bool
	Stream            bool
	Verbose           bool
	Debug             bool
	Log               bool
	LogFile           string
	Stats             bool
	StatsTopN         int
	Help              bool
	Version           bool
}

// Parse walks argv (excluding argv[0]) left to right, recognizing the
// documented long/short flags. Unknown flags are ignored for forward
// compatibility.
func Parse(argv []string) (Options, error) {
	var opts Options

	next := func(i int) (string, int, bool) {
		if i+1 < len(argv) {
			return argv[i+1], i + 1, true
		}
		return "", i, false
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch arg {
		case "--message", "-m":
			if v, ni, ok := next(i); ok {
				opts.Message = v
				i = ni
			}
		case "--model":
			if v, ni, ok := next(i); ok {
				opts.Model = v
				i = ni
			}
		case "--config":
			if v, ni, ok := next(i); ok {
				opts.ConfigPath = v
				i = ni
			}
		case "--auth-config":
			if v, ni, ok := next(i); ok {
				opts.AuthConfigPath = v
				i = ni
			}
		case "--profile":
			if v, ni, ok := next(i); ok {
				p := config.Profile(v)
				if !validProfile(p) {
					return opts, errs.New(errs.CodeInvalidOption, "invalid --profile value: "+v)
				}
				opts.Profile = p
				i = ni
			}
		case "--approval":
			if v, ni, ok := next(i); ok {
				a := config.ApprovalMode(v)
				if !validApproval(a) {
					return opts, errs.New(errs.CodeInvalidOption, "invalid --approval value: "+v)
				}
				opts.Approval = a
				i = ni
			}
		case "--tools":
			if v, ni, ok := next(i); ok {
				tm := config.ToolsMode(v)
				if !validToolsMode(tm) {
					return opts, errs.New(errs.CodeInvalidOption, "invalid --tools value: "+v)
				}
				opts.Tools = tm
				i = ni
			}
		case "--no-tools":
			opts.Tools = config.ToolsOff
		case "--yes":
			opts.Approval = config.ApprovalAuto
		case "--unsafe":
			opts.Profile = config.ProfileFramework
		case "--file":
			if v, ni, ok := next(i); ok {
				opts.Files = append(opts.Files, v)
				i = ni
			}
		case "--image":
			if v, ni, ok := next(i); ok {
				opts.Images = append(opts.Images, v)
				i = ni
			}
		case "--system-prompt":
			if v, ni, ok := next(i); ok {
				opts.SystemPrompt = &v
				i = ni
			}
		case "--max-file-bytes":
			if v, ni, ok := next(i); ok {
				n, err := parseNonNegativeInt(v)
				if err != nil {
					return opts, err
				}
				opts.MaxFileBytes = &n
				i = ni
			}
		case "--max-image-bytes":
			if v, ni, ok := next(i); ok {
				n, err := parseNonNegativeInt(v)
				if err != nil {
					return opts, err
				}
				opts.MaxImageBytes = &n
				i = ni
			}
		case "--max-files":
			if v, ni, ok := next(i); ok {
				n, err := parseNonNegativeInt(v)
				if err != nil {
					return opts, err
				}
				opts.MaxFiles = &n
				i = ni
			}
		case "--max-images":
			if v, ni, ok := next(i); ok {
				n, err := parseNonNegativeInt(v)
				if err != nil {
					return opts, err
				}
				opts.MaxImages = &n
				i = ni
			}
		case "--command-timeout":
			if v, ni, ok := next(i); ok {
				n, err := strconv.Atoi(v)
				if err != nil {
					return opts, errs.New(errs.CodeInvalidOption, "invalid --command-timeout value: "+v)
				}
				opts.CommandTimeoutMs = n
				i = ni
			}
		case "--allow-insecure-http":
			opts.AllowInsecureHTTP = true
		case "--json":
			opts.JSON = true
		case "--json-schema":
			opts.JSONSchema = true
		case "--stream":
			opts.Stream = true
		case "--verbose":
			opts.Verbose = true
		case "--debug":
			opts.Debug = true
			opts.Verbose = true
		case "--log":
			opts.Log = true
		case "--log-file":
			if v, ni, ok := next(i); ok {
				opts.Log = true
				opts.LogFile = v
				i = ni
			}
		case "--stats":
			opts.Stats = true
			if v, ni, ok := next(i); ok {
				if n, err := strconv.Atoi(v); err == nil {
					opts.StatsTopN = n
					i = ni
				}
			}
		case "--help", "-h":
			opts.Help = true
		case "--version", "-V":
			opts.Version = true
		default:
			// unrecognized flags are ignored for forward compatibility
		}
	}

	return opts, nil
}

func parseNonNegativeInt(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errs.New(errs.CodeAttachmentLimitInvalid, "invalid non-negative integer: "+v)
	}
	return n, nil
}

func validProfile(p config.Profile) bool {
	switch p {
	case config.ProfileSafe, config.ProfileDev, config.ProfileFramework:
		return true
	}
	return false
}

func validApproval(a config.ApprovalMode) bool {
	switch a {
	case config.ApprovalAsk, config.ApprovalAuto, config.ApprovalNever:
		return true
	}
	return false
}

func validToolsMode(m config.ToolsMode) bool {
	switch m {
	case config.ToolsAuto, config.ToolsOn, config.ToolsOff:
		return true
	}
	return false
}

// truthyEnv reports whether an environment value is one of the accepted
// truthy spellings.
func truthyEnv(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
