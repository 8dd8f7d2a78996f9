package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
	"github.com/Ad4m2017/agent-cli-sub000/internal/policy"
)

// Approver gates a run_command invocation pending human confirmation. It is
// satisfied by internal/approval.Prompter; defined here to avoid an import
// cycle between tools and approval.
type Approver interface {
	Approve(toolName string, profile config.Profile, command string) (bool, error)
}

const maxCapturedOutputBytes = 1 << 20 // 1MiB per stream

// ShellConfig bundles everything run_command needs to evaluate policy,
// request approval, and bound a subprocess.
type ShellConfig struct {
	Cwd              string
	Engine           *policy.Engine
	Policy           config.SecurityPolicy
	Profile          config.Profile
	ApprovalMode     config.ApprovalMode
	CommandTimeoutMs int
	Approver         Approver
}

type runCommandArgs struct {
	Command string `json:"cmd"`
}

type limitedBuffer struct {
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.buf.Len() >= b.limit {
		b.overflow = true
		return len(p), nil
	}
	remaining := b.limit - b.buf.Len()
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.overflow = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

// RunCommand implements run_command: policy evaluation, then optional
// interactive approval, then execution under the platform's default shell
// with a bounded timeout and capped output capture.
func RunCommand(cfg ShellConfig) Executor {
	return func(raw json.RawMessage) chatmodel.ToolResult {
		var args runCommandArgs
		if err := json.Unmarshal(raw, &args); err != nil || strings.TrimSpace(args.Command) == "" {
			return Fail(errs.CodeToolInvalidArgs, "cmd is required")
		}

		decision := cfg.Engine.Evaluate(args.Command, cfg.Profile, cfg.Policy)
		if !decision.Allowed {
			return FailWithData(errs.CodeToolInvalidArgs, "command denied by policy ("+string(decision.Source)+")", map[string]any{
				"blocked": true,
				"policy": map[string]any{
					"source": string(decision.Source),
					"rule":   string(decision.Rule),
				},
			})
		}

		if cfg.ApprovalMode == config.ApprovalAsk {
			if cfg.Approver == nil {
				return Fail(errs.CodeInteractiveApprovalTTY, "approval required but no approver is configured")
			}
			approved, err := cfg.Approver.Approve("run_command", cfg.Profile, args.Command)
			if err != nil {
				return FailFromErr(err)
			}
			if !approved {
				return FailWithData(errs.CodeToolInvalidArgs, "command rejected by operator", map[string]any{
					"reason": "user_denied",
				})
			}
		} else if cfg.ApprovalMode == config.ApprovalNever {
			return Fail(errs.CodeToolInvalidArgs, "run_command is disabled under approval mode never")
		}

		timeoutMs := config.ResolveCommandTimeoutMs(cfg.CommandTimeoutMs)
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMs)*time.Millisecond)
		defer cancel()

		shellName, shellArgs := platformShell()
		cmd := exec.CommandContext(ctx, shellName, append(shellArgs, args.Command)...)
		cmd.Dir = cfg.Cwd

		var stdout, stderr limitedBuffer
		stdout.limit = maxCapturedOutputBytes
		stderr.limit = maxCapturedOutputBytes
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		runErr := cmd.Run()
		timedOut := ctx.Err() == context.DeadlineExceeded

		exitCode := 0
		if runErr != nil {
			if exitErr, ok := runErr.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else if !timedOut {
				exitCode = -1
			}
		}

		return Ok(map[string]any{
			"ok":            runErr == nil || (exitCode == 0 && !timedOut),
			"executionMode": "shell",
			"backend":       shellName,
			"stdout":        stdout.buf.String(),
			"stderr":        stderr.buf.String(),
			"code":          exitCode,
			"timedOut":      timedOut,
			"cmd":           args.Command,
			"approvalMode":  string(cfg.ApprovalMode),
			"stdoutTrunc":   stdout.overflow,
			"stderrTrunc":   stderr.overflow,
		})
	}
}

func platformShell() (string, []string) {
	if runtime.GOOS == "windows" {
		if _, err := exec.LookPath("powershell.exe"); err == nil {
			return "powershell.exe", []string{"-NoProfile", "-NonInteractive", "-Command"}
		}
		return "cmd.exe", []string{"/d", "/s", "/c"}
	}
	if _, err := exec.LookPath("/bin/sh"); err == nil {
		return "/bin/sh", []string{"-lc"}
	}
	return "sh", []string{"-lc"}
}
