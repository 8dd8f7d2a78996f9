package tools

import (
	"runtime"
	"testing"

	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
	"github.com/Ad4m2017/agent-cli-sub000/internal/policy"
)

type fakeApprover struct {
	approve bool
	err     error
	calls   int
}

func (f *fakeApprover) Approve(toolName string, profile config.Profile, command string) (bool, error) {
	f.calls++
	return f.approve, f.err
}

func baseShellConfig(dir string) ShellConfig {
	return ShellConfig{
		Cwd:    dir,
		Engine: policy.NewEngine(),
		Policy: config.SecurityPolicy{
			Modes: map[config.Profile]config.ModePolicy{
				config.ProfileSafe: {Allow: []config.Rule{"*"}},
			},
		},
		Profile:          config.ProfileSafe,
		ApprovalMode:     config.ApprovalAuto,
		CommandTimeoutMs: 5000,
	}
}

func TestRunCommand_HappyPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix-only test")
	}
	dir := t.TempDir()
	result := RunCommand(baseShellConfig(dir))(mustJSON(t, map[string]any{"cmd": "echo hello"}))
	if !result.OK {
		t.Fatalf("unexpected failure: %+v", result)
	}
	if result.Data["code"] != 0 {
		t.Fatalf("expected exit code 0, got %v", result.Data["code"])
	}
	if result.Data["executionMode"] != "shell" {
		t.Fatalf("expected executionMode=shell, got %v", result.Data["executionMode"])
	}
}

func TestRunCommand_DeniedByPolicy(t *testing.T) {
	cfg := baseShellConfig(t.TempDir())
	cfg.Policy = config.SecurityPolicy{
		DenyCritical: []config.Rule{"rm -rf"},
		Modes: map[config.Profile]config.ModePolicy{
			config.ProfileSafe: {Allow: []config.Rule{"*"}},
		},
	}

	result := RunCommand(cfg)(mustJSON(t, map[string]any{"cmd": "rm -rf /"}))
	if result.OK {
		t.Fatal("expected policy denial")
	}
	if result.Data["blocked"] != true {
		t.Fatalf("expected blocked=true, got %+v", result.Data)
	}
	pol, ok := result.Data["policy"].(map[string]any)
	if !ok {
		t.Fatalf("expected policy object, got %+v", result.Data)
	}
	if pol["source"] != "denyCritical" || pol["rule"] != "rm -rf" {
		t.Fatalf("expected policy.source=denyCritical and policy.rule=rm -rf, got %+v", pol)
	}
}

func TestRunCommand_ApprovalNeverRejects(t *testing.T) {
	cfg := baseShellConfig(t.TempDir())
	cfg.ApprovalMode = config.ApprovalNever

	result := RunCommand(cfg)(mustJSON(t, map[string]any{"cmd": "echo hi"}))
	if result.OK {
		t.Fatal("expected rejection under approval mode never")
	}
}

func TestRunCommand_AskModeConsultsApprover(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix-only test")
	}
	approver := &fakeApprover{approve: true}
	cfg := baseShellConfig(t.TempDir())
	cfg.ApprovalMode = config.ApprovalAsk
	cfg.Approver = approver

	result := RunCommand(cfg)(mustJSON(t, map[string]any{"cmd": "echo hi"}))
	if !result.OK {
		t.Fatalf("unexpected failure: %+v", result)
	}
	if approver.calls != 1 {
		t.Fatalf("expected approver to be consulted once, got %d", approver.calls)
	}
}

func TestRunCommand_AskModeDeniedByApprover(t *testing.T) {
	approver := &fakeApprover{approve: false}
	cfg := baseShellConfig(t.TempDir())
	cfg.ApprovalMode = config.ApprovalAsk
	cfg.Approver = approver

	result := RunCommand(cfg)(mustJSON(t, map[string]any{"cmd": "echo hi"}))
	if result.OK {
		t.Fatal("expected rejection when approver declines")
	}
	if result.Data["reason"] != "user_denied" {
		t.Fatalf("expected reason=user_denied, got %+v", result.Data)
	}
}

func TestRunCommand_MissingCommandFails(t *testing.T) {
	cfg := baseShellConfig(t.TempDir())
	result := RunCommand(cfg)(mustJSON(t, map[string]any{"cmd": ""}))
	if result.Code != "TOOL_INVALID_ARGS" {
		t.Fatalf("expected TOOL_INVALID_ARGS, got %s", result.Code)
	}
}
