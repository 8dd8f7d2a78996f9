// Package tools implements the Tool Executor set: filesystem operations and
// the shell-executing run_command, each returning a uniform ToolResult
// envelope (spec.md 4.G).
package tools

import (
	"encoding/json"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

// Executor runs one named tool against its argument object.
type Executor func(rawArgs json.RawMessage) chatmodel.ToolResult

// Ok builds a successful ToolResult carrying payload data.
func Ok(data map[string]any) chatmodel.ToolResult {
	return chatmodel.ToolResult{OK: true, Data: data}
}

// Fail builds a failing ToolResult with a stable error code.
func Fail(code errs.Code, message string) chatmodel.ToolResult {
	return chatmodel.ToolResult{OK: false, Code: string(code), Error: message}
}

// FailFromErr extracts a code/message pair from err, defaulting to
// TOOL_EXECUTION_ERROR when err does not carry a stable code.
func FailFromErr(err error) chatmodel.ToolResult {
	code := errs.CodeOf(err, errs.CodeToolExecutionError)
	return chatmodel.ToolResult{OK: false, Code: string(code), Error: err.Error()}
}

// FailWithData builds a failing ToolResult that also carries extra
// machine-readable fields (e.g. blocked/policy/reason) alongside the
// stable error code, per spec.md 4.G.1.
func FailWithData(code errs.Code, message string, data map[string]any) chatmodel.ToolResult {
	return chatmodel.ToolResult{OK: false, Code: string(code), Error: message, Data: data}
}
