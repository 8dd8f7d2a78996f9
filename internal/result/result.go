// Package result shapes the final JSON document emitted on stdout and maps
// terminal conditions to process exit codes.
package result

import (
	"encoding/json"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

// Health summarizes tool-call reliability for one run.
type Health struct {
	RetriesUsed         int     `json:"retriesUsed"`
	ToolCallsTotal      int     `json:"toolCallsTotal"`
	ToolCallsFailed     int     `json:"toolCallsFailed"`
	ToolCallFailureRate float64 `json:"toolCallFailureRate"`
}

// AttachmentSummary lists the paths actually attached to the run.
type AttachmentSummary struct {
	Files  []string `json:"files"`
	Images []string `json:"images"`
}

// Document is the complete shape of the JSON result written to stdout.
type Document struct {
	OK            bool                       `json:"ok"`
	Provider      string                     `json:"provider"`
	Model         string                     `json:"model"`
	Profile       string                     `json:"profile"`
	Mode          string                     `json:"mode"`
	ApprovalMode  string                     `json:"approvalMode"`
	ToolsMode     string                     `json:"toolsMode"`
	ToolsEnabled  bool                       `json:"toolsEnabled"`
	ToolsFallback bool                       `json:"toolsFallbackUsed"`
	Health        Health                     `json:"health"`
	Attachments   AttachmentSummary          `json:"attachments"`
	Usage         chatmodel.Usage            `json:"usage"`
	Message       string                     `json:"message,omitempty"`
	ToolCalls     []chatmodel.ToolCallRecord `json:"toolCalls"`
	TimingMs      int64                      `json:"timingMs"`
	Error         *ErrorDetail               `json:"error,omitempty"`
}

// ErrorDetail is the error shape embedded in a failing Document.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Params bundles the run metadata needed to shape a Document.
type Params struct {
	Provider      string
	Model         string
	Profile       config.Profile
	Mode          string
	ApprovalMode  config.ApprovalMode
	ToolsMode     config.ToolsMode
	ToolsEnabled  bool
	ToolsFallback bool
	Usage         chatmodel.Usage
	RetriesUsed   int
	ToolCalls     []chatmodel.ToolCallRecord
	Files         []string
	Images        []string
	TimingMs      int64
}

// BuildSuccess shapes a successful run's Document. Testable Property 4:
// len(ToolCalls) always equals Health.ToolCallsTotal, and ToolCallsFailed
// always equals the count of !ok records within it.
func BuildSuccess(p Params, message string) Document {
	return build(p, true, message, nil)
}

// BuildError shapes a failing run's Document, carrying a stable error code
// and a redacted message.
func BuildError(p Params, err error) Document {
	code := string(errs.CodeOf(err, errs.CodeRuntimeError))
	msg := RedactString(err.Error())
	doc := build(p, false, "", &ErrorDetail{Code: code, Message: msg})
	return doc
}

func build(p Params, ok bool, message string, errDetail *ErrorDetail) Document {
	total := len(p.ToolCalls)
	failed := 0
	for _, tc := range p.ToolCalls {
		if !tc.OK {
			failed++
		}
	}
	rate := 0.0
	if total > 0 {
		rate = float64(failed) / float64(total)
	}

	files := p.Files
	if files == nil {
		files = []string{}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	calls := p.ToolCalls
	if calls == nil {
		calls = []chatmodel.ToolCallRecord{}
	}

	return Document{
		OK:            ok,
		Provider:      p.Provider,
		Model:         p.Model,
		Profile:       string(p.Profile),
		Mode:          p.Mode,
		ApprovalMode:  string(p.ApprovalMode),
		ToolsMode:     string(p.ToolsMode),
		ToolsEnabled:  p.ToolsEnabled,
		ToolsFallback: p.ToolsFallback,
		Health: Health{
			RetriesUsed:         p.RetriesUsed,
			ToolCallsTotal:      total,
			ToolCallsFailed:     failed,
			ToolCallFailureRate: rate,
		},
		Attachments: AttachmentSummary{Files: files, Images: images},
		Usage:       p.Usage,
		Message:     RedactString(message),
		ToolCalls:   calls,
		TimingMs:    p.TimingMs,
		Error:       errDetail,
	}
}

// Marshal renders doc as a JSON document terminated by a trailing newline.
func Marshal(doc Document) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// exitCodes maps stable error codes to process exit codes.
var exitCodes = map[errs.Code]int{
	errs.CodeConfigInvalid:             2,
	errs.CodeConfigError:               2,
	errs.CodeAuthInvalid:               3,
	errs.CodeAuthError:                 3,
	errs.CodeProviderNotConfigured:     4,
	errs.CodeInvalidBaseURL:            4,
	errs.CodeInsecureBaseURL:           4,
	errs.CodeInvalidOption:             2,
	errs.CodeAttachmentLimitInvalid:    9,
	errs.CodeAttachmentNotFound:        9,
	errs.CodeAttachmentUnreadable:      9,
	errs.CodeAttachmentTooLarge:        9,
	errs.CodeAttachmentTooManyFiles:    9,
	errs.CodeAttachmentTooManyImages:   9,
	errs.CodeAttachmentTypeUnsupported: 9,
	errs.CodeInteractiveApprovalJSON:   5,
	errs.CodeInteractiveApprovalTTY:    5,
	errs.CodeToolsNotSupported:         6,
	errs.CodeVisionNotSupported:        6,
	errs.CodeFetchTimeout:              7,
	errs.CodeRetryExhausted:            8,
}

// ExitCode maps err to the process exit code it should produce. Unmapped
// codes (including the generic runtime fallback) return 1.
func ExitCode(err error) int {
	code := errs.CodeOf(err, errs.CodeRuntimeError)
	if ec, ok := exitCodes[code]; ok {
		return ec
	}
	return 1
}

// SignalExitCode maps a terminating signal number to its conventional
// 128+n exit code (130 for SIGINT, 143 for SIGTERM).
func SignalExitCode(signalNum int) int {
	return 128 + signalNum
}
