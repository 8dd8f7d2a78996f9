// Package errs defines the stable error-code taxonomy shared by every layer
// of the agent runtime (spec.md §7 ERROR HANDLING DESIGN).
package errs

import "fmt"

// Code is one of the stable machine-readable error codes from spec.md §7.
type Code string

const (
	// Config
	CodeConfigInvalid Code = "AGENT_CONFIG_INVALID"
	CodeConfigError   Code = "AGENT_CONFIG_ERROR"
	CodeAuthInvalid   Code = "AUTH_CONFIG_INVALID"
	CodeAuthError     Code = "AUTH_CONFIG_ERROR"

	// Provider selection / URL
	CodeProviderNotConfigured Code = "PROVIDER_NOT_CONFIGURED"
	CodeInvalidBaseURL        Code = "INVALID_BASE_URL"
	CodeInsecureBaseURL       Code = "INSECURE_BASE_URL"

	// Option validation
	CodeInvalidOption          Code = "INVALID_OPTION"
	CodeAttachmentLimitInvalid Code = "ATTACHMENT_LIMIT_INVALID"

	// Attachments
	CodeAttachmentNotFound        Code = "ATTACHMENT_NOT_FOUND"
	CodeAttachmentUnreadable      Code = "ATTACHMENT_UNREADABLE"
	CodeAttachmentTooLarge        Code = "ATTACHMENT_TOO_LARGE"
	CodeAttachmentTooManyFiles    Code = "ATTACHMENT_TOO_MANY_FILES"
	CodeAttachmentTooManyImages   Code = "ATTACHMENT_TOO_MANY_IMAGES"
	CodeAttachmentTypeUnsupported Code = "ATTACHMENT_TYPE_UNSUPPORTED"

	// Approval
	CodeInteractiveApprovalJSON Code = "INTERACTIVE_APPROVAL_JSON"
	CodeInteractiveApprovalTTY  Code = "INTERACTIVE_APPROVAL_TTY"

	// Capability
	CodeToolsNotSupported  Code = "TOOLS_NOT_SUPPORTED"
	CodeVisionNotSupported Code = "VISION_NOT_SUPPORTED"

	// Transport
	CodeFetchTimeout   Code = "FETCH_TIMEOUT"
	CodeRetryExhausted Code = "RETRY_EXHAUSTED"

	// Tool
	CodeToolInvalidArgs         Code = "TOOL_INVALID_ARGS"
	CodeToolNotFound            Code = "TOOL_NOT_FOUND"
	CodeToolInvalidPattern      Code = "TOOL_INVALID_PATTERN"
	CodeToolUnsupportedFileType Code = "TOOL_UNSUPPORTED_FILE_TYPE"
	CodeToolConflict            Code = "TOOL_CONFLICT"
	CodeToolUnknown             Code = "TOOL_UNKNOWN"
	CodeToolExecutionError      Code = "TOOL_EXECUTION_ERROR"

	// Terminal state
	CodeMaxToolTurnsNoFinal Code = "MAX_TOOL_TURNS_NO_FINAL"

	// Fallback
	CodeRuntimeError Code = "RUNTIME_ERROR"
)

// Error is the structured error type threaded through every layer. The
// Message is human-readable and MUST be redacted (see internal/result.Redact)
// before logging or JSON emission; Code is stable and machine-readable.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// New builds an *Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an *Error that carries an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// CodeOf extracts the Code from err if it is (or wraps) an *Error, defaulting
// to fallback otherwise.
func CodeOf(err error, fallback Code) Code {
	var e *Error
	if asError(err, &e) {
		return e.Code
	}
	return fallback
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
