// Package chatmodel holds the message, tool-call, and tool-result types
// shared by the transport, capability, tool, and turn-loop packages.
package chatmodel

import "encoding/json"

// Role identifies who produced a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentPartType enumerates the kinds of content a Message part may carry.
type ContentPartType string

const (
	ContentText      ContentPartType = "text"
	ContentImageURL  ContentPartType = "image_url"
	ContentReference ContentPartType = "file_reference"
)

// ContentPart is one element of a multi-part message body.
type ContentPart struct {
	Type ContentPartType `json:"type"`
	Text string          `json:"text,omitempty"`
	// ImageURL carries a data: URL or remote URL for ContentImageURL parts.
	ImageURL string `json:"image_url,omitempty"`
	// Path identifies the referenced file for ContentReference parts.
	Path string `json:"path,omitempty"`
}

// ToolCall is a structured request from the model to invoke a named tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult is the uniform envelope every tool executor returns.
type ToolResult struct {
	OK    bool           `json:"ok"`
	Code  string         `json:"code,omitempty"`
	Error string         `json:"error,omitempty"`
	Data  map[string]any `json:"-"`
}

// MarshalJSON flattens Data alongside the envelope fields so callers see a
// single JSON object rather than a nested "data" key.
func (r ToolResult) MarshalJSON() ([]byte, error) {
	out := map[string]any{"ok": r.OK}
	if r.Code != "" {
		out["code"] = r.Code
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	for k, v := range r.Data {
		out[k] = v
	}
	return json.Marshal(out)
}

// ToolCallRecord is the externally observable, normalized record of one
// executed tool call (spec.md Data Model: ToolCallRecord).
type ToolCallRecord struct {
	Tool   string          `json:"tool"`
	Input  json.RawMessage `json:"input"`
	OK     bool            `json:"ok"`
	Result *ToolResult     `json:"result,omitempty"`
	Error  *RecordError    `json:"error,omitempty"`
	Meta   RecordMeta      `json:"meta"`
}

// RecordError is the error shape embedded in a failed ToolCallRecord.
type RecordError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// RecordMeta carries timing metadata for a ToolCallRecord.
type RecordMeta struct {
	DurationMs int64 `json:"duration_ms"`
	TS         int64 `json:"ts"`
}

// Message is one chat element in the turn loop's conversation.
type Message struct {
	Role Role `json:"role"`
	// Content is either a plain string or, when len(Parts) > 0, ignored in
	// favor of Parts (see MarshalJSON).
	Content string `json:"content,omitempty"`
	Parts   []ContentPart
	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID references the originating ToolCall for role=tool messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// Attachment is a validated file or image ready to be embedded in a user
// message (spec.md Data Model: Attachment).
type Attachment struct {
	Kind     string // "file" or "image"
	Path     string
	Size     int64
	Content  string // UTF-8 text content, files only
	MimeType string // images only
	DataURL  string // base64 data URL, images only
}

// Usage aggregates token counts across one or more completion calls.
type Usage struct {
	Turns          int   `json:"turns"`
	TurnsWithUsage int   `json:"turns_with_usage"`
	InputTokens    int64 `json:"input_tokens"`
	OutputTokens   int64 `json:"output_tokens"`
	TotalTokens    int64 `json:"total_tokens"`
	HasUsage       bool  `json:"has_usage"`
}

// Add folds one request's usage into the aggregate.
func (u *Usage) Add(input, output, total int64, has bool) {
	u.Turns++
	if has {
		u.TurnsWithUsage++
		u.InputTokens += input
		u.OutputTokens += output
		if total == 0 {
			total = input + output
		}
		u.TotalTokens += total
		u.HasUsage = true
	}
}
