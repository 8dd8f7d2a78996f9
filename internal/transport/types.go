// Package transport implements the HTTP Transport subsystem: per-request
// timeout, retry/backoff with Retry-After handling, and an SSE-style
// streaming reader for OpenAI-compatible chat completions (spec.md 4.E).
package transport

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"
)

// ChatRequest is the wire body for POST <base>/chat/completions.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []WireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Tools       []openai.Tool `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// WireMessage is one chat message in the request body. Content is either a
// plain string or an ordered list of typed parts; MarshalJSON picks whichever
// the message actually carries.
type WireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"-"`
	Parts      []WirePart     `json:"-"`
	Name       string         `json:"-"`
	ToolCalls  []WireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// WirePart is one element of a multi-part message content array.
type WirePart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *WireImageURL `json:"image_url,omitempty"`
}

// WireImageURL carries a data: URL or remote image URL.
type WireImageURL struct {
	URL string `json:"url"`
}

// WireToolCall mirrors the tool_calls array inside an assistant message.
type WireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function WireFunctionCall `json:"function"`
}

// WireFunctionCall is the {name, arguments} pair inside a WireToolCall.
type WireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireMessageJSON struct {
	Role       string         `json:"role"`
	Content    any            `json:"content,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []WireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// MarshalJSON serializes Content as a string when Parts is empty, and as a
// typed part array otherwise (spec.md 4.I buildUserMessageContent shape).
func (m WireMessage) MarshalJSON() ([]byte, error) {
	out := wireMessageJSON{
		Role:       m.Role,
		Name:       m.Name,
		ToolCalls:  m.ToolCalls,
		ToolCallID: m.ToolCallID,
	}
	if len(m.Parts) > 0 {
		out.Content = m.Parts
	} else {
		out.Content = m.Content
	}
	return json.Marshal(out)
}

// ChatResponse is the wire body returned by a non-streaming chat completion.
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *ChatUsage   `json:"usage,omitempty"`
}

// ChatChoice is one element of ChatResponse.Choices.
type ChatChoice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

// ResponseMessage is the assistant message returned for a choice.
type ResponseMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []WireToolCall `json:"tool_calls,omitempty"`
}

// ChatUsage mirrors the usage block of a chat completion response, tolerant
// of providers that report prompt/completion tokens instead of input/output.
type ChatUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	InputTokens      int64 `json:"input_tokens"`
	OutputTokens     int64 `json:"output_tokens"`
}
