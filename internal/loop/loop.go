// Package loop drives the chat -> tools -> chat cycle for a single
// invocation: it builds the initial messages, issues chat requests through
// the transport, dispatches any tool calls the model asks for, and folds
// usage and tool-call records into the state it returns.
package loop

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Ad4m2017/agent-cli-sub000/internal/capability"
	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
	"github.com/Ad4m2017/agent-cli-sub000/internal/credentials"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
	"github.com/Ad4m2017/agent-cli-sub000/internal/tools"
	"github.com/Ad4m2017/agent-cli-sub000/internal/transport"
	"github.com/Ad4m2017/agent-cli-sub000/internal/usage"
)

const defaultMaxToolTurns = 10

// Params bundles everything the loop needs for one invocation; it owns
// nothing longer than the call.
type Params struct {
	Client          *http.Client
	Runtime         credentials.Runtime
	Registry        *tools.Registry
	UsageWriter     *usage.Writer
	SystemPrompt    string
	UserText        string
	Files           []chatmodel.Attachment
	Images          []chatmodel.Attachment
	ToolsEnabled    bool
	ToolsMode       config.ToolsMode
	StreamRequested bool
	JSONMode        bool
	MaxToolTurns    int
	TimeoutMs       int
	RetryOptions    transport.RetryOptions
	StreamSink      func(text string)
}

// State is the externally observable result of running the loop: the final
// text (if any), every executed tool call, accumulated usage, and the
// reason the loop stopped.
type State struct {
	FinalText         string
	ToolCallRecords   []chatmodel.ToolCallRecord
	ToolsEnabled      bool
	ToolsFallbackUsed bool
	RetriesUsed       int
	Usage             chatmodel.Usage
	TurnsUsed         int
	Status            string // "completed" or "failed"
}

// Run executes the turn loop to completion or to a terminal failure.
func Run(ctx context.Context, p Params) (State, error) {
	maxTurns := p.MaxToolTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxToolTurns
	}

	st := State{ToolsEnabled: p.ToolsEnabled, ToolCallRecords: []chatmodel.ToolCallRecord{}}

	messages := buildInitialMessages(p.SystemPrompt, p.UserText, p.Files, p.Images)
	streaming := p.StreamRequested

	userOnRetry := p.RetryOptions.OnRetry
	p.RetryOptions.OnRetry = func(attempt int, delay time.Duration) {
		st.RetriesUsed++
		if userOnRetry != nil {
			userOnRetry(attempt, delay)
		}
	}

	for turn := 0; turn < maxTurns; turn++ {
		wireMessages := toWireMessages(messages)

		req := transport.ChatRequest{
			Model:       p.Runtime.Model,
			Messages:    wireMessages,
			Temperature: 0,
		}
		if st.ToolsEnabled {
			req.Tools = p.Registry.OpenAITools()
			req.ToolChoice = "auto"
		}

		useStream := capability.ShouldUseStreaming(streaming, p.JSONMode, st.ToolsEnabled, p.Runtime.Provider)
		req.Stream = useStream

		resp, _, err := doRequest(ctx, p, req, useStream)
		if err != nil {
			msg := err.Error()
			switch {
			case capability.IsToolUnsupportedError(msg):
				if st.ToolsEnabled && p.ToolsMode != config.ToolsOn {
					st.ToolsEnabled = false
					st.ToolsFallbackUsed = true
					turn--
					continue
				}
				return st, errs.New(errs.CodeToolsNotSupported, "model does not support tools")
			case capability.IsVisionUnsupportedError(msg) && len(p.Images) > 0:
				return st, errs.New(errs.CodeVisionNotSupported, "model does not support image input")
			case capability.IsStreamUnsupportedError(msg) && useStream:
				streaming = false
				turn--
				continue
			}
			return st, err
		}

		hasUsage := resp.Usage != nil
		var input, output, total int64
		if hasUsage {
			input, output, total = resolveUsage(*resp.Usage)
		}
		st.Usage.Add(input, output, total, hasUsage)
		st.TurnsUsed++
		if p.UsageWriter != nil {
			_ = p.UsageWriter.Append(usage.Entry{
				Timestamp:    time.Now().UTC().Format(time.RFC3339),
				Provider:     p.Runtime.Provider,
				Model:        p.Runtime.Model,
				RequestCount: 1,
				InputTokens:  input,
				OutputTokens: output,
				TotalTokens:  total,
				HasUsage:     hasUsage,
				EventType:    "chat",
			})
		}

		if len(resp.Choices) == 0 {
			return st, errs.New(errs.CodeRuntimeError, "chat response carried no choices")
		}
		choice := resp.Choices[0].Message

		assistantMsg := chatmodel.Message{
			Role:    chatmodel.RoleAssistant,
			Content: choice.Content,
		}
		for _, tc := range choice.ToolCalls {
			assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, chatmodel.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		messages = append(messages, assistantMsg)

		if len(assistantMsg.ToolCalls) == 0 {
			st.FinalText = choice.Content
			st.Status = "completed"
			return st, nil
		}

		for _, tc := range assistantMsg.ToolCalls {
			record, resultMsg := dispatchToolCall(p.Registry, tc)
			st.ToolCallRecords = append(st.ToolCallRecords, record)
			messages = append(messages, resultMsg)
		}
	}

	st.Status = "failed"
	return st, errs.New(errs.CodeMaxToolTurnsNoFinal, "exhausted max tool turns without a final assistant message")
}

// dispatchToolCall parses arguments, runs the named executor, and shapes the
// externally observable ToolCallRecord plus the tool-role message to append.
func dispatchToolCall(reg *tools.Registry, tc chatmodel.ToolCall) (chatmodel.ToolCallRecord, chatmodel.Message) {
	rawArgs := json.RawMessage(tc.Arguments)
	if !json.Valid(rawArgs) {
		rawArgs = json.RawMessage("{}")
	}

	start := time.Now()
	var result chatmodel.ToolResult
	executor, ok := reg.Lookup(tc.Name)
	if !ok {
		result = tools.Fail(errs.CodeToolUnknown, fmt.Sprintf("unknown tool: %s", tc.Name))
	} else {
		result = executor(rawArgs)
	}
	duration := time.Since(start)

	record := chatmodel.ToolCallRecord{
		Tool:  tc.Name,
		Input: rawArgs,
		OK:    result.OK,
		Meta: chatmodel.RecordMeta{
			DurationMs: duration.Milliseconds(),
			TS:         start.Unix(),
		},
	}
	if result.OK {
		r := result
		record.Result = &r
	} else {
		record.Error = &chatmodel.RecordError{Message: result.Error, Code: result.Code}
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		resultJSON = []byte(`{"ok":false,"code":"TOOL_EXECUTION_ERROR","error":"failed to encode tool result"}`)
	}

	resultMsg := chatmodel.Message{
		Role:       chatmodel.RoleTool,
		Content:    string(resultJSON),
		ToolCallID: tc.ID,
	}
	return record, resultMsg
}

// doRequest issues one chat completion, streaming or not, returning the
// normalized ChatResponse either way.
func doRequest(ctx context.Context, p Params, req transport.ChatRequest, useStream bool) (*transport.ChatResponse, bool, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, false, errs.Wrap(errs.CodeRuntimeError, "failed to encode chat request", err)
	}

	newReq := func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Runtime.BaseURL+"/chat/completions", strings.NewReader(string(body)))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if p.Runtime.APIKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+p.Runtime.APIKey)
		}
		for k, v := range p.Runtime.Headers {
			httpReq.Header.Set(k, v)
		}
		return httpReq, nil
	}

	resp, err := transport.FetchWithRetry(p.Client, newReq, p.TimeoutMs, p.RetryOptions)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if useStream {
		chatResp, err := transport.ReadStream(resp.Body, p.Runtime.Model, p.StreamSink)
		if err != nil {
			return nil, false, err
		}
		return chatResp, true, nil
	}

	var chatResp transport.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, false, errs.Wrap(errs.CodeRuntimeError, "failed to decode chat response", err)
	}
	return &chatResp, false, nil
}

// resolveUsage prefers input/output fields and falls back to prompt/completion
// naming, matching providers that report either shape.
func resolveUsage(u transport.ChatUsage) (input, output, total int64) {
	input = u.InputTokens
	output = u.OutputTokens
	if input == 0 && u.PromptTokens != 0 {
		input = u.PromptTokens
	}
	if output == 0 && u.CompletionTokens != 0 {
		output = u.CompletionTokens
	}
	total = u.TotalTokens
	return input, output, total
}

// toWireMessages converts loop-internal messages to the transport wire
// shape, translating multi-part user content into WirePart lists.
func toWireMessages(messages []chatmodel.Message) []transport.WireMessage {
	out := make([]transport.WireMessage, 0, len(messages))
	for _, m := range messages {
		wm := transport.WireMessage{
			Role:       string(m.Role),
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, transport.WireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: transport.WireFunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		if len(m.Parts) > 0 {
			for _, part := range m.Parts {
				wp := transport.WirePart{Type: string(part.Type), Text: part.Text}
				if part.Type == chatmodel.ContentImageURL {
					wp.ImageURL = &transport.WireImageURL{URL: part.ImageURL}
				}
				wm.Parts = append(wm.Parts, wp)
			}
		} else {
			wm.Content = m.Content
		}
		out = append(out, wm)
	}
	return out
}
