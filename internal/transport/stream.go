package transport

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// streamChunk is one parsed `data: {...}` SSE event from a streaming chat
// completion. Delta.Content arrives as either a plain string or an array of
// {text} parts depending on provider, so it is decoded manually.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content json.RawMessage `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *ChatUsage `json:"usage,omitempty"`
}

// deltaText extracts the concatenated text from a delta.content field that
// may be a JSON string or an array of {text} parts.
func deltaText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var b strings.Builder
		for _, p := range parts {
			b.WriteString(p.Text)
		}
		return b.String()
	}
	return ""
}

// ReadStream consumes an SSE-style `data: <json>` stream, terminated by
// `data: [DONE]`, concatenating assistant delta text through sink as it
// arrives and returning a synthesized ChatResponse shape-identical to a
// non-streaming completion (spec.md 4.E).
func ReadStream(body io.Reader, model string, sink func(text string)) (*ChatResponse, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var fullText strings.Builder
	var usage *ChatUsage

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		for _, choice := range chunk.Choices {
			delta := deltaText(choice.Delta.Content)
			if delta == "" {
				continue
			}
			fullText.WriteString(delta)
			if sink != nil {
				sink(delta)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &ChatResponse{
		Model: model,
		Choices: []ChatChoice{{
			Index:        0,
			Message:      ResponseMessage{Role: "assistant", Content: fullText.String()},
			FinishReason: "stop",
		}},
		Usage: usage,
	}, nil
}
