package transport

import (
	"strings"
	"testing"
)

func TestReadStream_ConcatenatesDeltaTextAndEmitsSink(t *testing.T) {
	body := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
		`data: {"choices":[{"delta":{"content":", world"}}]}`,
		`data: {"choices":[{"delta":{"content":"!"}}],"usage":{"total_tokens":12}}`,
		`data: [DONE]`,
		"",
	}, "\n\n")

	var sunk []string
	resp, err := ReadStream(strings.NewReader(body), "gpt-4o", func(text string) {
		sunk = append(sunk, text)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("expected synthesized single choice, got %d", len(resp.Choices))
	}
	if resp.Choices[0].Message.Content != "Hello, world!" {
		t.Fatalf("unexpected synthesized content: %q", resp.Choices[0].Message.Content)
	}
	if strings.Join(sunk, "") != "Hello, world!" {
		t.Fatalf("unexpected sink sequence: %v", sunk)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 12 {
		t.Fatalf("expected usage to be captured, got %+v", resp.Usage)
	}
}

func TestReadStream_HandlesArrayPartsContent(t *testing.T) {
	body := `data: {"choices":[{"delta":{"content":[{"type":"text","text":"foo"},{"type":"text","text":"bar"}]}}]}` + "\n\ndata: [DONE]\n\n"
	resp, err := ReadStream(strings.NewReader(body), "claude", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Choices[0].Message.Content != "foobar" {
		t.Fatalf("unexpected content: %q", resp.Choices[0].Message.Content)
	}
}

func TestReadStream_SkipsMalformedLines(t *testing.T) {
	body := "data: not json\n\ndata: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\ndata: [DONE]\n\n"
	resp, err := ReadStream(strings.NewReader(body), "m", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Choices[0].Message.Content != "ok" {
		t.Fatalf("unexpected content: %q", resp.Choices[0].Message.Content)
	}
}
