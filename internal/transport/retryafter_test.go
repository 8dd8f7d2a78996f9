package transport

import (
	"testing"
	"time"
)

func TestParseRetryAfter_DeltaSeconds(t *testing.T) {
	ms, ok := ParseRetryAfter("5", 30000)
	if !ok || ms != 5000 {
		t.Fatalf("expected 5000ms, got %d ok=%v", ms, ok)
	}
}

func TestParseRetryAfter_CapsToMax(t *testing.T) {
	ms, ok := ParseRetryAfter("120", 30000)
	if !ok || ms != 30000 {
		t.Fatalf("expected capped 30000ms, got %d ok=%v", ms, ok)
	}
}

func TestParseRetryAfter_HTTPDate(t *testing.T) {
	future := time.Now().Add(10 * time.Second).UTC().Format(httpDateFormat())
	ms, ok := ParseRetryAfter(future, 30000)
	if !ok {
		t.Fatalf("expected HTTP-date to parse")
	}
	if ms < 8000 || ms > 10000 {
		t.Fatalf("expected ~10000ms, got %d", ms)
	}
}

func TestParseRetryAfter_PastDateClampsToZero(t *testing.T) {
	past := time.Now().Add(-10 * time.Second).UTC().Format(httpDateFormat())
	ms, ok := ParseRetryAfter(past, 30000)
	if !ok || ms != 0 {
		t.Fatalf("expected 0ms for past date, got %d ok=%v", ms, ok)
	}
}

func TestParseRetryAfter_EmptyHeaderReturnsFalse(t *testing.T) {
	_, ok := ParseRetryAfter("", 30000)
	if ok {
		t.Fatal("expected ok=false for empty header")
	}
}

func TestParseRetryAfter_GarbageReturnsFalse(t *testing.T) {
	_, ok := ParseRetryAfter("not-a-delay", 30000)
	if ok {
		t.Fatal("expected ok=false for unparseable header")
	}
}

func httpDateFormat() string {
	return time.RFC1123
}
