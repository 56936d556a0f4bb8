package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWith_AttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithUserID(ctx, "user-1")
	ctx = WithOrderRef(ctx, "order_abc")

	With(ctx, &base).Info().Msg("hello")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	for k, want := range map[string]string{"trace_id": "trace-1", "user_id": "user-1", "order_ref": "order_abc"} {
		if got[k] != want {
			t.Errorf("%s: want %q, got %v", k, want, got[k])
		}
	}
	if TraceID(ctx) != "trace-1" {
		t.Errorf("TraceID: got %q", TraceID(ctx))
	}
}

func TestRedact(t *testing.T) {
	if Redact("pay_ABCDEFGH12", false) != "pay_...12" {
		t.Errorf("unexpected redaction: %q", Redact("pay_ABCDEFGH12", false))
	}
	if Redact("short", false) != "***" {
		t.Errorf("short values must be fully hidden")
	}
	if Redact("pay_ABCDEFGH12", true) != "pay_ABCDEFGH12" {
		t.Errorf("dev mode must not redact")
	}
}
