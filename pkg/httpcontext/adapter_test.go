package httpcontext

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/taskpulse/pkg/logger"
)

func TestAttach(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set(HeaderRequestID, "req-42")
	ctx.Request.Header.SetUserAgent("pulse-test")
	SetUserID(&ctx, "u1")

	stdCtx, cancel := NewAdapter(time.Second).Attach(&ctx)
	defer cancel()

	if got := appLogger.RequestID(stdCtx); got != "req-42" {
		t.Errorf("expected inbound request id, got %q", got)
	}
	if got := string(ctx.Response.Header.Peek(HeaderRequestID)); got != "req-42" {
		t.Errorf("expected echoed request id, got %q", got)
	}
	if got, _ := stdCtx.Value(KeyUserAgent).(string); got != "pulse-test" {
		t.Errorf("expected user agent, got %q", got)
	}
	if _, ok := stdCtx.Deadline(); !ok {
		t.Error("expected a deadline")
	}
}

func TestAttachMintsRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing"},
		{name: "blank", header: "   "},
		{name: "too long", header: strings.Repeat("a", maxRequestIDLen+1)},
		{name: "control characters", header: "abc\tdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctx fasthttp.RequestCtx
			if tt.header != "" {
				ctx.Request.Header.Set(HeaderRequestID, tt.header)
			}
			stdCtx, cancel := NewAdapter(0).Attach(&ctx)
			defer cancel()

			got := appLogger.RequestID(stdCtx)
			if got == "" || got == tt.header || len(got) != 36 {
				t.Errorf("expected a fresh uuid, got %q", got)
			}
		})
	}
}

func TestAttachTimeout(t *testing.T) {
	var ctx fasthttp.RequestCtx
	stdCtx, cancel := NewAdapter(10 * time.Millisecond).Attach(&ctx)
	defer cancel()

	select {
	case <-stdCtx.Done():
		if stdCtx.Err() != context.DeadlineExceeded {
			t.Errorf("expected deadline exceeded, got %v", stdCtx.Err())
		}
	case <-time.After(time.Second):
		t.Fatal("context did not expire")
	}
}
