package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Fatalf("expected req-123, got %q", got)
	}
}

func TestRequestIDMissing(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
	if got := RequestIDFromContext(nil); got != "" { //nolint:staticcheck // nil ctx tolerated on purpose
		t.Fatalf("expected empty request id for nil ctx, got %q", got)
	}
}

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-456")
	ctxLogger := WithContext(ctx, logger)
	ctxLogger.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"request_id":"req-456"`) {
		t.Fatalf("expected request_id in output, got %s", buf.String())
	}
}

func TestWithContextNoFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctxLogger := WithContext(context.Background(), logger)
	ctxLogger.Info().Msg("hello")

	if strings.Contains(buf.String(), "request_id") {
		t.Fatalf("did not expect request_id in output, got %s", buf.String())
	}
}
