package messaging

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestMessageCarrier(t *testing.T) {
	t.Run("set replaces existing header", func(t *testing.T) {
		msg := kafka.Message{Headers: []kafka.Header{{Key: "traceparent", Value: []byte("old")}}}
		c := NewMessageCarrier(&msg)

		c.Set("traceparent", "new")
		c.Set("tracestate", "a=b")

		if len(msg.Headers) != 2 {
			t.Fatalf("expected 2 headers, got %d", len(msg.Headers))
		}
		if c.Get("traceparent") != "new" {
			t.Errorf("expected new, got %s", c.Get("traceparent"))
		}
		if c.Get("missing") != "" {
			t.Error("expected empty value for missing header")
		}
		if keys := c.Keys(); len(keys) != 2 || keys[0] != "traceparent" || keys[1] != "tracestate" {
			t.Errorf("unexpected keys: %v", keys)
		}
	})

	t.Run("round trips trace context", func(t *testing.T) {
		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)

		var msg kafka.Message
		prop := propagation.TraceContext{}
		prop.Inject(ctx, NewMessageCarrier(&msg))

		extracted := trace.SpanContextFromContext(prop.Extract(context.Background(), NewMessageCarrier(&msg)))
		if extracted.TraceID() != traceID {
			t.Errorf("expected trace id %s, got %s", traceID, extracted.TraceID())
		}
		if !extracted.IsRemote() {
			t.Error("expected remote span context")
		}
	})
}
