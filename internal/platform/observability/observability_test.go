package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestParseSampler(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"", false},
		{"always", false},
		{"never", false},
		{"ratio:0.25", false},
		{"ratio:1", false},
		{"ratio:1.5", true},
		{"ratio:abc", true},
		{"sometimes", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseSampler(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("got err %v, want error %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoggerLevelsAndFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "warn", "json")

	log.LogInfo(context.Background(), "hidden")
	log.LogError(context.Background(), "quote failed", errors.New("boom"), "pool_id", "abc")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %s", out)
	}
	for _, want := range []string{`"msg":"quote failed"`, `"error":"boom"`, `"pool_id":"abc"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "debug", "text").WithFields("component", "route")
	log.LogDebug(context.Background(), "ready")

	if !strings.Contains(buf.String(), "component=route") {
		t.Errorf("got %s, want component=route", buf.String())
	}
}

func TestNopMetrics(t *testing.T) {
	m := NewNopMetrics()
	ctx := context.Background()

	m.RecordQuote(ctx, "cpmm", "exact_in", time.Millisecond)
	m.RecordQuoteFailure(ctx, "clmm", "insufficient_liquidity")
	m.RecordRoute(ctx, "cpmm")
	m.RecordRoute(ctx, "")
	m.RecordSnapshotFetch(ctx, time.Millisecond, true)
	m.RecordStaleSnapshot(ctx, "circuit_open")
	m.RecordBreakerChange(ctx, "open")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("got status %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDisabledTracing(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), TracingOptions{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, span := tp.Tracer().StartSpan(context.Background(), "route")
	span.NoticeError(errors.New("ignored"))
	span.End()

	if span.TraceID() != "" {
		t.Errorf("got trace id %q, want empty", span.TraceID())
	}
	if ctx == nil {
		t.Error("got nil context")
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestLoggerAddsTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "info", "json")

	ctx, span := NewTracer(tp.Tracer("test")).StartSpan(context.Background(), "route.Route")
	log.LogInfo(ctx, "route selected")
	span.End()

	want := `"trace_id":"` + span.TraceID() + `"`
	if !strings.Contains(buf.String(), want) || !strings.Contains(buf.String(), `"span_id"`) {
		t.Errorf("got %s, want %s and a span_id", buf.String(), want)
	}

	buf.Reset()
	log.LogInfo(context.Background(), "no span")
	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("got %s, want no trace_id outside a span", buf.String())
	}
}

func TestTracerRecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := NewTracer(tp.Tracer("test")).StartSpan(context.Background(), "route.quotePool",
		attribute.String("pool_id", "abc"))
	span.SetAttributes(attribute.String("kind", "cpmm"))
	span.AddEvent("no_route")
	span.NoticeError(nil)
	span.NoticeError(errors.New("boom"))
	if span.TraceID() == "" {
		t.Error("recorded span should have a trace id")
	}
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("got %d spans, want 1", len(ended))
	}
	got := ended[0]
	if got.Name() != "route.quotePool" {
		t.Errorf("name: got %s, want route.quotePool", got.Name())
	}
	if got.Status().Code != codes.Error || got.Status().Description != "boom" {
		t.Errorf("status: got %v, want error boom", got.Status())
	}
	attrs := map[attribute.Key]string{}
	for _, kv := range got.Attributes() {
		attrs[kv.Key] = kv.Value.AsString()
	}
	if attrs["pool_id"] != "abc" || attrs["kind"] != "cpmm" {
		t.Errorf("attributes: got %v", attrs)
	}
	if len(got.Events()) < 2 {
		t.Errorf("events: got %d, want the event and the error", len(got.Events()))
	}
}
