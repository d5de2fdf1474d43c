package parallel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/agbru/primecount/internal/partition"
)

// The global tracer delegates to the first provider installed, so a single
// test covers both the success and the failure span.
func TestAggregate_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	okPlan, err := partition.Divide(1000, 1999, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Aggregate(context.Background(), okPlan, Options{}); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	badPlan, err := partition.Divide(2000, 2999, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Aggregate(context.Background(), badPlan, Options{Counter: faultyCounter{trigger: 2500}}); err == nil {
		t.Fatal("expected a worker failure")
	}

	spans := map[string]tracetest.SpanStub{}
	for _, s := range exporter.GetSpans() {
		if s.Name != "parallel.Aggregate" {
			continue
		}
		for _, kv := range s.Attributes {
			if kv.Key == "primecount.range" {
				spans[kv.Value.AsString()] = s
			}
		}
	}

	ok, found := spans[okPlan.Bounds.String()]
	if !found {
		t.Fatalf("no span for %s, got %d spans", okPlan.Bounds, len(exporter.GetSpans()))
	}
	if ok.Status.Code == codes.Error {
		t.Errorf("successful aggregate has error status %q", ok.Status.Description)
	}
	if !hasAttr(ok.Attributes, attribute.Int("primecount.parts", 4)) {
		t.Errorf("missing parts attribute: %v", ok.Attributes)
	}
	if !hasAttr(ok.Attributes, attribute.Int64("primecount.total", 135)) {
		t.Errorf("missing total attribute: %v", ok.Attributes)
	}

	bad, found := spans[badPlan.Bounds.String()]
	if !found {
		t.Fatalf("no span for %s", badPlan.Bounds)
	}
	if bad.Status.Code != codes.Error {
		t.Errorf("failed aggregate status = %v, want Error", bad.Status.Code)
	}
}

func hasAttr(attrs []attribute.KeyValue, want attribute.KeyValue) bool {
	for _, kv := range attrs {
		if kv.Key == want.Key && kv.Value.AsInterface() == want.Value.AsInterface() {
			return true
		}
	}
	return false
}
