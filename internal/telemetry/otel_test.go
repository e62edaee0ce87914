package telemetry

import (
	"context"
	"testing"
)

func TestShutdownNilProvider(t *testing.T) {
	t.Parallel()

	if err := Shutdown(context.Background(), nil); err != nil {
		t.Errorf("Shutdown(nil) error = %v", err)
	}
}

func TestInitTracerSetsGlobals(t *testing.T) {
	// The exporter connects lazily, so init succeeds without a collector.
	tp, err := InitTracer(context.Background(), "authkit-test", "localhost:4318")
	if err != nil {
		t.Fatalf("InitTracer() error = %v", err)
	}
	defer func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = tp.Shutdown(ctx)
	}()

	if tp == nil {
		t.Fatal("InitTracer() returned nil provider")
	}
}
