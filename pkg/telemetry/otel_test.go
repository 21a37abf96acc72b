package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/vzahanych/weather-rag-app/internal/config"
)

func TestDisabledTelemetry(t *testing.T) {
	tele, err := New(context.Background(), config.TelemetryConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if tele.IsEnabled() {
		t.Error("telemetry should be disabled")
	}

	ctx, span := tele.GetTracer().Start(context.Background(), "noop")
	tele.RecordError(ctx, errors.New("boom"))
	span.End()

	if err := tele.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNilTelemetry(t *testing.T) {
	var tele *Telemetry

	if tele.IsEnabled() {
		t.Error("nil telemetry reports enabled")
	}
	if tele.GetTracer() == nil {
		t.Fatal("GetTracer() returned nil")
	}
	tele.RecordError(context.Background(), errors.New("boom"))
	if err := tele.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
