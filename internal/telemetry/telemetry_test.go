package telemetry

import (
	"context"
	"testing"
)

// These tests mutate the process-wide active mode and must not run in
// parallel with each other.

func TestSetupDisabledForcesOff(t *testing.T) {
	runtime, err := Setup(Config{Enabled: false, Mode: ModeDetailed})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(t, runtime)

	if Mode() != ModeOff {
		t.Errorf("Mode = %q, want off when disabled", Mode())
	}
	if ShouldTraceDependencies() {
		t.Error("dependency tracing enabled while telemetry is off")
	}
}

func TestSetupDetailedTracesDependencies(t *testing.T) {
	runtime, err := Setup(Config{Enabled: true, Mode: "Detailed"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(t, runtime)

	if Mode() != ModeDetailed {
		t.Errorf("Mode = %q", Mode())
	}
	if !ShouldTraceDependencies() {
		t.Error("dependency tracing disabled in detailed mode")
	}
}

func TestSetupUnknownModeFallsBackToSampled(t *testing.T) {
	runtime, err := Setup(Config{Enabled: true, Mode: "experimental"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(t, runtime)

	if Mode() != ModeSampled {
		t.Errorf("Mode = %q", Mode())
	}
	if ShouldTraceDependencies() {
		t.Error("dependency tracing enabled in sampled mode")
	}
}

func shutdown(t *testing.T, runtime Runtime) {
	t.Helper()
	if err := runtime.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
