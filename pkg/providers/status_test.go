package providers

import (
	"errors"
	"testing"
	"time"
)

func TestStatusTrackerCounters(t *testing.T) {
	tr := NewStatusTracker("testprov")

	tr.Record(true, 100*time.Millisecond)
	tr.Record(false, 200*time.Millisecond)
	tr.Record(true, 300*time.Millisecond)

	st := tr.Status()
	if st.RequestsTotal != 3 {
		t.Errorf("requests = %d, want 3", st.RequestsTotal)
	}
	if st.ErrorsTotal != 1 {
		t.Errorf("errors = %d, want 1", st.ErrorsTotal)
	}
	if st.ConsecutiveFailures != 0 {
		t.Errorf("consecutive = %d, want 0 after a success", st.ConsecutiveFailures)
	}
	if st.AvgLatencyMs != 200 {
		t.Errorf("avg latency = %g, want 200", st.AvgLatencyMs)
	}
	if st.State != StateActive {
		t.Errorf("state = %s, want ACTIVE", st.State)
	}
}

func TestStatusTrackerDegradedOnErrorRate(t *testing.T) {
	tr := NewStatusTracker("testprov")

	// Alternate failure/success: 20 samples at exactly 50% error rate.
	for i := 0; i < 10; i++ {
		tr.Record(false, time.Millisecond)
		tr.Record(true, time.Millisecond)
	}

	st := tr.Status()
	if st.ErrorRate != 0.5 {
		t.Errorf("error rate = %g, want 0.5", st.ErrorRate)
	}
	if st.State != StateActive {
		t.Errorf("state = %s, want ACTIVE at exactly the threshold", st.State)
	}

	tr.Record(false, time.Millisecond)
	if st := tr.Status(); st.State != StateDegraded {
		t.Errorf("state = %s, want DEGRADED above 50%% error rate", st.State)
	}
}

func TestStatusTrackerProbeFailure(t *testing.T) {
	tr := NewStatusTracker("testprov")

	tr.RecordProbe(false)
	if st := tr.Status(); st.State != StateUnavailable {
		t.Errorf("state = %s, want UNAVAILABLE after failed probe", st.State)
	}

	tr.RecordProbe(true)
	if st := tr.Status(); st.State != StateActive {
		t.Errorf("state = %s, want ACTIVE after recovered probe", st.State)
	}
}

func TestStatusTrackerCircuitOpens(t *testing.T) {
	tr := NewStatusTracker("testprov")
	failure := errors.New("vendor down")

	for i := 0; i < circuitFailureThreshold; i++ {
		tr.Execute(func() error { return failure })
	}

	if st := tr.Status(); st.State != StateCircuitOpen {
		t.Fatalf("state = %s, want CIRCUIT_OPEN after %d consecutive failures", st.State, circuitFailureThreshold)
	}

	err := tr.Execute(func() error { return nil })
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("want refusal *Error, got %v", err)
	}
	if perr.Kind != ErrorGeneric {
		t.Errorf("kind = %s, want generic", perr.Kind)
	}
}
