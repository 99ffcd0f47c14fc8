package server

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dkolkovskiy/qola/pkg/config"
	"github.com/dkolkovskiy/qola/pkg/telemetry/metrics"
)

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestFaultHandler_Policies(t *testing.T) {
	tests := []struct {
		name      string
		policy    string
		wantFatal bool
	}{
		{name: "continue", policy: config.FaultPolicyContinue, wantFatal: false},
		{name: "default is continue", policy: "", wantFatal: false},
		{name: "exit", policy: config.FaultPolicyExit, wantFatal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := metrics.NewCollector("test")
			f := NewFaultHandler(tt.policy, collector, discardLogger())

			f.ReportPanic(context.Background(), "boom", []byte("stack"))
			// A second report must not close the channel twice.
			f.ReportPanic(context.Background(), "boom again", nil)

			if got := isClosed(f.Fatal()); got != tt.wantFatal {
				t.Errorf("fatal = %v, want %v", got, tt.wantFatal)
			}

			expected := `
# HELP test_server_recovered_panics_total Total number of panics recovered in request handling
# TYPE test_server_recovered_panics_total counter
test_server_recovered_panics_total 2
`
			if err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected),
				"test_server_recovered_panics_total"); err != nil {
				t.Errorf("unexpected metrics: %v", err)
			}
		})
	}
}

func TestFaultHandler_NilCollector(t *testing.T) {
	f := NewFaultHandler(config.FaultPolicyExit, nil, nil)
	f.ReportPanic(context.Background(), "boom", nil)

	if !isClosed(f.Fatal()) {
		t.Error("expected fatal after panic under exit policy")
	}
	if f.Policy() != config.FaultPolicyExit {
		t.Errorf("policy = %q, want exit", f.Policy())
	}
}
