package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegister_Once(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	// second call must not panic with AlreadyRegisteredError
	MustRegister(reg)

	IncEntitlementCreated("Aspirants", "single")
	if got := testutil.ToFloat64(entitlementsCreatedTotal.WithLabelValues("aspirants", "single")); got != 1 {
		t.Fatalf("expected normalized label counter to be 1, got %v", got)
	}
}

func TestSetActiveEntitlements(t *testing.T) {
	SetActiveEntitlements("seniorcitizen", 7)
	if got := testutil.ToFloat64(entitlementsActive.WithLabelValues("seniorcitizen")); got != 7 {
		t.Fatalf("expected gauge 7, got %v", got)
	}
}
