package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/login":        "/login",
		"/register":     "/register",
		"/health":       "/health",
		"/ready":        "/ready",
		"/login/extra":  "other",
		"/wp-admin.php": "other",
	}
	for in, want := range tests {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIncAuthOutcome(t *testing.T) {
	before := testutil.ToFloat64(AuthOutcomes.WithLabelValues("login", "rejected"))
	IncAuthOutcome("login", "rejected")
	after := testutil.ToFloat64(AuthOutcomes.WithLabelValues("login", "rejected"))
	if after-before != 1 {
		t.Errorf("login/rejected delta = %v, want 1", after-before)
	}
}

func TestSetStoreUp(t *testing.T) {
	SetStoreUp(true)
	if v := testutil.ToFloat64(StoreUp); v != 1 {
		t.Errorf("StoreUp = %v, want 1", v)
	}
	SetStoreUp(false)
	if v := testutil.ToFloat64(StoreUp); v != 0 {
		t.Errorf("StoreUp = %v, want 0", v)
	}
}
