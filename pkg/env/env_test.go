package env

import "testing"

func TestFirst(t *testing.T) {
	t.Setenv("PROPSCOUT_TEST_A", "  ")
	t.Setenv("PROPSCOUT_TEST_B", "b")

	if got := First("x", "PROPSCOUT_TEST_A", "PROPSCOUT_TEST_B"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := First("x", "PROPSCOUT_TEST_MISSING"); got != "x" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
