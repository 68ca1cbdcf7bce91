package aggregates

import "testing"

func TestRequireStatusAllowed(t *testing.T) {
	if err := RequireStatusAllowed("PENDING_REVIEW", "PENDING_REVIEW", "APPROVED"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireStatusAllowed("WITHDRAWN", "PENDING_REVIEW", "APPROVED"); err == nil {
		t.Fatalf("expected precondition error")
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); err == nil {
		t.Fatalf("expected conflict error")
	}
}
