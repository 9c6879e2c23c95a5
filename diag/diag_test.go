package diag

import "testing"

func TestBagSortsBySeverityThenOrigin(t *testing.T) {
	b := NewBag()
	b.Warnf(MissingClass, "b/B", "missing")
	b.Errorf(InvalidRule, "a/A", "bad rule")
	b.Errorf(CheckDiscardFailed, "c/C", "still present")

	all := b.All()
	if len(all) != 3 {
		t.Fatalf("got %d diagnostics, want 3", len(all))
	}
	if all[0].Severity != Fatal || all[1].Severity != Fatal {
		t.Fatalf("fatal diagnostics should sort first, got %+v", all)
	}
	if all[0].Origin != "a/A" || all[1].Origin != "c/C" {
		t.Fatalf("fatal diagnostics should be origin-sorted, got %+v", all)
	}
	if all[2].Origin != "b/B" {
		t.Fatalf("warning should sort last, got %+v", all)
	}
}

func TestHasFatal(t *testing.T) {
	b := NewBag()
	if b.HasFatal() {
		t.Fatal("empty bag must not report fatal")
	}
	b.Warnf(MissingClass, "x", "warn only")
	if b.HasFatal() {
		t.Fatal("warning-only bag must not report fatal")
	}
	b.Errorf(Internal, "x", "boom")
	if !b.HasFatal() {
		t.Fatal("bag with an Errorf must report fatal")
	}
}
