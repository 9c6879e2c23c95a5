package config

import "testing"

func TestNewAppliesDefaults(t *testing.T) {
	o := New()
	if !o.TreeShaking || !o.DiscardedChecker || !o.Minification {
		t.Fatalf("defaults should enable tree shaking, discarded checking, and minification: %+v", o)
	}
	if o.ForceCompatibility {
		t.Fatal("forceCompatibility should default to false")
	}
	if o.MinAPILevel != DefaultMinAPILevel {
		t.Fatalf("MinAPILevel = %d, want %d", o.MinAPILevel, DefaultMinAPILevel)
	}
	if o.HasFeatureSplits() {
		t.Fatal("no splits configured by default")
	}
}

func TestOptionsOverrideDefaults(t *testing.T) {
	o := New(
		WithTreeShaking(false),
		WithMinAPILevel(26),
		WithFeatureSplits([]string{"base", "feature_a"}),
		WithRepackagePolicy(RepackagePolicy{Kind: RepackageFlatten, Into: "com.shrunk"}),
	)
	if o.TreeShaking {
		t.Fatal("WithTreeShaking(false) did not take effect")
	}
	if o.MinAPILevel != 26 {
		t.Fatalf("MinAPILevel = %d, want 26", o.MinAPILevel)
	}
	if !o.HasFeatureSplits() {
		t.Fatal("expected feature splits to be set")
	}
	if o.RepackagePolicy.Kind != RepackageFlatten || o.RepackagePolicy.Into != "com.shrunk" {
		t.Fatalf("RepackagePolicy = %+v, want Flatten(com.shrunk)", o.RepackagePolicy)
	}
}

func TestFeatureSplitIndexIsMemoizedAndCorrect(t *testing.T) {
	o := New(WithFeatureSplits([]string{"base", "feature_a", "feature_b"}))
	idx := o.FeatureSplitIndex()
	if idx["feature_a"] != 1 {
		t.Fatalf("index[feature_a] = %d, want 1", idx["feature_a"])
	}
	if got := o.FeatureSplitIndex(); len(got) != 3 {
		t.Fatalf("memoized index length = %d, want 3", len(got))
	}
}

func TestWithFeatureSplitsCopiesInput(t *testing.T) {
	splits := []string{"base"}
	o := New(WithFeatureSplits(splits))
	splits[0] = "mutated"
	if o.FeatureSplits[0] != "base" {
		t.Fatal("Options must not alias the caller's slice")
	}
}
