package rootset

import (
	"testing"

	"github.com/r8shrink/r8/hierarchy"
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/r8testing"
	"github.com/r8shrink/r8/rules"
)

// buildFixture wraps r8testing.BarFixture's single class into the []*ir.Class
// slice shape every rootset.Build caller here needs.
func buildFixture(t *testing.T) (*item.Factory, []*ir.Class, *hierarchy.Index) {
	t.Helper()
	f, class, idx := r8testing.BarFixture(t)
	return f, []*ir.Class{class}, idx
}

func TestBuildKeepWithoutMembersKeepsEverything(t *testing.T) {
	_, classes, idx := buildFixture(t)
	parsed, err := rules.ParseRules(`-keep class com.foo.Bar`)
	if err != nil {
		t.Fatal(err)
	}
	matched := rules.Apply(parsed, classes, idx)
	seeds, err := Build(matched)
	if err != nil {
		t.Fatal(err)
	}
	if !seeds.LiveTypes[classes[0].Type] {
		t.Fatal("expected Bar to be live")
	}
	if !seeds.InstantiatedTypes[classes[0].Type] {
		t.Fatal("expected Bar to be instantiated")
	}
	if len(seeds.LiveFields) != 1 || len(seeds.LiveMethods) != 1 {
		t.Fatalf("expected every field/method kept, got %d fields %d methods", len(seeds.LiveFields), len(seeds.LiveMethods))
	}
	if !seeds.Pinned[classes[0].Type] {
		t.Fatal("expected Bar's name to be pinned (no allowobfuscation given)")
	}
}

func TestBuildKeepAllowObfuscationDoesNotPin(t *testing.T) {
	_, classes, idx := buildFixture(t)
	parsed, err := rules.ParseRules(`-keep,allowobfuscation class com.foo.Bar`)
	if err != nil {
		t.Fatal(err)
	}
	matched := rules.Apply(parsed, classes, idx)
	seeds, err := Build(matched)
	if err != nil {
		t.Fatal(err)
	}
	if seeds.NoObfuscation[classes[0].Type] {
		t.Fatal("allowobfuscation should not set NoObfuscation")
	}
	if seeds.Pinned[classes[0].Type] {
		t.Fatal("allowobfuscation should not set Pinned either — Pinned tracks the same modifier as NoObfuscation")
	}
	if !seeds.LiveTypes[classes[0].Type] {
		t.Fatal("allowobfuscation alone (shrinking still disallowed) must still keep Bar live")
	}
}

func TestBuildKeepAllowShrinkingDoesNotForceLive(t *testing.T) {
	_, classes, idx := buildFixture(t)
	parsed, err := rules.ParseRules(`-keep,allowshrinking class com.foo.Bar`)
	if err != nil {
		t.Fatal(err)
	}
	matched := rules.Apply(parsed, classes, idx)
	seeds, err := Build(matched)
	if err != nil {
		t.Fatal(err)
	}
	if seeds.LiveTypes[classes[0].Type] {
		t.Fatal("allowshrinking should not force Bar into the root set")
	}
	if seeds.InstantiatedTypes[classes[0].Type] {
		t.Fatal("allowshrinking should not force Bar instantiated")
	}
	if len(seeds.LiveFields) != 0 || len(seeds.LiveMethods) != 0 {
		t.Fatal("allowshrinking should not force Bar's members live")
	}
	if seeds.NoShrinking[classes[0].Type] {
		t.Fatal("NoShrinking records only rules that disallow shrinking; allowshrinking must not set it")
	}
	if !seeds.Pinned[classes[0].Type] {
		t.Fatal("allowshrinking alone still disallows obfuscation by default, so Bar stays pinned")
	}
}

func TestBuildKeepWithoutAllowShrinkingSetsNoShrinking(t *testing.T) {
	_, classes, idx := buildFixture(t)
	parsed, err := rules.ParseRules(`-keep class com.foo.Bar`)
	if err != nil {
		t.Fatal(err)
	}
	matched := rules.Apply(parsed, classes, idx)
	seeds, err := Build(matched)
	if err != nil {
		t.Fatal(err)
	}
	if !seeds.NoShrinking[classes[0].Type] {
		t.Fatal("a plain -keep (shrinking disallowed by default) must record NoShrinking")
	}
}

func TestBuildKeepClassMembersDoesNotMarkClassLive(t *testing.T) {
	_, classes, idx := buildFixture(t)
	parsed, err := rules.ParseRules(`-keepclassmembers class com.foo.Bar { private int x; }`)
	if err != nil {
		t.Fatal(err)
	}
	matched := rules.Apply(parsed, classes, idx)
	seeds, err := Build(matched)
	if err != nil {
		t.Fatal(err)
	}
	if seeds.LiveTypes[classes[0].Type] {
		t.Fatal("keepclassmembers must not mark the class itself live")
	}
	if len(seeds.LiveFields) != 1 {
		t.Fatalf("expected exactly the matched field kept, got %d", len(seeds.LiveFields))
	}
}

func TestBuildGlobalDirectives(t *testing.T) {
	parsed, err := rules.ParseRules(`
		-dontobfuscate
		-dontoptimize
		-applymapping mapping.txt
		-dontwarn com.foo.**
	`)
	if err != nil {
		t.Fatal(err)
	}
	matched := rules.Apply(parsed, nil, hierarchy.Build(nil))
	seeds, err := Build(matched)
	if err != nil {
		t.Fatal(err)
	}
	if !seeds.DontObfuscate || !seeds.DontOptimize {
		t.Fatal("expected DontObfuscate and DontOptimize to be set")
	}
	if seeds.ApplyMappingPath != "mapping.txt" {
		t.Fatalf("ApplyMappingPath = %q, want mapping.txt", seeds.ApplyMappingPath)
	}
	if len(seeds.DontWarn) != 1 {
		t.Fatalf("expected one dontwarn pattern, got %d", len(seeds.DontWarn))
	}
}

func TestBuildCheckDiscardMarksAttributeOnly(t *testing.T) {
	_, classes, idx := buildFixture(t)
	parsed, err := rules.ParseRules(`-checkdiscard class com.foo.Bar`)
	if err != nil {
		t.Fatal(err)
	}
	matched := rules.Apply(parsed, classes, idx)
	seeds, err := Build(matched)
	if err != nil {
		t.Fatal(err)
	}
	if !seeds.CheckDiscard[classes[0].Type] {
		t.Fatal("expected Bar to be in CheckDiscard")
	}
	if seeds.LiveTypes[classes[0].Type] {
		t.Fatal("checkdiscard must not itself mark the class live")
	}
}
