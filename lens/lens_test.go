package lens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r8shrink/r8/enqueue"
	"github.com/r8shrink/r8/hierarchy"
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/r8testing"
	"github.com/r8shrink/r8/rootset"
)

func TestIdentityLensRewritesNothing(t *testing.T) {
	f := item.NewFactory()
	ty := f.CreateType("Lcom/foo/Bar;")
	id := Identity()
	if got := id.LookupType(ty); got != ty {
		t.Fatalf("Identity().LookupType() = %v, want unchanged", got)
	}
	if !id.IsContextFreeForMethods() {
		t.Fatal("identity lens must be context-free")
	}
}

func TestNestedLensFallsThroughToPrevious(t *testing.T) {
	f := item.NewFactory()
	a := f.CreateType("LA;")
	b := f.CreateType("LB;")
	c := f.CreateType("LC;")

	first := NewNested(nil, map[*item.DexType]*item.DexType{a: b}, nil, nil, nil, true)
	second := NewNested(first, map[*item.DexType]*item.DexType{b: c}, nil, nil, nil, true)

	if got := second.LookupType(a); got != c {
		t.Fatalf("composed lookup of A = %v, want C (through B)", got)
	}
	if got := first.LookupType(a); got != b {
		t.Fatalf("first.LookupType(A) = %v, want B", got)
	}
}

func TestNestedLensContextFreeIsConjunction(t *testing.T) {
	base := NewNested(nil, nil, nil, nil, nil, true)
	notFree := NewNested(base, nil, nil, nil, nil, false)
	if notFree.IsContextFreeForMethods() {
		t.Fatal("a lens in the chain marked not context-free must make the whole chain not context-free")
	}
}

func TestMemberRebinderRedirectsToDefiningField(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	baseType := f.CreateType("LBase;")
	subType := f.CreateType("LSub;")
	fieldRef := f.CreateField(baseType, f.CreateString("x"), f.CreateType("I"))
	subFieldRef := f.CreateField(subType, f.CreateString("x"), f.CreateType("I"))

	base := r8testing.MustClass(t, baseType, obj, nil, ir.Public)
	if err := base.AddInstanceField(ir.NewEncodedField(fieldRef, ir.Public)); err != nil {
		t.Fatal(err)
	}
	sub := r8testing.MustClass(t, subType, baseType, nil, ir.Public)

	idx := hierarchy.Build([]*ir.Class{base, sub})

	live := &enqueue.Liveness{
		LiveTypes:       map[*item.DexType]bool{baseType: true, subType: true},
		LiveMethods:     map[*item.DexMethod]bool{},
		FieldAccessInfo: map[*item.DexField]*ir.FieldAccessInfo{subFieldRef: ir.NewFieldAccessInfo()},
		Pinned:          map[rootset.Ref]bool{},
	}

	l := MemberRebinder(idx, live, nil)
	if got := l.LookupField(subFieldRef); got != fieldRef {
		t.Fatalf("LookupField(Sub.x) = %v, want Base.x (the defining field)", got)
	}
}

func TestMemberRebinderNeverRewritesPinnedReference(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	baseType := f.CreateType("LBase2;")
	subType := f.CreateType("LSub2;")
	fieldRef := f.CreateField(baseType, f.CreateString("y"), f.CreateType("I"))
	subFieldRef := f.CreateField(subType, f.CreateString("y"), f.CreateType("I"))

	base := r8testing.MustClass(t, baseType, obj, nil, ir.Public)
	if err := base.AddInstanceField(ir.NewEncodedField(fieldRef, ir.Public)); err != nil {
		t.Fatal(err)
	}
	sub := r8testing.MustClass(t, subType, baseType, nil, ir.Public)
	idx := hierarchy.Build([]*ir.Class{base, sub})

	live := &enqueue.Liveness{
		LiveTypes:       map[*item.DexType]bool{baseType: true, subType: true},
		LiveMethods:     map[*item.DexMethod]bool{},
		FieldAccessInfo: map[*item.DexField]*ir.FieldAccessInfo{subFieldRef: ir.NewFieldAccessInfo()},
		Pinned:          map[rootset.Ref]bool{subFieldRef: true},
	}

	l := MemberRebinder(idx, live, nil)
	if got := l.LookupField(subFieldRef); got != subFieldRef {
		t.Fatalf("pinned field was rewritten to %v, want left alone", got)
	}
}

func TestVerticalClassMergerCollapsesSingleLiveSubtype(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	proto := f.CreateProto(f.CreateType("V"))

	baseType := f.CreateType("LMergeBase;")
	subType := f.CreateType("LMergeSub;")
	base := r8testing.MustClass(t, baseType, obj, nil, ir.Public)
	baseMethodRef := f.CreateMethod(baseType, f.CreateString("greet"), proto)
	if err := base.AddVirtualMethod(ir.NewEncodedMethod(baseMethodRef, ir.Public, &ir.Code{})); err != nil {
		t.Fatal(err)
	}
	sub := r8testing.MustClass(t, subType, baseType, nil, ir.Public)

	live := &enqueue.Liveness{
		LiveTypes:   map[*item.DexType]bool{baseType: true, subType: true},
		LiveMethods: map[*item.DexMethod]bool{baseMethodRef: true},
		Pinned:      map[rootset.Ref]bool{},
		NoShrinking: map[rootset.Ref]bool{},
	}

	idx := hierarchy.Build([]*ir.Class{base, sub})
	l, remaining := VerticalClassMerger(idx, live, f, []*ir.Class{base, sub}, nil)

	require.Len(t, remaining, 1, "want only Sub remaining")
	assert.Equal(t, subType, remaining[0].Type)
	assert.Equal(t, subType, l.LookupType(baseType), "LookupType(Base) should rewrite to Sub")
	if remaining[0].FindMethod(baseMethodRef) == nil {
		newRef, kind := l.LookupMethod(baseMethodRef, ir.Context{}, ir.InvokeVirtual)
		if remaining[0].FindMethod(newRef) == nil {
			t.Fatalf("greet() was not hoisted onto Sub under any reference (rewritten kind %v)", kind)
		}
	}
}
