package hierarchy

import (
	"testing"

	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/r8testing"
)

var mustClass = r8testing.MustClass

func TestSubtypesTransitiveIncludesInterfaces(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	i := f.CreateType("LI;")
	c := f.CreateType("LC;")
	d := f.CreateType("LD;")

	classI := mustClass(t, i, nil, nil, ir.Interface|ir.Abstract)
	classC := mustClass(t, c, obj, []*item.DexType{i}, 0)
	classD := mustClass(t, d, c, nil, 0)

	idx := Build([]*ir.Class{classI, classC, classD})

	sub := idx.Subtypes(i)
	want := map[*item.DexType]bool{i: true, c: true, d: true}
	if len(sub) != len(want) {
		t.Fatalf("Subtypes(I) = %v, want 3 entries", sub)
	}
	for _, s := range sub {
		if !want[s] {
			t.Fatalf("unexpected subtype %v", s)
		}
	}
	if !idx.IsSubtype(d, i) {
		t.Fatal("D must be a subtype of I transitively")
	}
}

func TestResolveMethodInterfaceDispatch(t *testing.T) {
	// spec.md §8 scenario 2: interface I with f(), classes C implements I and
	// D implements I; dispatch on an I-typed receiver resolves virtually.
	f := item.NewFactory()
	obj := f.JavaLangObject()
	iType := f.CreateType("LI;")
	cType := f.CreateType("LC;")
	dType := f.CreateType("LD;")
	proto := f.CreateProto(f.CreateType("V"))
	fRef := f.CreateMethod(iType, f.CreateString("f"), proto)

	classI := mustClass(t, iType, nil, nil, ir.Interface|ir.Abstract)
	classI.AddVirtualMethod(ir.NewEncodedMethod(fRef, ir.Public|ir.Abstract, nil))

	classC := mustClass(t, cType, obj, []*item.DexType{iType}, 0)
	cfRef := f.CreateMethod(cType, f.CreateString("f"), proto)
	classC.AddVirtualMethod(ir.NewEncodedMethod(cfRef, ir.Public, &ir.Code{}))

	classD := mustClass(t, dType, obj, []*item.DexType{iType}, 0)
	dfRef := f.CreateMethod(dType, f.CreateString("f"), proto)
	classD.AddVirtualMethod(ir.NewEncodedMethod(dfRef, ir.Public, &ir.Code{}))

	idx := Build([]*ir.Class{classI, classC, classD})

	res := idx.ResolveMethod(iType, fRef, nil)
	if !res.Ok() {
		t.Fatalf("expected to resolve I.f(), got %+v", res)
	}

	targets := idx.LookupVirtualDispatchTargets(fRef, []*item.DexType{cType})
	if len(targets) != 1 || targets[0].Reference != cfRef {
		t.Fatalf("dispatch targets for instantiated {C} = %v, want [C.f]", targets)
	}
}

func TestResolveMethodAmbiguousDefault(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	proto := f.CreateProto(f.CreateType("V"))

	i1 := f.CreateType("LI1;")
	i2 := f.CreateType("LI2;")
	c := f.CreateType("LC;")

	classI1 := mustClass(t, i1, nil, nil, ir.Interface|ir.Abstract)
	m1 := f.CreateMethod(i1, f.CreateString("f"), proto)
	classI1.AddVirtualMethod(ir.NewEncodedMethod(m1, ir.Public, &ir.Code{}))

	classI2 := mustClass(t, i2, nil, nil, ir.Interface|ir.Abstract)
	m2 := f.CreateMethod(i2, f.CreateString("f"), proto)
	classI2.AddVirtualMethod(ir.NewEncodedMethod(m2, ir.Public, &ir.Code{}))

	classC := mustClass(t, c, obj, []*item.DexType{i1, i2}, 0)

	idx := Build([]*ir.Class{classI1, classI2, classC})
	ref := f.CreateMethod(c, f.CreateString("f"), proto)
	res := idx.ResolveMethod(c, ref, nil)
	if res.Kind != MethodAmbiguousDefault {
		t.Fatalf("expected MethodAmbiguousDefault, got %+v", res)
	}
}

func TestResolveMethodNotFound(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	c := f.CreateType("LC;")
	classC := mustClass(t, c, obj, nil, 0)
	idx := Build([]*ir.Class{classC})

	proto := f.CreateProto(f.CreateType("V"))
	ref := f.CreateMethod(c, f.CreateString("missing"), proto)
	res := idx.ResolveMethod(c, ref, nil)
	if res.Kind != MethodNotFound {
		t.Fatalf("expected MethodNotFound, got %+v", res)
	}
}
