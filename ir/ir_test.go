package ir

import (
	"testing"

	"github.com/r8shrink/r8/item"
)

func TestNewClassRejectsSelfSuper(t *testing.T) {
	f := item.NewFactory()
	a := f.CreateType("LA;")
	if _, err := NewClass(a, a, nil, 0); err == nil {
		t.Fatal("expected an error when a class is its own superclass")
	}
}

func TestNewClassRejectsSelfInterface(t *testing.T) {
	f := item.NewFactory()
	a := f.CreateType("LA;")
	obj := f.JavaLangObject()
	if _, err := NewClass(a, obj, []*item.DexType{a}, 0); err == nil {
		t.Fatal("expected an error when a class implements itself")
	}
}

func TestAddMethodSetsHolderBackReference(t *testing.T) {
	f := item.NewFactory()
	a := f.CreateType("LA;")
	class, err := NewClass(a, f.JavaLangObject(), nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	proto := f.CreateProto(f.CreateType("V"))
	ref := f.CreateMethod(a, f.CreateString("m"), proto)
	m := NewEncodedMethod(ref, 0, nil)
	if err := class.AddVirtualMethod(m); err != nil {
		t.Fatal(err)
	}
	if m.Holder() != class.Type {
		t.Fatalf("Holder() = %v, want %v", m.Holder(), class.Type)
	}
}

func TestAddMethodRejectsDuplicate(t *testing.T) {
	f := item.NewFactory()
	a := f.CreateType("LA;")
	class, _ := NewClass(a, f.JavaLangObject(), nil, 0)
	proto := f.CreateProto(f.CreateType("V"))
	ref := f.CreateMethod(a, f.CreateString("m"), proto)
	if err := class.AddVirtualMethod(NewEncodedMethod(ref, 0, nil)); err != nil {
		t.Fatal(err)
	}
	if err := class.AddVirtualMethod(NewEncodedMethod(ref, 0, nil)); err == nil {
		t.Fatal("expected an error adding a duplicate method reference")
	}
}

func TestAddFieldRejectsDuplicateAcrossStaticAndInstance(t *testing.T) {
	f := item.NewFactory()
	a := f.CreateType("LA;")
	class, _ := NewClass(a, f.JavaLangObject(), nil, 0)
	ref := f.CreateField(a, f.CreateString("x"), f.CreateType("I"))
	if err := class.AddStaticField(NewEncodedField(ref, Static)); err != nil {
		t.Fatal(err)
	}
	if err := class.AddInstanceField(NewEncodedField(ref, 0)); err == nil {
		t.Fatal("expected an error adding the same field reference twice")
	}
}

func TestParseServiceEntry(t *testing.T) {
	contents := "# comment\n\ncom.foo.Impl1\n  com.foo.Impl2  \n# another\ncom.foo.Impl1\n"
	names, err := ParseServiceEntry(contents)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"com.foo.Impl1", "com.foo.Impl2", "com.foo.Impl1"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestParseServiceEntryRejectsInvalidName(t *testing.T) {
	if _, err := ParseServiceEntry("not a class name!\n"); err == nil {
		t.Fatal("expected an error for an invalid class name")
	}
}

func TestServicesImplementationsPreservesOrder(t *testing.T) {
	f := item.NewFactory()
	iface := f.CreateType("LS;")
	impl1 := f.CreateType("LImpl1;")
	impl2 := f.CreateType("LImpl2;")
	s := NewServices()
	s.Add(iface, "", impl1)
	s.Add(iface, "", impl2)
	got := s.Implementations(iface, nil)
	if len(got) != 2 || got[0] != impl1 || got[1] != impl2 {
		t.Fatalf("Implementations() = %v, want [impl1 impl2]", got)
	}
}
