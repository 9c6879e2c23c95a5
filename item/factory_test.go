package item

import "testing"

func TestInterningIdentity(t *testing.T) {
	f := NewFactory()
	t1 := f.CreateType("Lcom/foo/Bar;")
	t2 := f.CreateType("Lcom/foo/Bar;")
	if t1 != t2 {
		t.Fatalf("two CreateType calls with equal descriptors must return the same pointer")
	}

	s1 := f.CreateString("hello")
	s2 := f.CreateString("hello")
	if s1 != s2 {
		t.Fatalf("two CreateString calls with equal text must return the same pointer")
	}

	holder := f.CreateType("Lcom/foo/Bar;")
	name := f.CreateString("x")
	fieldType := f.CreateType("I")
	field1 := f.CreateField(holder, name, fieldType)
	field2 := f.CreateField(holder, name, fieldType)
	if field1 != field2 {
		t.Fatalf("two CreateField calls with equal arguments must return the same pointer")
	}

	proto1 := f.CreateProto(f.CreateType("V"), f.CreateType("I"))
	proto2 := f.CreateProto(f.CreateType("V"), f.CreateType("I"))
	if proto1 != proto2 {
		t.Fatalf("two CreateProto calls with equal arguments must return the same pointer")
	}

	m1 := f.CreateMethod(holder, f.CreateString("m"), proto1)
	m2 := f.CreateMethod(holder, f.CreateString("m"), proto2)
	if m1 != m2 {
		t.Fatalf("two CreateMethod calls with equal arguments must return the same pointer")
	}
}

func TestValidateDescriptor(t *testing.T) {
	valid := []string{"I", "V", "Z", "[I", "[[Ljava/lang/String;", "Lcom/foo/Bar;"}
	for _, d := range valid {
		if err := ValidateDescriptor(d); err != nil {
			t.Errorf("ValidateDescriptor(%q) = %v, want nil", d, err)
		}
	}

	invalid := []string{"", "L;", "Lcom.foo.Bar;", "Lcom/foo/Bar", "X", "[", "Lcom/foo/[Bar;"}
	for _, d := range invalid {
		if err := ValidateDescriptor(d); err == nil {
			t.Errorf("ValidateDescriptor(%q) = nil, want an error", d)
		}
	}
}

func TestTryCreateTypeReturnsInvalidDescriptor(t *testing.T) {
	f := NewFactory()
	_, err := f.TryCreateType("not-a-descriptor")
	if err == nil {
		t.Fatal("expected an error for a malformed descriptor")
	}
	if _, ok := err.(*InvalidDescriptor); !ok {
		t.Fatalf("expected *InvalidDescriptor, got %T", err)
	}
}

func TestWellKnownTypesAreStable(t *testing.T) {
	f := NewFactory()
	if f.JavaLangObject() != f.CreateType("Ljava/lang/Object;") {
		t.Fatal("JavaLangObject() must be identical to CreateType of the same descriptor")
	}
	if !f.IsBoxedType(f.CreateType("Ljava/lang/Integer;")) {
		t.Fatal("java.lang.Integer must be recognized as a boxed type")
	}
	if f.IsBoxedType(f.JavaLangObject()) {
		t.Fatal("java.lang.Object must not be a boxed type")
	}
}

func TestPackageName(t *testing.T) {
	f := NewFactory()
	ty := f.CreateType("Lcom/foo/Bar;")
	if got := ty.PackageName(); got != "com.foo" {
		t.Fatalf("PackageName() = %q, want %q", got, "com.foo")
	}
	top := f.CreateType("LTop;")
	if got := top.PackageName(); got != "" {
		t.Fatalf("PackageName() of a top-level class = %q, want empty", got)
	}
}
