package r8testing

import (
	"testing"

	"github.com/r8shrink/r8/ir"
)

func TestFixtureSeedsKeepRule(t *testing.T) {
	fx := NewFixture(t, nil)
	f := fx.Factory()
	obj := f.JavaLangObject()
	mainType := f.CreateType("Lcom/foo/Main;")
	proto := f.CreateProto(f.CreateType("V"))
	mainRef := f.CreateMethod(mainType, f.CreateString("main"), proto)

	class, err := ir.NewClass(mainType, obj, nil, ir.Public)
	if err != nil {
		t.Fatal(err)
	}
	if err := class.AddDirectMethod(ir.NewEncodedMethod(mainRef, ir.Public|ir.Static, &ir.Code{})); err != nil {
		t.Fatal(err)
	}

	result := fx.Classes(class).
		Rules(`-keep class com.foo.Main { public static void main(); }`).
		Run()

	if !result.Liveness.LiveMethods[mainRef] {
		t.Fatal("expected main() to survive as a root-set seed")
	}
	if !result.Liveness.Pinned[mainType] {
		t.Fatal("expected a plain -keep rule to pin the class against shrinking")
	}
}
