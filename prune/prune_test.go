package prune

import (
	"testing"

	"github.com/r8shrink/r8/enqueue"
	"github.com/r8shrink/r8/hierarchy"
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/r8testing"
)

func TestRunDropsDeadClassesAndMembers(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	proto := f.CreateProto(f.CreateType("V"))

	liveType := f.CreateType("LLive;")
	deadType := f.CreateType("LDead;")

	liveClass := r8testing.MustClass(t, liveType, obj, nil, ir.Public)
	liveMethod := f.CreateMethod(liveType, f.CreateString("keep"), proto)
	deadMethod := f.CreateMethod(liveType, f.CreateString("drop"), proto)
	if err := liveClass.AddDirectMethod(ir.NewEncodedMethod(liveMethod, ir.Public, &ir.Code{})); err != nil {
		t.Fatal(err)
	}
	if err := liveClass.AddDirectMethod(ir.NewEncodedMethod(deadMethod, ir.Public, &ir.Code{})); err != nil {
		t.Fatal(err)
	}

	deadClass := r8testing.MustClass(t, deadType, obj, nil, ir.Public)

	idx := hierarchy.Build([]*ir.Class{liveClass, deadClass})
	live := &enqueue.Liveness{
		LiveTypes:       map[*item.DexType]bool{liveType: true},
		LiveMethods:     map[*item.DexMethod]bool{liveMethod: true},
		FieldAccessInfo: map[*item.DexField]*ir.FieldAccessInfo{},
	}

	result, err := Run(idx, live, []*ir.Class{liveClass, deadClass}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Classes) != 1 || result.Classes[0].Type != liveType {
		t.Fatalf("result.Classes = %v, want only Live", result.Classes)
	}
	if !result.Removed[deadType] {
		t.Fatal("expected Dead to be recorded as removed")
	}
	if !result.Removed[deadMethod] {
		t.Fatal("expected drop() to be recorded as removed")
	}
	gotMethods := result.Classes[0].AllMethods()
	if len(gotMethods) != 1 || gotMethods[0].Reference != liveMethod {
		t.Fatalf("surviving methods = %v, want only keep()", gotMethods)
	}
}

func TestRunHoistsSuperLinkPastPrunedAncestor(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()

	grandparentType := f.CreateType("LGrandparent;")
	parentType := f.CreateType("LParent;")
	childType := f.CreateType("LChild;")

	grandparent := r8testing.MustClass(t, grandparentType, obj, nil, ir.Public)
	parent := r8testing.MustClass(t, parentType, grandparentType, nil, ir.Public)
	child := r8testing.MustClass(t, childType, parentType, nil, ir.Public)

	idx := hierarchy.Build([]*ir.Class{grandparent, parent, child})
	live := &enqueue.Liveness{
		LiveTypes:       map[*item.DexType]bool{grandparentType: true, childType: true},
		LiveMethods:     map[*item.DexMethod]bool{},
		FieldAccessInfo: map[*item.DexField]*ir.FieldAccessInfo{},
	}

	result, err := Run(idx, live, []*ir.Class{grandparent, parent, child}, nil)
	if err != nil {
		t.Fatal(err)
	}

	var gotChild *ir.Class
	for _, c := range result.Classes {
		if c.Type == childType {
			gotChild = c
		}
	}
	if gotChild == nil {
		t.Fatal("expected Child to survive pruning")
	}
	if gotChild.Super != grandparentType {
		t.Fatalf("Child.Super = %v, want Grandparent (Parent was pruned)", gotChild.Super)
	}
	if !result.Removed[parentType] {
		t.Fatal("expected Parent to be recorded as removed")
	}
}
