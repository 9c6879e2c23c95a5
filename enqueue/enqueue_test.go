package enqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/r8shrink/r8/hierarchy"
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/r8testing"
)

var newNoArgVoidMethod = r8testing.NoArgVoidMethod

// mustClass matches the signature every caller in this file already uses
// (factory included, though class construction itself needs only the type
// graph); it forwards to the builder shared with every other package's
// tests.
func mustClass(t *testing.T, f *item.Factory, ty, super *item.DexType, ifaces []*item.DexType, flags ir.AccessFlags) *ir.Class {
	return r8testing.MustClass(t, ty, super, ifaces, flags)
}

func TestDeadMethodIsNeverMarkedLive(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	mainType := f.CreateType("Lcom/foo/Main;")
	mainClass := mustClass(t, f, mainType, obj, nil, ir.Public)

	liveMethod := newNoArgVoidMethod(f, mainType, "used", ir.Public|ir.Static, &ir.Code{})
	deadMethod := newNoArgVoidMethod(f, mainType, "unused", ir.Public|ir.Static, &ir.Code{})
	entry := newNoArgVoidMethod(f, mainType, "main", ir.Public|ir.Static, &ir.Code{
		Instrs: []ir.Instr{{Kind: ir.InvokeStatic, Method: liveMethod.Reference}},
	})
	for _, m := range []*ir.EncodedMethod{liveMethod, deadMethod, entry} {
		if err := mainClass.AddDirectMethod(m); err != nil {
			t.Fatal(err)
		}
	}

	idx := hierarchy.Build([]*ir.Class{mainClass})
	e := New(idx, nil, f)
	e.markTypeLive(mainType, "seed")
	e.markMethodLive(entry.Reference, "seed")
	live := e.Run()

	assert.True(t, live.LiveMethods[entry.Reference], "expected main to be live")
	assert.True(t, live.LiveMethods[liveMethod.Reference], "expected used to be live")
	assert.False(t, live.LiveMethods[deadMethod.Reference], "expected unused to never be marked live")
}

func TestVirtualDispatchCompletesOnInstantiation(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	proto := f.CreateProto(f.CreateType("V"))

	iType := f.CreateType("LI;")
	classI := mustClass(t, f, iType, nil, nil, ir.Interface|ir.Abstract)
	fRef := f.CreateMethod(iType, f.CreateString("f"), proto)
	if err := classI.AddVirtualMethod(ir.NewEncodedMethod(fRef, ir.Public|ir.Abstract, nil)); err != nil {
		t.Fatal(err)
	}

	cType := f.CreateType("LC;")
	classC := mustClass(t, f, cType, obj, []*item.DexType{iType}, 0)
	cImpl := f.CreateMethod(cType, f.CreateString("f"), proto)
	if err := classC.AddVirtualMethod(ir.NewEncodedMethod(cImpl, ir.Public, &ir.Code{})); err != nil {
		t.Fatal(err)
	}

	callerType := f.CreateType("LCaller;")
	classCaller := mustClass(t, f, callerType, obj, nil, 0)
	caller := newNoArgVoidMethod(f, callerType, "run", ir.Public, &ir.Code{
		Instrs: []ir.Instr{{Kind: ir.InvokeInterface, Method: fRef}},
	})
	if err := classCaller.AddDirectMethod(caller); err != nil {
		t.Fatal(err)
	}

	idx := hierarchy.Build([]*ir.Class{classI, classC, classCaller})
	e := New(idx, nil, f)
	e.markTypeLive(callerType, "seed")
	e.markTypeLive(iType, "seed")
	e.markMethodLive(caller.Reference, "seed")
	e.markInstantiated(cType, "seed")
	live := e.Run()

	if !live.LiveMethods[cImpl] {
		t.Fatal("expected C.f() to be live via interface dispatch onto an instantiated C")
	}
}

func TestServiceDiscoveryMarksImplementationInstantiated(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	proto := f.CreateProto(f.CreateType("V"))

	ifaceType := f.CreateType("LService;")
	implType := f.CreateType("LServiceImpl;")
	classIface := mustClass(t, f, ifaceType, nil, nil, ir.Interface|ir.Abstract)
	classImpl := mustClass(t, f, implType, obj, []*item.DexType{ifaceType}, 0)
	ctor := newNoArgVoidMethod(f, implType, "<init>", ir.Public|ir.Constructor, &ir.Code{})
	if err := classImpl.AddDirectMethod(ctor); err != nil {
		t.Fatal(err)
	}

	services := ir.NewServices()
	services.Add(ifaceType, "", implType)

	loaderType := f.CreateType("LLoader;")
	classLoader := mustClass(t, f, loaderType, obj, nil, 0)
	loadCall := newNoArgVoidMethod(f, loaderType, "run", ir.Public, &ir.Code{
		Instrs: []ir.Instr{{Kind: ir.TypeReference, Type: ifaceType, ReflectiveIdiom: "ServiceLoader.load"}},
	})
	if err := classLoader.AddDirectMethod(loadCall); err != nil {
		t.Fatal(err)
	}

	idx := hierarchy.Build([]*ir.Class{classIface, classImpl, classLoader})
	e := New(idx, services, f)
	_ = proto
	e.markTypeLive(loaderType, "seed")
	e.markTypeLive(ifaceType, "seed")
	e.markMethodLive(loadCall.Reference, "seed")
	live := e.Run()

	if !live.InstantiatedTypes[implType] {
		t.Fatal("expected ServiceImpl to be instantiated via service discovery")
	}
	if !live.LiveMethods[ctor.Reference] {
		t.Fatal("expected ServiceImpl's no-arg constructor to be live")
	}
}

func TestFieldAccessInfoRecordsReadersAndWriters(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	holder := f.CreateType("LHolder;")
	class := mustClass(t, f, holder, obj, nil, 0)
	fieldRef := f.CreateField(holder, f.CreateString("x"), f.CreateType("I"))
	if err := class.AddInstanceField(ir.NewEncodedField(fieldRef, ir.Private)); err != nil {
		t.Fatal(err)
	}
	writer := newNoArgVoidMethod(f, holder, "write", ir.Public, &ir.Code{
		Instrs: []ir.Instr{{Kind: ir.FieldWrite, Field: fieldRef}},
	})
	reader := newNoArgVoidMethod(f, holder, "read", ir.Public, &ir.Code{
		Instrs: []ir.Instr{{Kind: ir.FieldRead, Field: fieldRef}},
	})
	for _, m := range []*ir.EncodedMethod{writer, reader} {
		if err := class.AddDirectMethod(m); err != nil {
			t.Fatal(err)
		}
	}

	idx := hierarchy.Build([]*ir.Class{class})
	e := New(idx, nil, f)
	e.markTypeLive(holder, "seed")
	e.markMethodLive(writer.Reference, "seed")
	e.markMethodLive(reader.Reference, "seed")
	live := e.Run()

	info := live.FieldAccessInfo[fieldRef]
	if assert.NotNil(t, info, "expected field access info to be recorded") {
		assert.Len(t, info.Reads, 1, "expected exactly one reader")
		assert.Len(t, info.Writes, 1, "expected exactly one writer")
	}
}
