// Copyright 2023 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shrink

import (
	"fmt"
	"strings"
	"testing"

	"github.com/r8shrink/r8/config"
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/r8testing"
)

var (
	noArgVoidMethod = r8testing.NoArgVoidMethod
	mustClass       = r8testing.MustClass
)

func findClass(t *testing.T, out *Output, javaName string) *ir.Class {
	t.Helper()
	for _, c := range out.Classes {
		if strings.ReplaceAll(strings.TrimSuffix(strings.TrimPrefix(c.Type.Descriptor(), "L"), ";"), "/", ".") == javaName {
			return c
		}
	}
	return nil
}

func hasMethod(c *ir.Class, name string) bool {
	for _, m := range c.AllMethods() {
		if m.Reference.Name.String() == name {
			return true
		}
	}
	return false
}

// Scenario 1: a dead private method is eliminated, a kept one survives
// unrenamed.
func TestDeadMethodEliminated(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	aType := f.CreateType("Lcom/example/A;")
	a := mustClass(t, aType, obj, nil, ir.Public)

	m1 := noArgVoidMethod(f, aType, "m1", ir.Public, &ir.Code{})
	m2 := noArgVoidMethod(f, aType, "m2", ir.Public, &ir.Code{})
	if err := a.AddVirtualMethod(m1); err != nil {
		t.Fatal(err)
	}
	if err := a.AddVirtualMethod(m2); err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{
		Factory: f,
		Config:  config.New(),
		Inputs:  &SliceInputs{Program: []*ir.Class{a}},
		Rules:   `-keep class com.example.A { void m1(); }`,
	}
	out, err := p.Run()
	if err != nil {
		t.Fatalf("Run: %v (%d diagnostics)", err, out.Diagnostics.Len())
	}

	cls := findClass(t, out, "com.example.A")
	if cls == nil {
		t.Fatal("expected com.example.A to survive")
	}
	if !hasMethod(cls, "m1") {
		t.Error("expected m1 to survive, unrenamed")
	}
	if hasMethod(cls, "m2") {
		t.Error("expected m2 to be eliminated as dead code")
	}
}

// Scenario 2: interface dispatch keeps only the implementation that is
// actually instantiated.
func TestInterfaceDispatchKeepsInstantiatedImpl(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	voidProto := f.CreateProto(f.CreateType("V"))

	iType := f.CreateType("Lcom/example/I;")
	classI := mustClass(t, iType, nil, nil, ir.Interface|ir.Abstract)
	fRef := f.CreateMethod(iType, f.CreateString("f"), voidProto)
	if err := classI.AddVirtualMethod(ir.NewEncodedMethod(fRef, ir.Public|ir.Abstract, nil)); err != nil {
		t.Fatal(err)
	}

	cType := f.CreateType("Lcom/example/C;")
	classC := mustClass(t, cType, obj, []*item.DexType{iType}, 0)
	cImpl := f.CreateMethod(cType, f.CreateString("f"), voidProto)
	if err := classC.AddVirtualMethod(ir.NewEncodedMethod(cImpl, ir.Public, &ir.Code{})); err != nil {
		t.Fatal(err)
	}
	cCtor := noArgVoidMethod(f, cType, "<init>", ir.Public|ir.Constructor, &ir.Code{})
	if err := classC.AddDirectMethod(cCtor); err != nil {
		t.Fatal(err)
	}

	dType := f.CreateType("Lcom/example/D;")
	classD := mustClass(t, dType, obj, []*item.DexType{iType}, 0)
	dImpl := f.CreateMethod(dType, f.CreateString("f"), voidProto)
	if err := classD.AddVirtualMethod(ir.NewEncodedMethod(dImpl, ir.Public, &ir.Code{})); err != nil {
		t.Fatal(err)
	}

	mainType := f.CreateType("Lcom/example/Main;")
	classMain := mustClass(t, mainType, obj, nil, ir.Public)
	main := noArgVoidMethod(f, mainType, "main", ir.Public|ir.Static, &ir.Code{
		Instrs: []ir.Instr{
			{Kind: ir.NewInstance, Type: cType},
			{Kind: ir.InvokeDirect, Method: cCtor.Reference},
			{Kind: ir.InvokeInterface, Method: fRef},
		},
	})
	if err := classMain.AddDirectMethod(main); err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{
		Factory: f,
		Config:  config.New(),
		Inputs: &SliceInputs{Program: []*ir.Class{classI, classC, classD, classMain}},
		Rules:  `-keep class com.example.Main { public static void main(); }`,
	}
	out, err := p.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if c := findClass(t, out, "com.example.C"); c == nil || !hasMethod(c, "f") {
		t.Error("expected C.f() to survive via interface dispatch onto an instantiated C")
	}
	if c := findClass(t, out, "com.example.D"); c != nil && hasMethod(c, "f") {
		t.Error("expected D.f() to be eliminated: D is never instantiated")
	}
}

// Scenario 3: a ServiceLoader.load idiom keeps the implementation named in
// the accompanying services data entry.
func TestServiceLoaderKeepsImplementation(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()

	sType := f.CreateType("Lcom/example/S;")
	classS := mustClass(t, sType, nil, nil, ir.Interface|ir.Abstract)

	implType := f.CreateType("Lcom/example/S$Impl;")
	classImpl := mustClass(t, implType, obj, []*item.DexType{sType}, 0)
	implCtor := noArgVoidMethod(f, implType, "<init>", ir.Public|ir.Constructor, &ir.Code{})
	if err := classImpl.AddDirectMethod(implCtor); err != nil {
		t.Fatal(err)
	}

	mainType := f.CreateType("Lcom/example/Main;")
	classMain := mustClass(t, mainType, obj, nil, ir.Public)
	main := noArgVoidMethod(f, mainType, "main", ir.Public|ir.Static, &ir.Code{
		Instrs: []ir.Instr{
			{Kind: ir.TypeReference, Type: sType, ReflectiveIdiom: "ServiceLoader.load"},
		},
	})
	if err := classMain.AddDirectMethod(main); err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{
		Factory: f,
		Config:  config.New(),
		Inputs: &SliceInputs{
			Program: []*ir.Class{classS, classImpl, classMain},
			DataEntries: map[string]string{
				ServicesEntryPrefix + "com.example.S": "com.example.S$Impl\n",
			},
		},
		Rules: `-keep class com.example.Main { public static void main(); }`,
	}
	out, err := p.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	impl := findClass(t, out, "com.example.S$Impl")
	if impl == nil {
		t.Fatal("expected S$Impl to survive via service discovery")
	}
	if !hasMethod(impl, "<init>") {
		t.Error("expected S$Impl's no-arg constructor to survive")
	}
}

// Scenario 4: minification assigns an overriding method the same short name
// as the method it overrides.
func TestMinificationObeysOverride(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	voidProto := f.CreateProto(f.CreateType("V"))

	pType := f.CreateType("Lcom/example/P;")
	classP := mustClass(t, pType, obj, nil, ir.Public)
	pFoo := f.CreateMethod(pType, f.CreateString("foo"), voidProto)
	if err := classP.AddVirtualMethod(ir.NewEncodedMethod(pFoo, ir.Public, &ir.Code{})); err != nil {
		t.Fatal(err)
	}
	pCtor := noArgVoidMethod(f, pType, "<init>", ir.Public|ir.Constructor, &ir.Code{})
	if err := classP.AddDirectMethod(pCtor); err != nil {
		t.Fatal(err)
	}

	qType := f.CreateType("Lcom/example/Q;")
	classQ := mustClass(t, qType, pType, nil, ir.Public)
	qFoo := f.CreateMethod(qType, f.CreateString("foo"), voidProto)
	if err := classQ.AddVirtualMethod(ir.NewEncodedMethod(qFoo, ir.Public, &ir.Code{})); err != nil {
		t.Fatal(err)
	}
	qCtor := noArgVoidMethod(f, qType, "<init>", ir.Public|ir.Constructor, &ir.Code{})
	if err := classQ.AddDirectMethod(qCtor); err != nil {
		t.Fatal(err)
	}

	mainType := f.CreateType("Lcom/example/Main;")
	classMain := mustClass(t, mainType, obj, nil, ir.Public)
	main := noArgVoidMethod(f, mainType, "main", ir.Public|ir.Static, &ir.Code{
		Instrs: []ir.Instr{
			{Kind: ir.NewInstance, Type: pType},
			{Kind: ir.InvokeDirect, Method: pCtor.Reference},
			{Kind: ir.InvokeVirtual, Method: pFoo},
			{Kind: ir.NewInstance, Type: qType},
			{Kind: ir.InvokeDirect, Method: qCtor.Reference},
			{Kind: ir.InvokeVirtual, Method: qFoo},
		},
	})
	if err := classMain.AddDirectMethod(main); err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{
		Factory: f,
		Config:  config.New(),
		Inputs:  &SliceInputs{Program: []*ir.Class{classP, classQ, classMain}},
		Rules:   `-keep class com.example.Main { public static void main(); }`,
	}
	out, err := p.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	renamedP, _ := out.Lens.LookupMethod(pFoo, ir.Context{}, ir.InvokeVirtual)
	renamedQ, _ := out.Lens.LookupMethod(qFoo, ir.Context{}, ir.InvokeVirtual)
	if renamedP.Name.String() != renamedQ.Name.String() {
		t.Errorf("expected P.foo and Q.foo to share a renamed name, got %q and %q", renamedP.Name.String(), renamedQ.Name.String())
	}
	if renamedP.Name.String() == "foo" {
		t.Error("expected foo to be renamed, not kept under its original name")
	}
}

// Scenario 5: an -applymapping file pins the names of a rename that already
// happened externally.
func TestApplyMappingOverlaysExternalNames(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	aType := f.CreateType("Lcom/example/A;")
	a := mustClass(t, aType, obj, nil, ir.Public)

	m1 := noArgVoidMethod(f, aType, "m1", ir.Public, &ir.Code{})
	m2 := noArgVoidMethod(f, aType, "m2", ir.Public, &ir.Code{})
	if err := a.AddVirtualMethod(m1); err != nil {
		t.Fatal(err)
	}
	if err := a.AddVirtualMethod(m2); err != nil {
		t.Fatal(err)
	}

	mappingFile := "com.example.A -> com.example.X:\n    void m1() -> n\n"

	p := &Pipeline{
		Factory: f,
		Config:  config.New(),
		Inputs:  &SliceInputs{Program: []*ir.Class{a}},
		Rules:   "-keep class com.example.A { void m1(); }\n-applymapping mapping.txt",
		ReadFile: func(path string) (string, error) {
			if path == "mapping.txt" {
				return mappingFile, nil
			}
			return "", fmt.Errorf("no such file %q", path)
		},
	}
	out, err := p.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(out.Mapping, "com.example.A -> com.example.X:") {
		t.Errorf("expected emitted mapping to carry the applied class rename, got %q", out.Mapping)
	}
	if !strings.Contains(out.Mapping, "-> n") {
		t.Errorf("expected emitted mapping to carry the applied member rename, got %q", out.Mapping)
	}

	renamedType := out.Lens.LookupType(aType)
	if renamedType.Descriptor() != "Lcom/example/X;" {
		t.Errorf("expected A to be renamed to X per the external mapping, got %s", renamedType.Descriptor())
	}
}

// Scenario 6: a -checkdiscard rule naming an element that tree-shaking
// failed to remove produces a fatal diagnostic and no output.
func TestCheckDiscardFailureIsFatal(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()

	dbgType := f.CreateType("Lcom/example/Dbg;")
	classDbg := mustClass(t, dbgType, obj, nil, ir.Public)
	dbgCtor := noArgVoidMethod(f, dbgType, "<init>", ir.Public|ir.Constructor, &ir.Code{})
	if err := classDbg.AddDirectMethod(dbgCtor); err != nil {
		t.Fatal(err)
	}

	mainType := f.CreateType("Lcom/example/Main;")
	classMain := mustClass(t, mainType, obj, nil, ir.Public)
	main := noArgVoidMethod(f, mainType, "main", ir.Public|ir.Static, &ir.Code{
		Instrs: []ir.Instr{
			{Kind: ir.NewInstance, Type: dbgType},
			{Kind: ir.InvokeDirect, Method: dbgCtor.Reference},
		},
	})
	if err := classMain.AddDirectMethod(main); err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{
		Factory: f,
		Config:  config.New(),
		Inputs:  &SliceInputs{Program: []*ir.Class{classDbg, classMain}},
		Rules: `-keep class com.example.Main { public static void main(); }
-checkdiscard class com.example.Dbg`,
	}
	out, err := p.Run()
	if err == nil {
		t.Fatal("expected a fatal error: Dbg is reachable from main and cannot be discarded")
	}
	if !out.Diagnostics.HasFatal() {
		t.Fatal("expected the diagnostic bag to record a fatal CheckDiscardFailed entry")
	}
}
