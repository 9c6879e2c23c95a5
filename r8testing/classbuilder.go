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

package r8testing

import (
	"testing"

	"github.com/r8shrink/r8/hierarchy"
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
)

// MustClass builds an *ir.Class and fails the test immediately on error,
// replacing the mustClass helper every package's _test.go used to define for
// itself.
func MustClass(t *testing.T, ty, super *item.DexType, ifaces []*item.DexType, flags ir.AccessFlags) *ir.Class {
	t.Helper()
	c, err := ir.NewClass(ty, super, ifaces, flags)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// NoArgVoidMethod builds a ()V-typed *ir.EncodedMethod under holder, the
// shape every hand test method (entry points, constructors, trivial
// callees) in this corpus needs.
func NoArgVoidMethod(f *item.Factory, holder *item.DexType, name string, flags ir.AccessFlags, code *ir.Code) *ir.EncodedMethod {
	proto := f.CreateProto(f.CreateType("V"))
	ref := f.CreateMethod(holder, f.CreateString(name), proto)
	return ir.NewEncodedMethod(ref, flags, code)
}

// BarFixture is the single-class, single-field, single-constructor fixture
// (Lcom/foo/Bar; extends Object, <init>()V, private int x) that rootset and
// rules rule-matching tests build repeatedly against different rule
// sources. It returns the class singly; callers that need a []*ir.Class
// wrap it themselves.
func BarFixture(t *testing.T) (*item.Factory, *ir.Class, *hierarchy.Index) {
	t.Helper()
	f := item.NewFactory()
	obj := f.JavaLangObject()
	barType := f.CreateType("Lcom/foo/Bar;")
	class := MustClass(t, barType, obj, nil, ir.Public)
	initProto := f.CreateProto(f.CreateType("V"))
	initRef := f.CreateMethod(barType, f.CreateString("<init>"), initProto)
	if err := class.AddDirectMethod(ir.NewEncodedMethod(initRef, ir.Public|ir.Constructor, &ir.Code{})); err != nil {
		t.Fatal(err)
	}
	xField := f.CreateField(barType, f.CreateString("x"), f.CreateType("I"))
	if err := class.AddInstanceField(ir.NewEncodedField(xField, ir.Private)); err != nil {
		t.Fatal(err)
	}
	idx := hierarchy.Build([]*ir.Class{class})
	return f, class, idx
}
