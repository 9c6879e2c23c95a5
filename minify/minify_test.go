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

package minify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r8shrink/r8/config"
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/r8testing"
	"github.com/r8shrink/r8/rootset"
)

func TestRunAssignsSharedNameAcrossOverrideChain(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	proto := f.CreateProto(f.CreateType("V"))

	baseType := f.CreateType("Lcom/example/Base;")
	subType := f.CreateType("Lcom/example/Sub;")

	base := r8testing.MustClass(t, baseType, obj, nil, ir.Public)
	sub := r8testing.MustClass(t, subType, baseType, nil, ir.Public)

	baseRun := f.CreateMethod(baseType, f.CreateString("run"), proto)
	subRun := f.CreateMethod(subType, f.CreateString("run"), proto)
	if err := base.AddVirtualMethod(ir.NewEncodedMethod(baseRun, ir.Public, &ir.Code{})); err != nil {
		t.Fatal(err)
	}
	if err := sub.AddVirtualMethod(ir.NewEncodedMethod(subRun, ir.Public, &ir.Code{})); err != nil {
		t.Fatal(err)
	}

	scheme := NewClassNameScheme(config.RepackagePolicy{Kind: config.RepackageNone})
	result := Run(f, []*ir.Class{base, sub}, map[rootset.Ref]bool{}, map[rootset.Ref]bool{}, scheme)

	require.Contains(t, result.MethodNames, baseRun)
	require.Contains(t, result.MethodNames, subRun)
	assert.Equal(t, result.MethodNames[baseRun].Name, result.MethodNames[subRun].Name,
		"overriding methods should share one renamed identifier")
}

func TestRunNeverRenamesPinnedOrNonProgramMembers(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	proto := f.CreateProto(f.CreateType("V"))

	kept := f.CreateType("Lcom/example/Kept;")
	class := r8testing.MustClass(t, kept, obj, nil, ir.Public)
	keepMethod := f.CreateMethod(kept, f.CreateString("keepMe"), proto)
	if err := class.AddDirectMethod(ir.NewEncodedMethod(keepMethod, ir.Public|ir.Static, &ir.Code{})); err != nil {
		t.Fatal(err)
	}

	libType := f.CreateType("Lcom/example/Lib;")
	libClass := r8testing.MustClass(t, libType, obj, nil, ir.Public)
	libClass.Origin = ir.Classpath
	libMethod := f.CreateMethod(libType, f.CreateString("libMethod"), proto)
	if err := libClass.AddDirectMethod(ir.NewEncodedMethod(libMethod, ir.Public, nil)); err != nil {
		t.Fatal(err)
	}

	scheme := NewClassNameScheme(config.RepackagePolicy{Kind: config.RepackageNone})
	pinned := map[rootset.Ref]bool{keepMethod: true, kept: true}

	result := Run(f, []*ir.Class{class, libClass}, pinned, map[rootset.Ref]bool{}, scheme)

	_, renamedKept := result.TypeNames[kept]
	assert.False(t, renamedKept, "pinned class should not be renamed")
	_, renamedKeepMethod := result.MethodNames[keepMethod]
	assert.False(t, renamedKeepMethod, "pinned method should not be renamed")
	_, renamedLibType := result.TypeNames[libType]
	assert.False(t, renamedLibType, "classpath class should never be renamed")
}

func TestRunRepackagesIntoSinglePackage(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()

	a := f.CreateType("Lcom/a/One;")
	b := f.CreateType("Lcom/b/Two;")
	classA := r8testing.MustClass(t, a, obj, nil, ir.Public)
	classB := r8testing.MustClass(t, b, obj, nil, ir.Public)

	scheme := NewClassNameScheme(config.RepackagePolicy{Kind: config.RepackageFlatten, Into: "shrunk"})
	result := Run(f, []*ir.Class{classA, classB}, map[rootset.Ref]bool{}, map[rootset.Ref]bool{}, scheme)

	require.Contains(t, result.TypeNames, a)
	require.Contains(t, result.TypeNames, b)
	assert.Equal(t, "shrunk", result.TypeNames[a].PackageName())
	assert.Equal(t, "shrunk", result.TypeNames[b].PackageName())
	assert.NotEqual(t, result.TypeNames[a].Descriptor(), result.TypeNames[b].Descriptor(),
		"two classes flattened into one package must not collide")
}
