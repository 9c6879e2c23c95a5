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

package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/lens"
	"github.com/r8shrink/r8/r8testing"
)

func TestEmitAppliesLensAndSortsByFinalDescriptor(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()
	proto := f.CreateProto(f.CreateType("V"))

	oldType := f.CreateType("Lcom/example/Zebra;")
	newType := f.CreateType("La;")
	class := r8testing.MustClass(t, oldType, obj, nil, ir.Public)

	oldMethod := f.CreateMethod(oldType, f.CreateString("run"), proto)
	newMethod := f.CreateMethod(newType, f.CreateString("a"), proto)
	require.NoError(t, class.AddDirectMethod(ir.NewEncodedMethod(oldMethod, ir.Public|ir.Static, &ir.Code{})))

	l := lens.Minifier(lens.Identity(),
		map[*item.DexType]*item.DexType{oldType: newType},
		map[*item.DexField]*item.DexField{},
		map[*item.DexMethod]*item.DexMethod{oldMethod: newMethod},
	)

	sink := &SliceSink{}
	require.NoError(t, Emit([]*ir.Class{class}, l, sink))

	require.Len(t, sink.Classes, 1)
	assert.Equal(t, newType, sink.Classes[0].Type)
	require.Len(t, sink.Classes[0].DirectMethods, 1)
	assert.Equal(t, newMethod, sink.Classes[0].DirectMethods[0].Reference)
}

func TestEmitOrdersOutputByFinalDescriptorNotInputOrder(t *testing.T) {
	f := item.NewFactory()
	obj := f.JavaLangObject()

	z := f.CreateType("Lcom/example/Z;")
	a := f.CreateType("Lcom/example/A;")
	classZ := r8testing.MustClass(t, z, obj, nil, ir.Public)
	classA := r8testing.MustClass(t, a, obj, nil, ir.Public)

	sink := &SliceSink{}
	require.NoError(t, Emit([]*ir.Class{classZ, classA}, lens.Identity(), sink))

	require.Len(t, sink.Classes, 2)
	assert.Equal(t, a, sink.Classes[0].Type)
	assert.Equal(t, z, sink.Classes[1].Type)
}
