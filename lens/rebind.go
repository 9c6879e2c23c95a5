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

package lens

import (
	"github.com/r8shrink/r8/enqueue"
	"github.com/r8shrink/r8/hierarchy"
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
)

// MemberRebinder builds the lens that moves a field or method reference up
// the hierarchy to the class that actually defines it (spec.md §4.8
// "member-rebinder: moves references up the hierarchy to the defining
// class"). A reference already pointing at its defining class is left
// untouched.
//
// When a field is rebound, its recorded FieldAccessInfo is flattened into
// the defining field's info (SPEC_FULL.md §9, resolving spec.md §9's
// reflective-access propagation question): after rebinding, nothing
// downstream ever looks up access info by the pre-rebind reference again, so
// the only way a rebound field's reflective/method-handle flags survive is
// to fold them into the target before the old reference becomes
// unreachable.
func MemberRebinder(idx *hierarchy.Index, live *enqueue.Liveness, prev GraphLens) GraphLens {
	fields := map[*item.DexField]*item.DexField{}
	for f := range live.LiveFields() {
		if live.Pinned[f] {
			continue
		}
		res := idx.ResolveField(f.Holder, f, nil)
		if !res.Ok() || res.Definition.Reference == f {
			continue
		}
		target := res.Definition.Reference
		fields[f] = target
		targetInfo, ok := live.FieldAccessInfo[target]
		if !ok {
			targetInfo = ir.NewFieldAccessInfo()
			live.FieldAccessInfo[target] = targetInfo
		}
		targetInfo.Merge(live.FieldAccessInfo[f])
	}

	methods := map[*item.DexMethod]MethodRewrite{}
	for m := range live.LiveMethods {
		if live.Pinned[m] {
			continue
		}
		res := idx.ResolveMethod(m.Holder, m, nil)
		if !res.Ok() || res.Definition.Reference == m {
			continue
		}
		methods[m] = MethodRewrite{Method: res.Definition.Reference}
	}

	return NewNested(prev, nil, fields, methods, nil, true)
}
