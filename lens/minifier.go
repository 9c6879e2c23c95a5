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

import "github.com/r8shrink/r8/item"

// Minifier builds the final lens in the chain from the rename maps the
// minify package computes (spec.md §4.8 "Lenses produced by the core: ...
// minifier (assigns new names)"). Name computation, reserved-name
// collection, and equivalence-class grouping are package minify's
// responsibility; this constructor only folds the resulting maps into the
// lens chain.
func Minifier(prev GraphLens, typeNames map[*item.DexType]*item.DexType, fieldNames map[*item.DexField]*item.DexField, methodNames map[*item.DexMethod]*item.DexMethod) GraphLens {
	methods := make(map[*item.DexMethod]MethodRewrite, len(methodNames))
	for old, renamed := range methodNames {
		methods[old] = MethodRewrite{Method: renamed}
	}
	return NewNested(prev, typeNames, fieldNames, methods, nil, true)
}
