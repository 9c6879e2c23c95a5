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

package report

import (
	"sort"

	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/rootset"
)

// Usage renders one line per element the tree pruner removed (spec.md §6
// "Usage output"), keyed the same way prune.Result.Removed is: a type prints
// as its class name, a field/method as "<holder>: <signature>".
func Usage(removed map[rootset.Ref]bool) string {
	var lines []string
	for ref := range removed {
		switch r := ref.(type) {
		case *item.DexType:
			lines = append(lines, javaTypeName(r))
		case *item.DexField:
			lines = append(lines, javaTypeName(r.Holder)+": "+memberSignature(r))
		case *item.DexMethod:
			lines = append(lines, javaTypeName(r.Holder)+": "+memberSignature(r))
		}
	}
	sort.Strings(lines)
	return joinLines(lines)
}
