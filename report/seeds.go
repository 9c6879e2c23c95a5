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

	"github.com/r8shrink/r8/rootset"
)

// Seeds renders the root set as one line per matched root, in
// "<class-descriptor>:<member-signature>" form for a field/method root and a
// bare class name for a class root (spec.md §6 "Seeds output").
func Seeds(seeds *rootset.Seeds) string {
	var lines []string
	for t := range seeds.LiveTypes {
		lines = append(lines, javaTypeName(t))
	}
	for f := range seeds.LiveFields {
		lines = append(lines, f.Holder.Descriptor()+":"+memberSignature(f))
	}
	for m := range seeds.LiveMethods {
		lines = append(lines, m.Holder.Descriptor()+":"+memberSignature(m))
	}
	sort.Strings(lines)
	return joinLines(lines)
}
