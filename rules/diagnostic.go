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

package rules

import (
	"strings"

	"github.com/google/blueprint/proptools"
)

// MemberPath renders a dotted class.member path for -whyareyoukeeping /
// -whyareyounotinlining diagnostics (spec.md §4.3's keep-reason reporting),
// folding each dotted segment the way the teacher folds an Android.bp
// property path into a struct field name (proptools.FieldNameForProperty),
// so "com.foo.bar.baz_method" reads as "Com.Foo.Bar.Baz_method" the same way
// a nested property selector does in the teacher's build files.
func MemberPath(className, memberName string) string {
	segments := append(strings.Split(className, "."), memberName)
	for i, seg := range segments {
		segments[i] = proptools.FieldNameForProperty(seg)
	}
	return strings.Join(segments, ".")
}

// SplitDottedList parses a comma-or-colon separated modifier list, such as a
// rule's "includedescriptorclasses,allowoptimization" modifier set, and
// dedupes repeated modifiers with the teacher's list helper
// (proptools.RemoveListDuplicates) instead of a hand-rolled dedup loop.
func SplitDottedList(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ':' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return proptools.RemoveListDuplicates(out, true)
}
