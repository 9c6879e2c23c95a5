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
	"github.com/r8shrink/r8/hierarchy"
	"github.com/r8shrink/r8/ir"
)

// Match is one rule firing against one class: the rule, the class it fired
// on, and (for rules carrying member selectors) the specific fields and
// methods the selectors picked out. The Root Set Builder (spec.md §4.4)
// consumes a slice of these instead of re-running the matcher itself.
type Match struct {
	Rule    *Rule
	Class   *ir.Class
	Fields  []*ir.EncodedField
	Methods []*ir.EncodedMethod
}

// ReasonPaths renders one diagnostic path per matched member, for
// -whyareyoukeeping style output (spec.md §4.3). A class-only match (no
// members) yields the class name alone.
func (m Match) ReasonPaths() []string {
	if m.Class == nil {
		return nil
	}
	className := DescriptorToJavaName(m.Class.Type.String())
	if len(m.Fields) == 0 && len(m.Methods) == 0 {
		return []string{className}
	}
	paths := make([]string, 0, len(m.Fields)+len(m.Methods))
	for _, f := range m.Fields {
		paths = append(paths, MemberPath(className, f.Reference.Name.String()))
	}
	for _, method := range m.Methods {
		paths = append(paths, MemberPath(className, method.Reference.Name.String()))
	}
	return paths
}

// Apply runs every rule in ruleset against every class in classes and
// returns one Match per (rule, class) pair that fires. For directives with
// no class spec (DontWarn, ApplyMapping, PrintMapping, PrintUsage,
// PrintSeeds, RepackageClasses, FlattenPackageHierarchy, DontOptimize,
// DontShrink, DontObfuscate) a single Match with a nil Class is emitted so
// those global rules still surface to the caller.
func Apply(ruleset []*Rule, classes []*ir.Class, idx *hierarchy.Index) []Match {
	var out []Match
	for _, r := range ruleset {
		if !classBodiedDirectives[r.Directive()] {
			out = append(out, Match{Rule: r})
			continue
		}
		for _, c := range classes {
			if !r.Matches(c, idx) {
				continue
			}
			fields, methods := r.MatchingMembers(c)
			out = append(out, Match{Rule: r, Class: c, Fields: fields, Methods: methods})
		}
	}
	return out
}
