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

package trace

// DefaultReflectiveIdioms is the closed set of reflective call idioms this
// core recognizes (spec.md §4.6 transition rule 7). SPEC_FULL.md §9 resolves
// the open question of how broad this list should be: it is a fixed named
// configuration, not open-ended pattern matching, because the bytecode
// reader that would syntactically detect these calls is out of scope (spec.md
// §1) — an upstream IR converter tags a recognized call site's ir.Instr with
// ReflectiveIdiom set to one of these names plus the literal argument it
// resolved against; this core's job is to recognize the tag and look up the
// target, not to perform the syntactic detection itself.
var DefaultReflectiveIdioms = []string{
	"Class.forName",
	"Class.getDeclaredMethod",
	"Class.getMethod",
	"Class.getDeclaredField",
	"Class.getField",
	"Class.getDeclaredConstructor",
	"Class.getConstructor",
	"Method.invoke",
	"AtomicReferenceFieldUpdater.newUpdater",
}

// IsRecognizedReflectiveIdiom reports whether name is one of
// DefaultReflectiveIdioms.
func IsRecognizedReflectiveIdiom(name string) bool {
	for _, n := range DefaultReflectiveIdioms {
		if n == name {
			return true
		}
	}
	return false
}

// ServiceLoaderLoadIdiom tags an ir.Instr's ReflectiveIdiom field when it
// represents a recognized "ServiceLoader.load(Foo.class)" call site, the
// trigger for spec.md §4.6 transition rule 5 ("Service discovery"). It is
// kept distinct from DefaultReflectiveIdioms because it drives a different
// transition rule (service-implementation discovery, not member lookup).
const ServiceLoaderLoadIdiom = "ServiceLoader.load"

