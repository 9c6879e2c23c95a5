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

package shrink

import (
	"strings"

	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/minify"
	"github.com/r8shrink/r8/report"
	"github.com/r8shrink/r8/rootset"
	"github.com/r8shrink/r8/rules"
)

// pinForApplyMapping marks every program class (and, narrowly, its members
// named by an external mapping's member lines) no-obfuscation, so
// minify.Run leaves them untouched; applyExternalMapping then installs the
// externally-chosen names directly. Matching members is done by original
// simple name only, not full signature: resolving an original method
// signature back from a proguard mapping's Java-source parameter list
// would require reconstructing descriptors from source type names, which
// this core does not attempt.
func pinForApplyMapping(parsed *report.ParsedMapping, classes []*ir.Class, noObfuscation map[rootset.Ref]bool) {
	byJavaName := indexClassesByJavaName(classes)
	for _, pc := range parsed.Classes {
		c, ok := byJavaName[pc.Original]
		if !ok {
			continue
		}
		noObfuscation[c.Type] = true
		for _, pm := range pc.Members {
			name := memberNameFromSignature(pm.Signature)
			for _, f := range c.AllFields() {
				if f.Reference.Name.String() == name {
					noObfuscation[f.Reference] = true
				}
			}
			for _, m := range c.AllMethods() {
				if m.Reference.Name.String() == name {
					noObfuscation[m.Reference] = true
				}
			}
		}
	}
}

// applyExternalMapping overlays result with the renames an -applymapping
// file specifies, minting renamed references through factory so they stay
// canonically interned (spec.md §6 "applyMapping... seed the minifier from
// an externally-supplied map").
func applyExternalMapping(parsed *report.ParsedMapping, classes []*ir.Class, factory *item.Factory, result *minify.Result) {
	byJavaName := indexClassesByJavaName(classes)
	for _, pc := range parsed.Classes {
		c, ok := byJavaName[pc.Original]
		if !ok || pc.Renamed == pc.Original {
			continue
		}
		renamedType := factory.CreateType(classDescriptorFromJavaName(pc.Renamed))
		result.TypeNames[c.Type] = renamedType

		for _, pm := range pc.Members {
			name := memberNameFromSignature(pm.Signature)
			if name == pm.Renamed {
				continue
			}
			renamedName := factory.CreateString(pm.Renamed)
			for _, f := range c.AllFields() {
				if f.Reference.Name.String() == name {
					result.FieldNames[f.Reference] = factory.CreateField(renamedType, renamedName, f.Reference.Type)
				}
			}
			for _, m := range c.AllMethods() {
				if m.Reference.Name.String() == name {
					result.MethodNames[m.Reference] = factory.CreateMethod(renamedType, renamedName, m.Reference.Proto)
				}
			}
		}
	}
}

func indexClassesByJavaName(classes []*ir.Class) map[string]*ir.Class {
	out := make(map[string]*ir.Class, len(classes))
	for _, c := range classes {
		if c.Origin == ir.Program {
			out[rules.DescriptorToJavaName(c.Type.Descriptor())] = c
		}
	}
	return out
}

// classDescriptorFromJavaName is the inverse of rules.DescriptorToJavaName
// for reference types only (the class sections of a mapping never name a
// primitive or array type).
func classDescriptorFromJavaName(name string) string {
	return "L" + strings.ReplaceAll(name, ".", "/") + ";"
}

// memberNameFromSignature extracts the bare member name from a parsed
// mapping line's "<type> <name>" or "<type> <name>(<params>)" signature.
func memberNameFromSignature(signature string) string {
	sig := signature
	if paren := strings.IndexByte(sig, '('); paren >= 0 {
		sig = sig[:paren]
	}
	fields := strings.Fields(sig)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
