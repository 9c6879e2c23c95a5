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
	"fmt"
	"sort"
	"strings"

	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
)

// Mapping renders the proguard-style class/member mapping spec.md §6
// describes: one "<original> -> <renamed>:" section per program class in
// classes, sorted by original descriptor, followed by one indented member
// line per field/method the class declared before renaming. classes must be
// the exact slice minify.Run was given (post-prune, post-merge, pre-rename);
// typeNames/fieldNames/methodNames are the rename maps minify.Run returned.
// A class absent from typeNames, or a member absent from its rename map,
// keeps its original name in the output (an unrenamed program class or
// member still gets a mapping entry - spec.md §6 says nothing limits entries
// to renamed elements, and retrace tooling needs every surviving name
// either way).
func Mapping(classes []*ir.Class, typeNames map[*item.DexType]*item.DexType, fieldNames map[*item.DexField]*item.DexField, methodNames map[*item.DexMethod]*item.DexMethod) string {
	sorted := append([]*ir.Class(nil), classes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Type.Descriptor() < sorted[j].Type.Descriptor()
	})

	var b strings.Builder
	for _, c := range sorted {
		if c.Origin != ir.Program {
			continue
		}
		renamed := javaTypeName(c.Type)
		if newType, ok := typeNames[c.Type]; ok {
			renamed = javaTypeName(newType)
		}
		fmt.Fprintf(&b, "%s -> %s:", javaTypeName(c.Type), renamed)
		if c.SyntheticFrom != "" {
			fmt.Fprintf(&b, " # synthesized from %s", c.SyntheticFrom)
		}
		b.WriteByte('\n')

		members := collectMembers(c, fieldNames, methodNames)
		sort.Slice(members, func(i, j int) bool { return members[i].original < members[j].original })
		for _, m := range members {
			fmt.Fprintf(&b, "    %s -> %s\n", m.original, m.renamed)
		}
	}
	return b.String()
}

type mappingLine struct {
	original string
	renamed  string
}

func collectMembers(c *ir.Class, fieldNames map[*item.DexField]*item.DexField, methodNames map[*item.DexMethod]*item.DexMethod) []mappingLine {
	var out []mappingLine
	for _, f := range c.AllFields() {
		renamedName := f.Reference.Name.String()
		if newRef, ok := fieldNames[f.Reference]; ok {
			renamedName = newRef.Name.String()
		}
		out = append(out, mappingLine{original: memberSignature(f.Reference), renamed: renamedName})
	}
	for _, m := range c.AllMethods() {
		renamedName := m.Reference.Name.String()
		if newRef, ok := methodNames[m.Reference]; ok {
			renamedName = newRef.Name.String()
		}
		out = append(out, mappingLine{original: memberSignature(m.Reference), renamed: renamedName})
	}
	return out
}

// ParsedMapping is what ParseMapping recovers from mapping text: enough to
// check semantic equality against the renames that produced it (spec.md §8
// "Mapping round-trip"), without requiring an item.Factory to reconstruct
// interned references.
type ParsedMapping struct {
	Classes []ParsedClass
}

// ParsedClass is one class section of a parsed mapping.
type ParsedClass struct {
	Original    string
	Renamed     string
	Synthesized string
	Members     []ParsedMember
}

// ParsedMember is one indented member line of a parsed mapping.
type ParsedMember struct {
	// Signature is the original "<type> <name>" or "<type> <name>(<params>)"
	// text preceding " -> ".
	Signature string
	Renamed   string
}

// ParseMapping parses mapping text produced by Mapping back into structured
// form (the inverse spec.md §8's "Mapping round-trip" testable property
// needs). It rejects lines that are not a class header or an indented
// member line.
func ParseMapping(text string) (*ParsedMapping, error) {
	out := &ParsedMapping{}
	var current *ParsedClass
	for i, raw := range strings.Split(text, "\n") {
		line := raw
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, " ") {
			original, renamed, synth, err := parseClassHeader(line)
			if err != nil {
				return nil, fmt.Errorf("report: line %d: %w", i+1, err)
			}
			out.Classes = append(out.Classes, ParsedClass{Original: original, Renamed: renamed, Synthesized: synth})
			current = &out.Classes[len(out.Classes)-1]
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("report: line %d: member line before any class header", i+1)
		}
		sig, renamed, err := parseMemberLine(line)
		if err != nil {
			return nil, fmt.Errorf("report: line %d: %w", i+1, err)
		}
		current.Members = append(current.Members, ParsedMember{Signature: sig, Renamed: renamed})
	}
	return out, nil
}

func parseClassHeader(line string) (original, renamed, synthesized string, err error) {
	if comment := strings.Index(line, " # synthesized from "); comment >= 0 {
		synthesized = strings.TrimSpace(line[comment+len(" # synthesized from "):])
		line = line[:comment]
	}
	line = strings.TrimSuffix(line, ":")
	parts := strings.SplitN(line, " -> ", 2)
	if len(parts) != 2 {
		return "", "", "", fmt.Errorf("malformed class header %q", line)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), synthesized, nil
}

func parseMemberLine(line string) (signature, renamed string, err error) {
	line = strings.TrimSpace(line)
	parts := strings.SplitN(line, " -> ", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("malformed member line %q", line)
	}
	return parts[0], parts[1], nil
}
