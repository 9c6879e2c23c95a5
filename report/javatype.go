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

// Package report renders the three text artifacts spec.md §6 names
// (proguard-style class/member mapping, seeds, usage) and parses the
// mapping format back, the inverse spec.md §8's "Mapping round-trip"
// testable property needs.
package report

import (
	"strings"

	"github.com/r8shrink/r8/item"
)

// javaTypeName renders a type descriptor the way a proguard-style mapping
// does: Java source syntax, not JVM descriptor syntax ("Lcom/foo/Bar;" ->
// "com.foo.Bar", "[I" -> "int[]", "V" -> "void").
func javaTypeName(t *item.DexType) string {
	d := t.Descriptor()
	dims := 0
	for strings.HasPrefix(d, "[") {
		d = d[1:]
		dims++
	}
	var base string
	switch d {
	case "V":
		base = "void"
	case "Z":
		base = "boolean"
	case "B":
		base = "byte"
	case "S":
		base = "short"
	case "C":
		base = "char"
	case "I":
		base = "int"
	case "J":
		base = "long"
	case "F":
		base = "float"
	case "D":
		base = "double"
	default:
		if strings.HasPrefix(d, "L") && strings.HasSuffix(d, ";") {
			base = strings.ReplaceAll(d[1:len(d)-1], "/", ".")
		} else {
			base = d
		}
	}
	return base + strings.Repeat("[]", dims)
}

// joinLines renders lines as a trailing-newline-terminated block, or "" for
// no lines at all (so an empty report produces an empty file, not a blank
// line).
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func javaParamList(proto *item.DexProto) string {
	parts := make([]string, len(proto.Params))
	for i, p := range proto.Params {
		parts[i] = javaTypeName(p)
	}
	return strings.Join(parts, ",")
}

// memberSignature renders a field or method reference the way §6's seeds
// and mapping output do: "<type> <name>" for a field, "<type>
// <name>(<params>)" for a method.
func memberSignature(ref interface{}) string {
	switch r := ref.(type) {
	case *item.DexField:
		return javaTypeName(r.Type) + " " + r.Name.String()
	case *item.DexMethod:
		return javaTypeName(r.Proto.ReturnType) + " " + r.Name.String() + "(" + javaParamList(r.Proto) + ")"
	default:
		return ""
	}
}
