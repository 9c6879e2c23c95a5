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

package main

import (
	"encoding/json"

	"github.com/r8shrink/r8/ir"
)

// encodeClasses renders the final, lens-rewritten program classes back into
// the classDump program array shape, the mirror image of decodeClass. It
// only covers the instruction kinds decodeInstr understands; a class whose
// body came in through the constructed API with an unrepresentable
// instruction is dumped with that instruction omitted.
func encodeClasses(classes []*ir.Class) ([]byte, error) {
	out := make([]classJSON, len(classes))
	for i, c := range classes {
		out[i] = encodeClass(c)
	}
	return json.MarshalIndent(struct {
		Program []classJSON `json:"program"`
	}{out}, "", "  ")
}

func encodeClass(c *ir.Class) classJSON {
	cj := classJSON{
		Type:              c.Type.Descriptor(),
		Flags:             flagsToJSON(c.Flags),
		SourceFile:        c.SourceFile,
		OriginDescription: c.OriginDescription,
	}
	if c.Super != nil {
		cj.Super = c.Super.Descriptor()
	}
	for _, iface := range c.Interfaces {
		cj.Interfaces = append(cj.Interfaces, iface.Descriptor())
	}
	for _, f := range c.AllFields() {
		cj.Fields = append(cj.Fields, fieldJSON{
			Name:       f.Reference.Name.String(),
			Descriptor: f.Reference.Type.Descriptor(),
			Flags:      flagsToJSON(f.Flags),
		})
	}
	for _, m := range c.AllMethods() {
		mj := methodJSON{
			Name:       m.Reference.Name.String(),
			Descriptor: m.Reference.Proto.String(),
			Flags:      flagsToJSON(m.Flags),
		}
		if m.Code != nil {
			for _, instr := range m.Code.Instrs {
				if ij, ok := encodeInstr(instr); ok {
					mj.Instrs = append(mj.Instrs, ij)
				}
			}
		}
		cj.Methods = append(cj.Methods, mj)
	}
	return cj
}

func encodeInstr(instr ir.Instr) (instrJSON, bool) {
	ij := instrJSON{ReflectiveIdiom: instr.ReflectiveIdiom, ReflectiveLiteral: instr.ReflectiveLiteral}
	for name, kind := range instrKindByName {
		if kind == instr.Kind {
			ij.Kind = name
			break
		}
	}
	switch instr.Kind {
	case ir.InvokeVirtual, ir.InvokeDirect, ir.InvokeStatic, ir.InvokeInterface, ir.InvokeSuper:
		if instr.Method == nil {
			return instrJSON{}, false
		}
		ij.MethodHolder = instr.Method.Holder.Descriptor()
		ij.MethodName = instr.Method.Name.String()
		ij.MethodDesc = instr.Method.Proto.String()
	case ir.FieldRead, ir.FieldWrite:
		if instr.Field == nil {
			return instrJSON{}, false
		}
		ij.FieldHolder = instr.Field.Holder.Descriptor()
		ij.FieldName = instr.Field.Name.String()
		ij.FieldType = instr.Field.Type.Descriptor()
	case ir.NewInstance, ir.ConstClass, ir.CheckCast, ir.InstanceOf, ir.TypeReference:
		if instr.Type == nil {
			return instrJSON{}, false
		}
		ij.Type = instr.Type.Descriptor()
	default:
		return instrJSON{}, false
	}
	return ij, true
}

var flagNameOrder = []ir.AccessFlags{
	ir.Public, ir.Private, ir.Protected, ir.Static, ir.Final, ir.Synchronized,
	ir.Bridge, ir.Varargs, ir.Native, ir.Interface, ir.Abstract, ir.Strict,
	ir.Synthetic, ir.Annotation, ir.Enum, ir.Constructor,
}

func flagsToJSON(flags ir.AccessFlags) []string {
	var names []string
	for _, f := range flagNameOrder {
		if flags.Has(f) {
			names = append(names, flagName(f))
		}
	}
	return names
}

func flagName(flag ir.AccessFlags) string {
	for name, f := range flagByName {
		if f == flag {
			return name
		}
	}
	return ""
}
