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

package ir

import "github.com/r8shrink/r8/item"

// EncodedField is a field definition: the reference it implements plus its
// body (flags, annotations). Invariant: Holder() == the type of the class
// that owns it, enforced when the field is added to a Class (spec.md §3
// "definition.holder == containingClass.type").
type EncodedField struct {
	Reference   *item.DexField
	Flags       AccessFlags
	Annotations []Annotation
	holder      *item.DexType
}

func NewEncodedField(ref *item.DexField, flags AccessFlags, annotations ...Annotation) *EncodedField {
	return &EncodedField{Reference: ref, Flags: flags, Annotations: annotations}
}

func (f *EncodedField) Holder() *item.DexType { return f.holder }

// OptimizationInfo holds the mutable fields later passes (outside this
// core's scope) populate on a traced method: an abstract return value, a
// non-null-parameter mask, and inlining constraints (spec.md §3 "Method
// definition"). This core only carries the struct; it never computes these
// values itself (the IR converter that would is explicitly out of scope).
type OptimizationInfo struct {
	AbstractReturnValue  interface{}
	NonNullParameterMask uint64
	NeverInline           bool
	NeverInlineReason     string
}

// EncodedMethod is a method definition.
type EncodedMethod struct {
	Reference        *item.DexMethod
	Flags            AccessFlags
	Annotations      []Annotation
	ParamAnnotations [][]Annotation
	Code             *Code // nil for abstract/native methods
	OptInfo          OptimizationInfo
	holder           *item.DexType
}

func NewEncodedMethod(ref *item.DexMethod, flags AccessFlags, code *Code, annotations ...Annotation) *EncodedMethod {
	return &EncodedMethod{Reference: ref, Flags: flags, Code: code, Annotations: annotations}
}

func (m *EncodedMethod) Holder() *item.DexType { return m.holder }

// IsInstanceInitializer reports whether this method is an instance
// constructor ("<init>").
func (m *EncodedMethod) IsInstanceInitializer() bool {
	return m.Reference.Name.String() == "<init>"
}

// IsStaticInitializer reports whether this method is a class initializer
// ("<clinit>").
func (m *EncodedMethod) IsStaticInitializer() bool {
	return m.Reference.Name.String() == "<clinit>" && m.Flags.IsStatic()
}

// IsDirect reports whether this method belongs among a class's "direct"
// methods (static, private, or a constructor) as opposed to its virtual
// methods (spec.md §3 "Class" direct/virtual method lists).
func (m *EncodedMethod) IsDirect() bool {
	return m.Flags.IsStatic() || m.Flags.IsPrivate() || m.IsInstanceInitializer()
}
