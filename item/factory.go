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

// Package item is the single process-wide registry for one compilation: it
// interns names, descriptors, types, and field/method references so that
// equal descriptors always share identity, and hashing/equality thereafter is
// pointer identity (spec.md §3 "Interned identifiers").
package item

import (
	"fmt"
	"strings"

	"github.com/r8shrink/r8/parallel"
)

// InvalidDescriptor is returned when a descriptor given to the factory is
// syntactically malformed (spec.md §4.1).
type InvalidDescriptor struct {
	Descriptor string
	Reason     string
}

func (e *InvalidDescriptor) Error() string {
	return fmt.Sprintf("invalid descriptor %q: %s", e.Descriptor, e.Reason)
}

// DexString is an interned UTF-8 string. Two DexStrings built from equal text
// are the same pointer.
type DexString struct {
	value string
}

func (s *DexString) String() string { return s.value }

// DexType is an interned type descriptor, e.g. "Ljava/lang/Object;", "[I".
type DexType struct {
	descriptor string
}

func (t *DexType) Descriptor() string { return t.descriptor }

// IsArray reports whether this type is an array type.
func (t *DexType) IsArray() bool { return strings.HasPrefix(t.descriptor, "[") }

// IsPrimitive reports whether this type is a Java primitive (not an object or
// array type).
func (t *DexType) IsPrimitive() bool {
	switch t.descriptor {
	case "V", "Z", "B", "S", "C", "I", "J", "F", "D":
		return true
	default:
		return false
	}
}

func (t *DexType) String() string { return t.descriptor }

// PackageName returns the Java-style dotted package name for a class type
// descriptor ("Lcom/foo/Bar;" -> "com.foo"), or "" for primitives/arrays.
func (t *DexType) PackageName() string {
	if !strings.HasPrefix(t.descriptor, "L") {
		return ""
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(t.descriptor, "L"), ";")
	idx := strings.LastIndex(inner, "/")
	if idx < 0 {
		return ""
	}
	return strings.ReplaceAll(inner[:idx], "/", ".")
}

// DexProto is an interned method prototype: a return type plus an ordered
// parameter type list.
type DexProto struct {
	key        string
	ReturnType *DexType
	Params     []*DexType
}

func (p *DexProto) String() string {
	parts := make([]string, len(p.Params))
	for i, t := range p.Params {
		parts[i] = t.descriptor
	}
	return fmt.Sprintf("(%s)%s", strings.Join(parts, ""), p.ReturnType.descriptor)
}

// DexField is an interned reference to a field by holder, name, and type.
// It names something; it does not carry a body (spec.md §3 "Reference vs.
// definition").
type DexField struct {
	key    string
	Holder *DexType
	Name   *DexString
	Type   *DexType
}

func (f *DexField) String() string {
	return fmt.Sprintf("%s.%s:%s", f.Holder.descriptor, f.Name.value, f.Type.descriptor)
}

// DexMethod is an interned reference to a method by holder, name, and proto.
type DexMethod struct {
	key    string
	Holder *DexType
	Name   *DexString
	Proto  *DexProto
}

func (m *DexMethod) String() string {
	return fmt.Sprintf("%s.%s%s", m.Holder.descriptor, m.Name.value, m.Proto.String())
}

// Factory interns all names/descriptors/references for one compilation.
// Identity is stable for the lifetime of the Factory (spec.md §3
// "Identity is stable for the lifetime of one compilation"). Every intern
// table is a parallel.ShardedMap so concurrent readers during tracing only
// block on the bucket they touch (spec.md §5 point 1).
type Factory struct {
	strings parallel.ShardedMap[string, *DexString]
	types   parallel.ShardedMap[string, *DexType]
	protos  parallel.ShardedMap[string, *DexProto]
	fields  parallel.ShardedMap[string, *DexField]
	methods parallel.ShardedMap[string, *DexMethod]

	// Well-known references, materialized once so other components compare
	// against them by identity (spec.md §4.1).
	javaLangObject     *DexType
	javaLangThrowable  *DexType
	javaLangEnum       *DexType
	methodHandleType   *DexType
	serviceLoaderType  *DexType
	kotlinMetadataType *DexType
	boxedTypes         map[string]*DexType
}

// NewFactory creates an empty factory and materializes its well-known types.
func NewFactory() *Factory {
	f := &Factory{}
	f.javaLangObject = f.CreateType("Ljava/lang/Object;")
	f.javaLangThrowable = f.CreateType("Ljava/lang/Throwable;")
	f.javaLangEnum = f.CreateType("Ljava/lang/Enum;")
	f.methodHandleType = f.CreateType("Ljava/lang/invoke/MethodHandle;")
	f.serviceLoaderType = f.CreateType("Ljava/util/ServiceLoader;")
	f.kotlinMetadataType = f.CreateType("Lkotlin/Metadata;")

	boxedDescriptors := []string{
		"Ljava/lang/Boolean;", "Ljava/lang/Byte;", "Ljava/lang/Short;",
		"Ljava/lang/Character;", "Ljava/lang/Integer;", "Ljava/lang/Long;",
		"Ljava/lang/Float;", "Ljava/lang/Double;", "Ljava/lang/Void;",
	}
	f.boxedTypes = make(map[string]*DexType, len(boxedDescriptors))
	for _, d := range boxedDescriptors {
		f.boxedTypes[d] = f.CreateType(d)
	}
	return f
}

func (f *Factory) JavaLangObject() *DexType    { return f.javaLangObject }
func (f *Factory) JavaLangThrowable() *DexType { return f.javaLangThrowable }
func (f *Factory) JavaLangEnum() *DexType      { return f.javaLangEnum }
func (f *Factory) MethodHandleType() *DexType  { return f.methodHandleType }
func (f *Factory) ServiceLoaderType() *DexType { return f.serviceLoaderType }
func (f *Factory) KotlinMetadata() *DexType    { return f.kotlinMetadataType }

func (f *Factory) IsBoxedType(t *DexType) bool {
	_, ok := f.boxedTypes[t.descriptor]
	return ok
}

// CreateString returns the canonical DexString for text.
func (f *Factory) CreateString(text string) *DexString {
	if v, ok := f.strings.Load(text); ok {
		return v
	}
	actual, _ := f.strings.LoadOrStore(text, &DexString{value: text})
	return actual
}

// CreateType returns the canonical DexType for descriptor, or panics with
// InvalidDescriptor if it is malformed. Callers who need to handle malformed
// input should use ValidateDescriptor first.
func (f *Factory) CreateType(descriptor string) *DexType {
	t, err := f.TryCreateType(descriptor)
	if err != nil {
		panic(err)
	}
	return t
}

// TryCreateType returns the canonical DexType for descriptor, or an
// InvalidDescriptor error if descriptor is syntactically malformed.
func (f *Factory) TryCreateType(descriptor string) (*DexType, error) {
	if err := ValidateDescriptor(descriptor); err != nil {
		return nil, err
	}
	if v, ok := f.types.Load(descriptor); ok {
		return v, nil
	}
	actual, _ := f.types.LoadOrStore(descriptor, &DexType{descriptor: descriptor})
	return actual, nil
}

// ValidateDescriptor reports whether descriptor is a syntactically valid
// Java type descriptor: a primitive code, an array prefix followed by a
// valid descriptor, or "L<binary-name>;".
func ValidateDescriptor(descriptor string) error {
	d := descriptor
	depth := 0
	for strings.HasPrefix(d, "[") {
		d = d[1:]
		depth++
	}
	if depth > 255 {
		return &InvalidDescriptor{descriptor, "array nesting too deep"}
	}
	if d == "" {
		return &InvalidDescriptor{descriptor, "empty descriptor"}
	}
	switch d {
	case "V", "Z", "B", "S", "C", "I", "J", "F", "D":
		return nil
	}
	if !strings.HasPrefix(d, "L") || !strings.HasSuffix(d, ";") {
		return &InvalidDescriptor{descriptor, "not a primitive, array, or L...; class descriptor"}
	}
	inner := d[1 : len(d)-1]
	if inner == "" {
		return &InvalidDescriptor{descriptor, "empty class name"}
	}
	if strings.ContainsAny(inner, ".;[") {
		return &InvalidDescriptor{descriptor, "class name contains an illegal character"}
	}
	return nil
}

// CreateProto returns the canonical DexProto for the given return and
// parameter types.
func (f *Factory) CreateProto(ret *DexType, params ...*DexType) *DexProto {
	key := protoKey(ret, params)
	if v, ok := f.protos.Load(key); ok {
		return v
	}
	actual, _ := f.protos.LoadOrStore(key, &DexProto{
		key:        key,
		ReturnType: ret,
		Params:     append([]*DexType(nil), params...),
	})
	return actual
}

func protoKey(ret *DexType, params []*DexType) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		b.WriteString(p.descriptor)
	}
	b.WriteByte(')')
	b.WriteString(ret.descriptor)
	return b.String()
}

// CreateField returns the canonical DexField for (holder, name, type).
func (f *Factory) CreateField(holder *DexType, name *DexString, fieldType *DexType) *DexField {
	key := holder.descriptor + "." + name.value + ":" + fieldType.descriptor
	if v, ok := f.fields.Load(key); ok {
		return v
	}
	actual, _ := f.fields.LoadOrStore(key, &DexField{key: key, Holder: holder, Name: name, Type: fieldType})
	return actual
}

// CreateMethod returns the canonical DexMethod for (holder, name, proto).
func (f *Factory) CreateMethod(holder *DexType, name *DexString, proto *DexProto) *DexMethod {
	key := holder.descriptor + "." + name.value + proto.key
	if v, ok := f.methods.Load(key); ok {
		return v
	}
	actual, _ := f.methods.LoadOrStore(key, &DexMethod{key: key, Holder: holder, Name: name, Proto: proto})
	return actual
}
