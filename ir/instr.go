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

// InstrKind enumerates every reference-bearing bytecode operation the Use
// Registry must report (spec.md §4.5). Per spec.md §9's design note to
// "prefer tagged variants... enumerate the states in one place", Instr is a
// single tagged struct rather than a family of instruction types, since the
// per-method tracer is a flat one-pass visitor, not a recursive evaluator.
type InstrKind int

const (
	InvokeVirtual InstrKind = iota
	InvokeDirect
	InvokeStatic
	InvokeInterface
	InvokeSuper
	FieldRead
	FieldWrite
	NewInstance
	ConstClass
	CheckCast
	InstanceOf
	TypeReference
	MethodHandleRef
	InvokeDynamic
)

func (k InstrKind) String() string {
	switch k {
	case InvokeVirtual:
		return "invoke-virtual"
	case InvokeDirect:
		return "invoke-direct"
	case InvokeStatic:
		return "invoke-static"
	case InvokeInterface:
		return "invoke-interface"
	case InvokeSuper:
		return "invoke-super"
	case FieldRead:
		return "field-read"
	case FieldWrite:
		return "field-write"
	case NewInstance:
		return "new-instance"
	case ConstClass:
		return "const-class"
	case CheckCast:
		return "check-cast"
	case InstanceOf:
		return "instance-of"
	case TypeReference:
		return "type-reference"
	case MethodHandleRef:
		return "method-handle"
	case InvokeDynamic:
		return "invoke-dynamic"
	default:
		return "unknown"
	}
}

// MethodHandleAccessKind distinguishes how a method-handle instruction uses
// its referenced member (spec.md §4.2 field-access flags "method-handle-read
// / method-handle-write").
type MethodHandleAccessKind int

const (
	MethodHandleInvoke MethodHandleAccessKind = iota
	MethodHandleReadField
	MethodHandleWriteField
)

// BootstrapKind classifies an invoke-dynamic call site's bootstrap method
// (spec.md §4.6.1).
type BootstrapKind int

const (
	OtherBootstrap BootstrapKind = iota
	LambdaMetafactoryBootstrap
)

// CallSite describes an invoke-dynamic call site.
type CallSite struct {
	Bootstrap BootstrapKind
	// Interface is the target functional interface, set only when Bootstrap
	// is LambdaMetafactoryBootstrap.
	Interface *item.DexType
	// InterfaceMethod is the single abstract method of Interface the
	// synthesized class must implement, set only when Bootstrap is
	// LambdaMetafactoryBootstrap.
	InterfaceMethod *item.DexMethod
	// ImplMethod is the method the synthesized lambda class forwards to, set
	// only when Bootstrap is LambdaMetafactoryBootstrap.
	ImplMethod *item.DexMethod
	// ImplInvokeKind is how the synthesized forwarding body must invoke
	// ImplMethod (InvokeStatic for a static method reference, InvokeDirect
	// for a private/constructor reference, InvokeVirtual otherwise).
	ImplInvokeKind InstrKind
	// Desc is an opaque descriptor of the bootstrap for reporting in the
	// usage output when the call site is not a recognized lambda.
	Desc string
}

// Instr is one reference-bearing operation in a method body.
type Instr struct {
	Kind InstrKind

	Method *item.DexMethod // invoke-*, method-handle (invoke kind)
	Field  *item.DexField  // field read/write, method-handle (field kind)
	Type   *item.DexType   // new-instance, const-class, check-cast, instance-of, type-reference

	MethodHandleKind MethodHandleAccessKind // valid when Kind == MethodHandleRef
	CallSite         *CallSite               // valid when Kind == InvokeDynamic

	// ReflectiveIdiom, when non-empty, names the recognized reflective
	// pattern this instruction is part of (spec.md §4.6 transition rule 7,
	// SPEC_FULL.md §9 trace.DefaultReflectiveIdioms). ReflectiveLiteral is
	// the literal class/member name argument the idiom resolved against.
	ReflectiveIdiom   string
	ReflectiveLiteral string
}

// ExceptionHandler is a catch block: its instructions must be visited just
// like the main body (spec.md §4.5 "including those inside exception
// handlers"), and its catch type, if not a catch-all, is itself a type
// reference.
type ExceptionHandler struct {
	CatchType *item.DexType // nil for a catch-all handler
	Instrs    []Instr
}

// Code is the body of a method: the linear instruction stream plus any
// exception handler regions. The actual bytecode/IR representation is out of
// scope (spec.md §1); Code is the minimal abstraction the Use Registry needs
// to be fully specified and testable without depending on an external IR
// converter.
type Code struct {
	Instrs            []Instr
	ExceptionHandlers []ExceptionHandler
}

// Annotation is a reference-bearing annotation instance attached to a class,
// field, method, or method parameter.
type Annotation struct {
	Type *item.DexType
	// FieldRefs are field references that appear as annotation element
	// values (spec.md §4.6 transition rule 6 "field references inside
	// annotations set the read-from-annotation flag").
	FieldRefs []*item.DexField
	// TypeRefs are type references (e.g. Class-valued elements) that appear
	// as annotation element values.
	TypeRefs []*item.DexType
}
