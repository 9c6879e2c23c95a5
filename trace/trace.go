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

// Package trace is the Use Registry (spec.md §4.5): it walks a method body
// and reports every reference-bearing operation to a Visitor, carrying the
// holder/method context the Enqueuer needs for accessibility checks.
package trace

import (
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
)

// Context is the accessing context a reference is encountered in: the
// holder class and method currently being traced (spec.md §4.5 "the current
// context (holder class + method)").
type Context struct {
	Holder *item.DexType
	Method *item.DexMethod
}

// Visitor receives every reference the Use Registry discovers while tracing
// one method. The Enqueuer is the only production implementation; tests use
// small recording stubs.
type Visitor interface {
	// VisitInstr receives one instruction from the method's main body or an
	// exception handler's instructions.
	VisitInstr(ctx Context, instr ir.Instr)
	// VisitExceptionType receives a non-catch-all handler's catch type.
	VisitExceptionType(ctx Context, catchType *item.DexType)
	// VisitAnnotationFieldRef receives a field referenced as an annotation
	// element value (spec.md §4.6 transition rule 6).
	VisitAnnotationFieldRef(ctx Context, f *item.DexField)
	// VisitAnnotationTypeRef receives a type referenced as an annotation
	// element value, or the annotation's own type.
	VisitAnnotationTypeRef(ctx Context, t *item.DexType)
}

// Walk visits every reference reachable from method: its main instruction
// stream, its exception handler regions, and its annotations (including
// parameter annotations), satisfying spec.md §4.5's "must visit every
// reference the method could execute or link against... including those
// inside exception handlers and constant-pool entries reachable only via
// annotations."
func Walk(method *ir.EncodedMethod, v Visitor) {
	ctx := Context{Holder: method.Holder(), Method: method.Reference}
	if method.Code != nil {
		for _, instr := range method.Code.Instrs {
			v.VisitInstr(ctx, instr)
		}
	}
	WalkExceptionTargets(method, v)
	WalkAnnotationReferences(method, v)
}

// WalkExceptionTargets visits every exception handler region attached to
// method's code: the handler's instructions (as ordinary instructions) and,
// for a non-catch-all handler, its catch type.
func WalkExceptionTargets(method *ir.EncodedMethod, v Visitor) {
	if method.Code == nil {
		return
	}
	ctx := Context{Holder: method.Holder(), Method: method.Reference}
	for _, h := range method.Code.ExceptionHandlers {
		if h.CatchType != nil {
			v.VisitExceptionType(ctx, h.CatchType)
		}
		for _, instr := range h.Instrs {
			v.VisitInstr(ctx, instr)
		}
	}
}

// WalkAnnotationReferences visits every field/type reference carried by
// method's own annotations and its parameter annotations.
func WalkAnnotationReferences(method *ir.EncodedMethod, v Visitor) {
	ctx := Context{Holder: method.Holder(), Method: method.Reference}
	walkAnnotations(ctx, method.Annotations, v)
	for _, params := range method.ParamAnnotations {
		walkAnnotations(ctx, params, v)
	}
}

// WalkClassAnnotations visits a class's own annotations, used when a type
// becomes live and annotations are configured to be kept (spec.md §4.6
// transition rule 6).
func WalkClassAnnotations(classType *item.DexType, annotations []ir.Annotation, v Visitor) {
	walkAnnotations(Context{Holder: classType}, annotations, v)
}

// WalkFieldAnnotations visits a field's own annotations.
func WalkFieldAnnotations(f *ir.EncodedField, v Visitor) {
	walkAnnotations(Context{Holder: f.Holder()}, f.Annotations, v)
}

func walkAnnotations(ctx Context, annotations []ir.Annotation, v Visitor) {
	for _, a := range annotations {
		v.VisitAnnotationTypeRef(ctx, a.Type)
		for _, f := range a.FieldRefs {
			v.VisitAnnotationFieldRef(ctx, f)
		}
		for _, t := range a.TypeRefs {
			v.VisitAnnotationTypeRef(ctx, t)
		}
	}
}
