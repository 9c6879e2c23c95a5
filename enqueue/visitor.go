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

package enqueue

import (
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/trace"
)

// The Enqueuer is itself the trace.Visitor the Use Registry reports to,
// implementing transition rules 4 through 7 (spec.md §4.6).
var _ trace.Visitor = (*Enqueuer)(nil)

func (e *Enqueuer) VisitInstr(ctx trace.Context, instr ir.Instr) {
	switch instr.Kind {
	case ir.InvokeStatic, ir.InvokeDirect:
		e.resolveAndMarkLive(instr.Method, ctx, "invoked from "+ctx.Method.String())
	case ir.InvokeSuper:
		e.visitInvokeSuper(ctx, instr)
	case ir.InvokeVirtual, ir.InvokeInterface:
		e.visitVirtualDispatch(ctx, instr)
	case ir.FieldRead, ir.FieldWrite:
		e.visitFieldAccess(ctx, instr)
	case ir.NewInstance:
		e.visitNewInstance(ctx, instr)
	case ir.ConstClass, ir.CheckCast, ir.InstanceOf, ir.TypeReference:
		e.markTypeLive(instr.Type, instr.Kind.String()+" in "+ctx.Method.String())
	case ir.InvokeDynamic:
		e.visitInvokeDynamic(ctx, instr)
	case ir.MethodHandleRef:
		e.visitMethodHandle(ctx, instr)
	}

	if instr.Kind == ir.TypeReference && instr.ReflectiveIdiom == trace.ServiceLoaderLoadIdiom {
		e.discoverServices(instr.Type)
	} else if instr.ReflectiveIdiom != "" && trace.IsRecognizedReflectiveIdiom(instr.ReflectiveIdiom) {
		e.visitReflective(ctx, instr)
	}
}

func (e *Enqueuer) VisitExceptionType(ctx trace.Context, catchType *item.DexType) {
	e.markTypeLive(catchType, "exception handler in "+ctx.Method.String())
}

func (e *Enqueuer) VisitAnnotationFieldRef(ctx trace.Context, f *item.DexField) {
	if !e.KeepAnnotations {
		return
	}
	res := e.idx.ResolveField(f.Holder, f, nil)
	if !res.Ok() {
		return
	}
	info := e.fieldAccessInfo(res.Definition.Reference)
	info.ReadFromAnnotation = true
	e.markTypeLive(res.Definition.Holder(), "annotation field reference")
}

func (e *Enqueuer) VisitAnnotationTypeRef(ctx trace.Context, t *item.DexType) {
	if !e.KeepAnnotations {
		return
	}
	e.markTypeLive(t, "annotation type reference")
}

func (e *Enqueuer) resolveAndMarkLive(ref *item.DexMethod, ctx trace.Context, reason string) {
	if ref == nil {
		return
	}
	res := e.idx.ResolveMethod(ref.Holder, ref, nil)
	if res.Ok() {
		e.markMethodLive(res.Definition.Reference, reason)
	}
}

func (e *Enqueuer) visitInvokeSuper(ctx trace.Context, instr ir.Instr) {
	if instr.Method == nil || ctx.Holder == nil {
		return
	}
	c, ok := e.idx.DefinitionFor(ctx.Holder)
	if !ok || c.Super == nil {
		return
	}
	res := e.idx.ResolveMethod(c.Super, instr.Method, nil)
	if res.Ok() {
		e.markMethodLive(res.Definition.Reference, "invoke-super from "+ctx.Method.String())
	}
}

// visitVirtualDispatch implements invoke-virtual/invoke-interface handling:
// resolve the call, record it as a virtual target, and immediately complete
// dispatch for every type already known instantiated.
func (e *Enqueuer) visitVirtualDispatch(ctx trace.Context, instr ir.Instr) {
	if instr.Method == nil {
		return
	}
	res := e.idx.ResolveMethod(instr.Method.Holder, instr.Method, nil)
	if !res.Ok() {
		return
	}
	target := res.Definition.Reference
	e.live.VirtualTargets[target] = true
	for _, t := range e.instantiatedSubtypesOf(target.Holder) {
		disp := e.idx.ResolveMethod(t, target, nil)
		if disp.Ok() {
			e.markMethodLive(disp.Definition.Reference, "virtual dispatch from "+ctx.Method.String())
		}
	}
}

func (e *Enqueuer) visitFieldAccess(ctx trace.Context, instr ir.Instr) {
	if instr.Field == nil {
		return
	}
	res := e.idx.ResolveField(instr.Field.Holder, instr.Field, nil)
	if !res.Ok() {
		return
	}
	info := e.fieldAccessInfo(res.Definition.Reference)
	accessCtx := ir.Context{Holder: ctx.Holder, Method: ctx.Method}
	if instr.Kind == ir.FieldWrite {
		info.RecordWrite(accessCtx)
	} else {
		info.RecordRead(accessCtx)
	}
	if instr.MethodHandleKind == ir.MethodHandleReadField {
		info.MethodHandleRead = true
	} else if instr.MethodHandleKind == ir.MethodHandleWriteField {
		info.MethodHandleWrite = true
	}
	e.markTypeLive(res.Definition.Holder(), "field access from "+ctx.Method.String())
}

func (e *Enqueuer) visitNewInstance(ctx trace.Context, instr ir.Instr) {
	if instr.Type == nil {
		return
	}
	e.markInstantiated(instr.Type, "new-instance in "+ctx.Method.String())
	if instr.Method != nil {
		e.resolveAndMarkLive(instr.Method, ctx, "constructor invoked by new-instance in "+ctx.Method.String())
	}
}

func (e *Enqueuer) visitMethodHandle(ctx trace.Context, instr ir.Instr) {
	switch instr.MethodHandleKind {
	case ir.MethodHandleReadField, ir.MethodHandleWriteField:
		if instr.Field == nil {
			return
		}
		res := e.idx.ResolveField(instr.Field.Holder, instr.Field, nil)
		if !res.Ok() {
			return
		}
		info := e.fieldAccessInfo(res.Definition.Reference)
		if instr.MethodHandleKind == ir.MethodHandleWriteField {
			info.MethodHandleWrite = true
		} else {
			info.MethodHandleRead = true
		}
		e.markTypeLive(res.Definition.Holder(), "method-handle access from "+ctx.Method.String())
	default: // MethodHandleInvoke
		e.resolveAndMarkLive(instr.Method, ctx, "method-handle reference from "+ctx.Method.String())
	}
}

// discoverServices implements transition rule 5 (spec.md §4.6): every
// implementation of iface registered in the services mapping becomes
// instantiated, with its public no-argument constructor marked live.
func (e *Enqueuer) discoverServices(iface *item.DexType) {
	if e.services == nil {
		return
	}
	for _, impl := range e.services.Implementations(iface, nil) {
		e.markInstantiated(impl, "service implementation of "+iface.String())
		c, ok := e.idx.DefinitionFor(impl)
		if !ok {
			continue
		}
		for _, m := range c.AllMethods() {
			if m.IsInstanceInitializer() && len(m.Reference.Proto.Params) == 0 && m.Flags.IsPublic() {
				e.markMethodLive(m.Reference, "service loader no-arg constructor for "+impl.String())
			}
		}
	}
}

// visitReflective implements transition rule 7 (spec.md §4.6): mark the
// reflectively-referenced member or type live with the reflective-access
// flag recorded.
func (e *Enqueuer) visitReflective(ctx trace.Context, instr ir.Instr) {
	switch {
	case instr.Method != nil:
		res := e.idx.ResolveMethod(instr.Method.Holder, instr.Method, nil)
		if res.Ok() {
			e.markMethodLive(res.Definition.Reference, "reflective access via "+instr.ReflectiveIdiom)
		}
	case instr.Field != nil:
		res := e.idx.ResolveField(instr.Field.Holder, instr.Field, nil)
		if res.Ok() {
			info := e.fieldAccessInfo(res.Definition.Reference)
			info.ReflectiveAccess = true
			e.markTypeLive(res.Definition.Holder(), "reflective access via "+instr.ReflectiveIdiom)
		}
	case instr.Type != nil:
		e.markTypeLive(instr.Type, "reflective access via "+instr.ReflectiveIdiom)
	}
}
