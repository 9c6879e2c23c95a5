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

// Package lens implements the Graph Lens Stack (spec.md §4.8): a chain of
// one-directional lookup rewrites applied between Enqueuer rounds and at output
// time, each one answering "what does this pre-rewrite reference mean now".
package lens

import (
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
)

// PrototypeChange describes how a method's parameter list was rewritten by a
// lens (spec.md §4.8 "lookupPrototypeChanges"). RemovedParams holds the
// original-signature parameter indices that no longer exist in the rewritten
// method's signature, in ascending order.
type PrototypeChange struct {
	RemovedParams []int
}

func (p PrototypeChange) IsEmpty() bool { return len(p.RemovedParams) == 0 }

// MethodRewrite is the target a method reference rewrites to. KindOverride
// is non-nil only when the lens also changes the invocation kind a call site
// must use to reach it (spec.md §4.8 "lookupMethod(ref, context,
// invoke-kind) -> (newRef, maybeNewInvokeKind)"); nil means the caller's
// existing invoke kind still applies, which is the common case for member
// rebinding and class merging.
type MethodRewrite struct {
	Method       *item.DexMethod
	KindOverride *ir.InstrKind
}

// GraphLens is the lens contract every rewrite producer in the pipeline
// implements (spec.md §4.8).
type GraphLens interface {
	LookupType(t *item.DexType) *item.DexType
	LookupField(f *item.DexField) *item.DexField
	LookupMethod(ref *item.DexMethod, ctx ir.Context, kind ir.InstrKind) (*item.DexMethod, ir.InstrKind)
	LookupPrototypeChanges(ref *item.DexMethod) PrototypeChange

	// IsContextFreeForMethods reports whether method lookup through this
	// lens (and every lens before it) never depends on the calling context,
	// required before the final writer applies the composed lens without
	// threading call-site context through it (spec.md §4.8).
	IsContextFreeForMethods() bool
}

type identityLens struct{}

// Identity returns the lens that rewrites nothing: the base of every chain.
func Identity() GraphLens { return identityLens{} }

func (identityLens) LookupType(t *item.DexType) *item.DexType { return t }
func (identityLens) LookupField(f *item.DexField) *item.DexField { return f }
func (identityLens) LookupMethod(ref *item.DexMethod, _ ir.Context, kind ir.InstrKind) (*item.DexMethod, ir.InstrKind) {
	return ref, kind
}
func (identityLens) LookupPrototypeChanges(*item.DexMethod) PrototypeChange { return PrototypeChange{} }
func (identityLens) IsContextFreeForMethods() bool                         { return true }

// nestedLens holds delta maps keyed on the previous lens's output, per
// spec.md §4.8 "A nested lens holds type/field/method delta maps and a
// pointer to the previous lens; lookup queries the previous lens first, then
// applies the delta." Composition is therefore associative by construction:
// each lens only ever rewrites what the chain so far has already produced.
type nestedLens struct {
	prev    GraphLens
	types   map[*item.DexType]*item.DexType
	fields  map[*item.DexField]*item.DexField
	methods map[*item.DexMethod]MethodRewrite
	protos  map[*item.DexMethod]PrototypeChange

	contextFree bool
}

// NewNested builds a lens that queries prev first, then applies the given
// deltas to prev's result. Any delta map may be nil. prev may be nil, in
// which case Identity() is used.
func NewNested(prev GraphLens, types map[*item.DexType]*item.DexType, fields map[*item.DexField]*item.DexField, methods map[*item.DexMethod]MethodRewrite, protos map[*item.DexMethod]PrototypeChange, contextFree bool) GraphLens {
	if prev == nil {
		prev = Identity()
	}
	return &nestedLens{prev: prev, types: types, fields: fields, methods: methods, protos: protos, contextFree: contextFree}
}

func (l *nestedLens) LookupType(t *item.DexType) *item.DexType {
	t = l.prev.LookupType(t)
	if nt, ok := l.types[t]; ok {
		return nt
	}
	return t
}

func (l *nestedLens) LookupField(f *item.DexField) *item.DexField {
	f = l.prev.LookupField(f)
	if nf, ok := l.fields[f]; ok {
		return nf
	}
	return f
}

func (l *nestedLens) LookupMethod(ref *item.DexMethod, ctx ir.Context, kind ir.InstrKind) (*item.DexMethod, ir.InstrKind) {
	ref, kind = l.prev.LookupMethod(ref, ctx, kind)
	if rw, ok := l.methods[ref]; ok {
		if rw.KindOverride != nil {
			kind = *rw.KindOverride
		}
		return rw.Method, kind
	}
	return ref, kind
}

func (l *nestedLens) LookupPrototypeChanges(ref *item.DexMethod) PrototypeChange {
	prior := l.prev.LookupPrototypeChanges(ref)
	key, _ := l.prev.LookupMethod(ref, ir.Context{}, ir.InvokeVirtual)
	own, ok := l.protos[key]
	if !ok {
		return prior
	}
	if prior.IsEmpty() {
		return own
	}
	combined := append(append([]int(nil), prior.RemovedParams...), own.RemovedParams...)
	return PrototypeChange{RemovedParams: combined}
}

func (l *nestedLens) IsContextFreeForMethods() bool {
	return l.contextFree && l.prev.IsContextFreeForMethods()
}
