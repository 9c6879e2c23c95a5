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
	"github.com/r8shrink/r8/hierarchy"
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/rootset"
	"github.com/r8shrink/r8/trace"
)

// Enqueuer runs the worklist fixed point described in spec.md §4.6. One
// Enqueuer is used per round (spec.md §4.6 "Multiple rounds"); a second round
// is built by constructing a fresh Enqueuer over the lens-rewritten program.
type Enqueuer struct {
	idx      *hierarchy.Index
	services *ir.Services
	factory  *item.Factory

	// KeepAnnotations gates transition rule 6: whether a live
	// type/field/method's annotations themselves keep their referenced
	// types/fields live (spec.md §4.6 transition rule 6).
	KeepAnnotations bool

	live *Liveness

	typeQueue         []*item.DexType
	instantiatedQueue []*item.DexType
	methodQueue       []*item.DexMethod

	// Synthetics collects every class InjectSynthetic created this round, in
	// creation order, for the driver to splice into the program's class list.
	Synthetics []*ir.Class

	lambdaCounter int
}

// New constructs an Enqueuer over idx and the given service mapping (nil is
// accepted when no services/ entries were supplied). factory is used only to
// mint the synthetic classes lambda/invoke-dynamic desugaring requires
// (spec.md §4.6.1).
func New(idx *hierarchy.Index, services *ir.Services, factory *item.Factory) *Enqueuer {
	return &Enqueuer{idx: idx, services: services, factory: factory, KeepAnnotations: true, live: newLiveness()}
}

// Seed primes the worklists from a Root Set (spec.md §4.4/§4.6 "Seed the
// worklists from the Root Set"), copying its attribute sets onto this
// Enqueuer's Liveness so pinning/obfuscation/shrinking decisions survive
// into the result.
func (e *Enqueuer) Seed(seeds *rootset.Seeds) {
	for t := range seeds.Pinned {
		e.live.Pinned[t] = true
	}
	for t := range seeds.NoObfuscation {
		e.live.NoObfuscation[t] = true
	}
	for t := range seeds.NoShrinking {
		e.live.NoShrinking[t] = true
	}
	for t := range seeds.NoAccessModification {
		e.live.NoAccessModification[t] = true
	}
	for t := range seeds.CheckDiscard {
		e.live.CheckDiscard[t] = true
	}
	for m := range seeds.AssumeNoSideEffects {
		e.live.AssumeNoSideEffects[m] = true
	}
	for ref, reason := range seeds.ReasonAsked {
		e.live.Reasons[ref] = reason
	}

	for t := range seeds.LiveTypes {
		e.markTypeLive(t, "root set")
	}
	for t := range seeds.InstantiatedTypes {
		e.markInstantiated(t, "root set")
	}
	for f := range seeds.LiveFields {
		e.fieldAccessInfo(f)
	}
	for m := range seeds.LiveMethods {
		e.markMethodLive(m, "root set")
	}
}

// Run drains every worklist to a fixed point and returns the resulting
// Liveness (spec.md §4.6 "Main loop"). Convergence is guaranteed because
// every transition either adds to a finite set or is a no-op.
func (e *Enqueuer) Run() *Liveness {
	for len(e.typeQueue) > 0 || len(e.instantiatedQueue) > 0 || len(e.methodQueue) > 0 {
		for len(e.typeQueue) > 0 {
			t := e.typeQueue[0]
			e.typeQueue = e.typeQueue[1:]
			e.processTypeLive(t)
		}
		for len(e.instantiatedQueue) > 0 {
			t := e.instantiatedQueue[0]
			e.instantiatedQueue = e.instantiatedQueue[1:]
			e.processInstantiated(t)
		}
		for len(e.methodQueue) > 0 {
			m := e.methodQueue[0]
			e.methodQueue = e.methodQueue[1:]
			e.processMethodLive(m)
		}
	}
	return e.live
}

func (e *Enqueuer) markTypeLive(t *item.DexType, reason string) {
	if t == nil || e.live.LiveTypes[t] {
		return
	}
	e.live.LiveTypes[t] = true
	e.setReason(t, reason)
	e.typeQueue = append(e.typeQueue, t)
}

func (e *Enqueuer) markInstantiated(t *item.DexType, reason string) {
	if t == nil {
		return
	}
	e.markTypeLive(t, reason)
	if e.live.InstantiatedTypes[t] {
		return
	}
	e.live.InstantiatedTypes[t] = true
	e.instantiatedQueue = append(e.instantiatedQueue, t)
}

func (e *Enqueuer) markMethodLive(ref *item.DexMethod, reason string) {
	if ref == nil || e.live.LiveMethods[ref] {
		return
	}
	e.live.LiveMethods[ref] = true
	e.setReason(ref, reason)
	e.methodQueue = append(e.methodQueue, ref)
}

func (e *Enqueuer) setReason(ref rootset.Ref, reason string) {
	if reason == "" {
		return
	}
	if _, ok := e.live.Reasons[ref]; !ok {
		e.live.Reasons[ref] = reason
	}
}

func (e *Enqueuer) fieldAccessInfo(f *item.DexField) *ir.FieldAccessInfo {
	return e.live.fieldAccessInfo(f)
}

// Liveness returns the Enqueuer's current state without draining the
// worklists; Run should be preferred once seeding is complete.
func (e *Enqueuer) Liveness() *Liveness { return e.live }

// processTypeLive implements transition rule 1 (spec.md §4.6).
func (e *Enqueuer) processTypeLive(t *item.DexType) {
	c, ok := e.idx.DefinitionFor(t)
	if !ok {
		return
	}
	e.markTypeLive(c.Super, "supertype of "+t.String())
	for _, iface := range c.Interfaces {
		e.markTypeLive(iface, "interface of "+t.String())
	}
	for _, m := range c.AllMethods() {
		if m.IsStaticInitializer() {
			e.markMethodLive(m.Reference, "static initializer of "+t.String())
		}
	}
	if e.KeepAnnotations {
		trace.WalkClassAnnotations(t, c.Annotations, e)
	}
}

// processInstantiated implements transition rule 2 (spec.md §4.6): drain the
// set of already-resolved virtual/interface call targets, completing
// dispatch for any whose holder this newly-instantiated type now satisfies.
// Per SPEC_FULL.md §9's resolution of spec.md §9's open question, pending
// dispatches are tracked per resolved method reference (live.VirtualTargets)
// rather than re-resolved from scratch for every instantiation.
func (e *Enqueuer) processInstantiated(t *item.DexType) {
	for ref := range e.live.VirtualTargets {
		if !e.idx.IsSubtype(t, ref.Holder) {
			continue
		}
		res := e.idx.ResolveMethod(t, ref, nil)
		if res.Ok() {
			e.markMethodLive(res.Definition.Reference, "virtual dispatch onto instantiated "+t.String())
		}
	}
}

// processMethodLive implements transition rule 3 (spec.md §4.6): enqueue the
// method's body for tracing, and for an instance constructor also mark its
// holder instantiated.
func (e *Enqueuer) processMethodLive(ref *item.DexMethod) {
	res := e.idx.ResolveMethod(ref.Holder, ref, nil)
	if !res.Ok() {
		return
	}
	def := res.Definition
	if def.IsInstanceInitializer() {
		e.markInstantiated(def.Holder(), "constructor "+ref.String()+" is live")
	}
	trace.Walk(def, e)
}

// instantiatedSubtypesOf returns every currently-known instantiated type
// that is a subtype of holder.
func (e *Enqueuer) instantiatedSubtypesOf(holder *item.DexType) []*item.DexType {
	var out []*item.DexType
	for t := range e.live.InstantiatedTypes {
		if e.idx.IsSubtype(t, holder) {
			out = append(out, t)
		}
	}
	return out
}
