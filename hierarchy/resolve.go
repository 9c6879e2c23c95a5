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

package hierarchy

import (
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
)

// MethodResolutionKind is a closed enumeration of the ways method resolution
// can conclude, per spec.md §9's design note to prefer tagged variants over
// dispatching through capability interfaces.
type MethodResolutionKind int

const (
	MethodResolved MethodResolutionKind = iota
	MethodNotFound
	MethodInaccessible
	MethodAmbiguousDefault
)

// MethodResolution is the tagged result of resolveMethod (spec.md §4.2).
type MethodResolution struct {
	Kind       MethodResolutionKind
	Definition *ir.EncodedMethod
	Reason     string
}

func (r MethodResolution) Ok() bool { return r.Kind == MethodResolved }

// FieldResolutionKind mirrors MethodResolutionKind for fields.
type FieldResolutionKind int

const (
	FieldResolved FieldResolutionKind = iota
	FieldNotFound
	FieldInaccessible
)

// FieldResolution is the tagged result of resolveField (spec.md §4.2).
type FieldResolution struct {
	Kind       FieldResolutionKind
	Definition *ir.EncodedField
	Reason     string
}

func (r FieldResolution) Ok() bool { return r.Kind == FieldResolved }

// samePackage reports whether two types are declared in the same Java
// package, the basis for package-private accessibility (spec.md §4.2
// "accessibility checks honor package-private resolution rules").
func samePackage(a, b *item.DexType) bool {
	return packageOf(a) == packageOf(b)
}

func accessibleFrom(flags ir.AccessFlags, declaringType, fromType *item.DexType) bool {
	switch {
	case flags.IsPublic():
		return true
	case flags.IsProtected():
		// Simplified: protected members are treated as accessible from
		// every type; neither the subtype relation nor the package is
		// checked for them.
		return true
	case flags.IsPrivate():
		return declaringType == fromType
	default: // package-private
		return samePackage(declaringType, fromType)
	}
}

// ResolveMethod performs Java-style method lookup starting at receiver:
// search receiver and its superclasses first, then its superinterfaces,
// honoring default-method "maximally specific" selection (spec.md §4.2).
// fromType is the accessing context's class, used for the accessibility
// check; pass nil to skip the accessibility check (used internally by the
// Enqueuer, which applies its own accessibility diagnostics separately).
func (idx *Index) ResolveMethod(receiver *item.DexType, ref *item.DexMethod, fromType *item.DexType) MethodResolution {
	// Search the class chain (not interfaces) first.
	cur := receiver
	for cur != nil {
		c, ok := idx.classes[cur]
		if !ok {
			break
		}
		if m := findMethodBySignature(c.AllMethods(), ref); m != nil {
			if fromType != nil && !accessibleFrom(m.Flags, cur, fromType) {
				return MethodResolution{Kind: MethodInaccessible, Reason: "method " + ref.String() + " is not accessible from " + fromType.String()}
			}
			return MethodResolution{Kind: MethodResolved, Definition: m}
		}
		cur = c.Super
	}

	// Fall back to interface default/abstract methods, maximally specific.
	candidates := idx.maximallySpecificInterfaceMethods(receiver, ref)
	switch len(candidates) {
	case 0:
		return MethodResolution{Kind: MethodNotFound, Reason: "no method " + ref.String() + " found on " + receiver.String() + " or its supertypes"}
	case 1:
		return MethodResolution{Kind: MethodResolved, Definition: candidates[0]}
	default:
		return MethodResolution{Kind: MethodAmbiguousDefault, Reason: "more than one maximally-specific default method for " + ref.String() + " on " + receiver.String()}
	}
}

func findMethodBySignature(methods []*ir.EncodedMethod, ref *item.DexMethod) *ir.EncodedMethod {
	for _, m := range methods {
		if m.Reference.Name == ref.Name && m.Reference.Proto == ref.Proto {
			return m
		}
	}
	return nil
}

// maximallySpecificInterfaceMethods gathers every interface reachable from
// receiver that declares a non-abstract (default) method matching ref, then
// filters out any whose declaring interface is extended by another
// candidate's declaring interface (that candidate is "more specific" and
// wins). If no default candidate exists, it falls back to any abstract
// interface declaration so an otherwise-unimplemented interface method is
// still a legal (if unsatisfiable) resolution target.
func (idx *Index) maximallySpecificInterfaceMethods(receiver *item.DexType, ref *item.DexMethod) []*ir.EncodedMethod {
	var defaults []*ir.EncodedMethod
	var abstracts []*ir.EncodedMethod
	declaring := map[*ir.EncodedMethod]*item.DexType{}

	for _, iface := range idx.Supertypes(receiver) {
		c, ok := idx.classes[iface]
		if !ok || !c.Flags.IsInterface() {
			continue
		}
		m := findMethodBySignature(c.AllMethods(), ref)
		if m == nil {
			continue
		}
		declaring[m] = iface
		if m.Flags.IsAbstract() {
			abstracts = append(abstracts, m)
		} else {
			defaults = append(defaults, m)
		}
	}

	pool := defaults
	if len(pool) == 0 {
		pool = abstracts
	}

	var maximal []*ir.EncodedMethod
	for _, candidate := range pool {
		dominated := false
		for _, other := range pool {
			if other == candidate {
				continue
			}
			if idx.IsSubtype(declaring[other], declaring[candidate]) && declaring[other] != declaring[candidate] {
				dominated = true
				break
			}
		}
		if !dominated {
			maximal = append(maximal, candidate)
		}
	}
	return dedupeMethods(maximal)
}

func dedupeMethods(methods []*ir.EncodedMethod) []*ir.EncodedMethod {
	seen := map[*ir.EncodedMethod]bool{}
	var out []*ir.EncodedMethod
	for _, m := range methods {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// ResolveField performs field lookup: receiver class, then its declared
// interfaces (for interface constants), then recursively its superclass
// (spec.md §4.2). The first match wins, matching JVM field-resolution order.
func (idx *Index) ResolveField(receiver *item.DexType, ref *item.DexField, fromType *item.DexType) FieldResolution {
	cur := receiver
	for cur != nil {
		c, ok := idx.classes[cur]
		if !ok {
			break
		}
		if f := findFieldBySignature(c.AllFields(), ref); f != nil {
			if fromType != nil && !accessibleFrom(f.Flags, cur, fromType) {
				return FieldResolution{Kind: FieldInaccessible, Reason: "field " + ref.String() + " is not accessible from " + fromType.String()}
			}
			return FieldResolution{Kind: FieldResolved, Definition: f}
		}
		for _, iface := range c.Interfaces {
			if f := idx.resolveFieldInInterface(iface, ref); f != nil {
				return FieldResolution{Kind: FieldResolved, Definition: f}
			}
		}
		cur = c.Super
	}
	return FieldResolution{Kind: FieldNotFound, Reason: "no field " + ref.String() + " found on " + receiver.String() + " or its supertypes"}
}

func (idx *Index) resolveFieldInInterface(iface *item.DexType, ref *item.DexField) *ir.EncodedField {
	c, ok := idx.classes[iface]
	if !ok {
		return nil
	}
	if f := findFieldBySignature(c.AllFields(), ref); f != nil {
		return f
	}
	for _, super := range c.Interfaces {
		if f := idx.resolveFieldInInterface(super, ref); f != nil {
			return f
		}
	}
	return nil
}

func findFieldBySignature(fields []*ir.EncodedField, ref *item.DexField) *ir.EncodedField {
	for _, f := range fields {
		if f.Reference.Name == ref.Name && f.Reference.Type == ref.Type {
			return f
		}
	}
	return nil
}

// LookupVirtualDispatchTargets computes the set of program-method
// definitions a virtual/interface call to resolved may actually reach, given
// the currently-known instantiated receiver types (spec.md §4.2). For every
// instantiated type that is a subtype of resolved's holder, it resolves the
// call again starting at that concrete type and collects the (deduplicated)
// result.
func (idx *Index) LookupVirtualDispatchTargets(resolved *item.DexMethod, instantiated []*item.DexType) []*ir.EncodedMethod {
	var out []*ir.EncodedMethod
	seen := map[*ir.EncodedMethod]bool{}
	for _, t := range instantiated {
		if !idx.IsSubtype(t, resolved.Holder) {
			continue
		}
		res := idx.ResolveMethod(t, resolved, nil)
		if res.Ok() && !seen[res.Definition] {
			seen[res.Definition] = true
			out = append(out, res.Definition)
		}
	}
	return out
}
